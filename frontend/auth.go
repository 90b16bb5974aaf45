package frontend

import (
	"errors"

	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// AuthTokenManager lets the test supply credentials each time the driver needs them, and observe
// security failures.
type AuthTokenManager struct {
	b                       *Backend
	id                      string
	getAuth                 func() (servicedef.AuthorizationToken, error)
	handleSecurityException func(auth servicedef.AuthorizationToken, errorCode string) (bool, error)
}

func NewAuthTokenManager(
	b *Backend,
	getAuth func() (servicedef.AuthorizationToken, error),
	handleSecurityException func(auth servicedef.AuthorizationToken, errorCode string) (bool, error),
) (*AuthTokenManager, error) {
	res, err := b.call(servicedef.NewAuthTokenManager{}, "AuthTokenManager")
	if err != nil {
		return nil, err
	}
	m := &AuthTokenManager{
		b:                       b,
		id:                      res.(servicedef.AuthTokenManager).ID,
		getAuth:                 getAuth,
		handleSecurityException: handleSecurityException,
	}
	b.registry(kindAuthTokenManager).Register(m.id, m)
	return m, nil
}

func (m *AuthTokenManager) ID() string {
	return m.id
}

func (m *AuthTokenManager) Close() error {
	return closeAuthManager(m.b, kindAuthTokenManager, m.id)
}

func closeAuthManager(b *Backend, kind, id string) error {
	if _, err := b.call(servicedef.AuthTokenManagerClose{ID: id}, "AuthTokenManager"); err != nil {
		return err
	}
	b.registry(kind).Unregister(id)
	return nil
}

func (b *Backend) handleGetAuth(request interface{}) (interface{}, error) {
	req := request.(servicedef.AuthTokenManagerGetAuthRequest)
	owner, err := b.lookup(kindAuthTokenManager, req.AuthTokenManagerID)
	if err != nil {
		return nil, err
	}
	auth, err := owner.(*AuthTokenManager).getAuth()
	if err != nil {
		return nil, err
	}
	return servicedef.AuthTokenManagerGetAuthCompleted{RequestID: req.ID, Auth: auth}, nil
}

func (b *Backend) handleSecurityException(request interface{}) (interface{}, error) {
	req := request.(servicedef.AuthTokenManagerHandleSecurityExceptionRequest)
	owner, err := b.lookup(kindAuthTokenManager, req.AuthTokenManagerID)
	if err != nil {
		return nil, err
	}
	m := owner.(*AuthTokenManager)
	handled := false
	if m.handleSecurityException != nil {
		if handled, err = m.handleSecurityException(req.Auth, req.ErrorCode); err != nil {
			return nil, err
		}
	}
	return servicedef.AuthTokenManagerHandleSecurityExceptionCompleted{RequestID: req.ID, Handled: handled}, nil
}

// BasicAuthTokenManager is the driver's built-in manager for username and password credentials,
// with the test acting as the credential source.
type BasicAuthTokenManager struct {
	b        *Backend
	id       string
	provider func() (servicedef.AuthorizationToken, error)
}

func NewBasicAuthTokenManager(b *Backend, provider func() (servicedef.AuthorizationToken, error)) (*BasicAuthTokenManager, error) {
	res, err := b.call(servicedef.NewBasicAuthTokenManager{}, "BasicAuthTokenManager")
	if err != nil {
		return nil, err
	}
	m := &BasicAuthTokenManager{b: b, id: res.(servicedef.BasicAuthTokenManager).ID, provider: provider}
	b.registry(kindBasicAuthTokenManager).Register(m.id, m)
	return m, nil
}

func (m *BasicAuthTokenManager) ID() string {
	return m.id
}

func (m *BasicAuthTokenManager) Close() error {
	return closeAuthManager(m.b, kindBasicAuthTokenManager, m.id)
}

func (b *Backend) handleBasicAuthTokenProvider(request interface{}) (interface{}, error) {
	req := request.(servicedef.BasicAuthTokenProviderRequest)
	owner, err := b.lookup(kindBasicAuthTokenManager, req.BasicAuthTokenManagerID)
	if err != nil {
		return nil, err
	}
	auth, err := owner.(*BasicAuthTokenManager).provider()
	if err != nil {
		return nil, err
	}
	return servicedef.BasicAuthTokenProviderCompleted{RequestID: req.ID, Auth: auth}, nil
}

// BearerAuthTokenManager is the driver's built-in manager for expiring tokens.
type BearerAuthTokenManager struct {
	b        *Backend
	id       string
	provider func() (servicedef.AuthTokenAndExpiration, error)
}

func NewBearerAuthTokenManager(b *Backend, provider func() (servicedef.AuthTokenAndExpiration, error)) (*BearerAuthTokenManager, error) {
	res, err := b.call(servicedef.NewBearerAuthTokenManager{}, "BearerAuthTokenManager")
	if err != nil {
		return nil, err
	}
	m := &BearerAuthTokenManager{b: b, id: res.(servicedef.BearerAuthTokenManager).ID, provider: provider}
	b.registry(kindBearerAuthTokenManager).Register(m.id, m)
	return m, nil
}

func (m *BearerAuthTokenManager) ID() string {
	return m.id
}

func (m *BearerAuthTokenManager) Close() error {
	return closeAuthManager(m.b, kindBearerAuthTokenManager, m.id)
}

func (b *Backend) handleBearerAuthTokenProvider(request interface{}) (interface{}, error) {
	req := request.(servicedef.BearerAuthTokenProviderRequest)
	owner, err := b.lookup(kindBearerAuthTokenManager, req.BearerAuthTokenManagerID)
	if err != nil {
		return nil, err
	}
	auth, err := owner.(*BearerAuthTokenManager).provider()
	if err != nil {
		return nil, err
	}
	return servicedef.BearerAuthTokenProviderCompleted{RequestID: req.ID, Auth: auth}, nil
}

// AuthTokenProvider supplies renewable tokens to the driver.
type AuthTokenProvider struct {
	b        *Backend
	id       string
	callback func() (servicedef.AuthTokenAndExpiration, error)
}

func NewAuthTokenProvider(b *Backend, callback func() (servicedef.AuthTokenAndExpiration, error)) (*AuthTokenProvider, error) {
	if callback == nil {
		return nil, errors.New("an auth token provider needs a callback")
	}
	res, err := b.call(servicedef.NewAuthTokenProvider{}, "AuthTokenProvider")
	if err != nil {
		return nil, err
	}
	p := &AuthTokenProvider{b: b, id: res.(servicedef.AuthTokenProvider).ID, callback: callback}
	b.registry(kindAuthTokenProvider).Register(p.id, p)
	return p, nil
}

func (p *AuthTokenProvider) ID() string {
	return p.id
}

func (p *AuthTokenProvider) Close() error {
	if _, err := p.b.call(servicedef.AuthTokenProviderClose{ID: p.id}, "AuthTokenProvider"); err != nil {
		return err
	}
	p.b.registry(kindAuthTokenProvider).Unregister(p.id)
	return nil
}

func (b *Backend) handleAuthTokenProvider(request interface{}) (interface{}, error) {
	req := request.(servicedef.AuthTokenProviderRequest)
	owner, err := b.lookup(kindAuthTokenProvider, req.AuthTokenProviderID)
	if err != nil {
		return nil, err
	}
	auth, err := owner.(*AuthTokenProvider).callback()
	if err != nil {
		return nil, err
	}
	return servicedef.AuthTokenProviderCompleted{RequestID: req.ID, Auth: auth}, nil
}
