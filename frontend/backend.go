// Package frontend is the object model that tests use to drive a driver through its adapter.
// Every facade wraps an adapter-side id and turns method calls into harness requests.
package frontend

import (
	"fmt"

	"github.com/launchdarkly/bolt-contract-tests/backend"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

const (
	kindDriver                    = "Driver"
	kindSession                   = "Session"
	kindTransaction               = "Transaction"
	kindResult                    = "Result"
	kindAuthTokenManager          = "AuthTokenManager"
	kindBasicAuthTokenManager     = "BasicAuthTokenManager"
	kindBearerAuthTokenManager    = "BearerAuthTokenManager"
	kindAuthTokenProvider         = "AuthTokenProvider"
	kindClientCertificateProvider = "ClientCertificateProvider"
	kindBookmarkManager           = "BookmarkManager"
)

// Backend is a harness channel with the frontend's callback handlers installed.
type Backend struct {
	ch           *backend.Channel
	activeDriver *Driver
}

func NewBackend(ch *backend.Channel) *Backend {
	b := &Backend{ch: ch}
	ch.Handle("ResolverResolutionRequired", b.handleResolution)
	ch.Handle("DomainNameResolutionRequired", b.handleDomainNameResolution)
	ch.Handle("AuthTokenManagerGetAuthRequest", b.handleGetAuth)
	ch.Handle("AuthTokenManagerHandleSecurityExceptionRequest", b.handleSecurityException)
	ch.Handle("BasicAuthTokenProviderRequest", b.handleBasicAuthTokenProvider)
	ch.Handle("BearerAuthTokenProviderRequest", b.handleBearerAuthTokenProvider)
	ch.Handle("AuthTokenProviderRequest", b.handleAuthTokenProvider)
	ch.Handle("ClientCertificateProviderRequest", b.handleClientCertificateProvider)
	ch.Handle("BookmarksSupplierRequest", b.handleBookmarksSupplier)
	ch.Handle("BookmarksConsumerRequest", b.handleBookmarksConsumer)
	return b
}

func (b *Backend) Channel() *backend.Channel {
	return b.ch
}

func (b *Backend) registry(kind string) *backend.Registry {
	return b.ch.Registry(kind)
}

func (b *Backend) lookup(kind, id string) (interface{}, error) {
	return b.ch.Registry(kind).Lookup(id)
}

func (b *Backend) SendAndReceive(request interface{}) (interface{}, error) {
	return b.ch.SendAndReceive(request)
}

// enter makes d the driver whose resolvers answer resolution callbacks until the returned
// function is called.
func (b *Backend) enter(d *Driver) func() {
	prev := b.activeDriver
	b.activeDriver = d
	return func() { b.activeDriver = prev }
}

func (b *Backend) GetFeatures() ([]string, error) {
	return b.ch.GetFeatures()
}

// StartTest asks the adapter whether it wants to run the test with the given id. When it does
// not, the reason it gave is returned.
func (b *Backend) StartTest(testName string) (run bool, skipReason string, err error) {
	res, err := b.ch.SendAndReceive(servicedef.StartTest{TestName: testName})
	if err != nil {
		return false, "", err
	}
	switch r := res.(type) {
	case servicedef.RunTest:
		return true, "", nil
	case servicedef.SkipTest:
		return false, r.Reason, nil
	}
	return false, "", backend.UnexpectedResponse("RunTest or SkipTest", res)
}

func (b *Backend) call(request interface{}, expected string) (interface{}, error) {
	res, err := b.ch.SendAndReceive(request)
	return checkResponse(expected, res, err)
}

func checkResponse(expected string, res interface{}, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if servicedef.MessageName(res) != expected {
		return nil, backend.UnexpectedResponse(expected, res)
	}
	return res, nil
}

func (b *Backend) handleResolution(request interface{}) (interface{}, error) {
	req := request.(servicedef.ResolverResolutionRequired)
	d := b.activeDriver
	if d == nil || d.config.Resolver == nil {
		return nil, fmt.Errorf("no resolver registered for address %s", req.Address)
	}
	addresses, err := d.config.Resolver(req.Address)
	if err != nil {
		return nil, err
	}
	return servicedef.ResolverResolutionCompleted{RequestID: req.ID, Addresses: addresses}, nil
}

func (b *Backend) handleDomainNameResolution(request interface{}) (interface{}, error) {
	req := request.(servicedef.DomainNameResolutionRequired)
	d := b.activeDriver
	if d == nil || d.config.DomainNameResolver == nil {
		return nil, fmt.Errorf("no domain name resolver registered for %s", req.Name)
	}
	addresses, err := d.config.DomainNameResolver(req.Name)
	if err != nil {
		return nil, err
	}
	return servicedef.DomainNameResolutionCompleted{RequestID: req.ID, Addresses: addresses}, nil
}

func unexpected(expected string, actual interface{}) error {
	return backend.UnexpectedResponse(expected, actual)
}
