package frontend

import (
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// ClientCertificateHolder is what a ClientCertificateProvider callback returns. With HasUpdate
// false the driver keeps using the certificate it already has.
type ClientCertificateHolder struct {
	Cert      *servicedef.ClientCertificate
	HasUpdate bool
}

type ClientCertificateProvider struct {
	b       *Backend
	id      string
	handler func() (ClientCertificateHolder, error)
}

func NewClientCertificateProvider(b *Backend, handler func() (ClientCertificateHolder, error)) (*ClientCertificateProvider, error) {
	res, err := b.call(servicedef.NewClientCertificateProvider{}, "ClientCertificateProvider")
	if err != nil {
		return nil, err
	}
	p := &ClientCertificateProvider{b: b, id: res.(servicedef.ClientCertificateProvider).ID, handler: handler}
	b.registry(kindClientCertificateProvider).Register(p.id, p)
	return p, nil
}

func (p *ClientCertificateProvider) ID() string {
	return p.id
}

func (p *ClientCertificateProvider) Close() error {
	if _, err := p.b.call(servicedef.ClientCertificateProviderClose{ID: p.id}, "ClientCertificateProvider"); err != nil {
		return err
	}
	p.b.registry(kindClientCertificateProvider).Unregister(p.id)
	return nil
}

func (b *Backend) handleClientCertificateProvider(request interface{}) (interface{}, error) {
	req := request.(servicedef.ClientCertificateProviderRequest)
	owner, err := b.lookup(kindClientCertificateProvider, req.ClientCertificateProviderID)
	if err != nil {
		return nil, err
	}
	holder, err := owner.(*ClientCertificateProvider).handler()
	if err != nil {
		return nil, err
	}
	return servicedef.ClientCertificateProviderCompleted{
		RequestID:         req.ID,
		HasUpdate:         holder.HasUpdate,
		ClientCertificate: holder.Cert,
	}, nil
}
