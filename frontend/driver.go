package frontend

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// AuthManager is implemented by the facades that can supply a driver's credentials.
type AuthManager interface {
	ID() string
}

type DriverConfig struct {
	// Auth is used when AuthManager is nil.
	Auth        servicedef.AuthorizationToken
	AuthManager AuthManager
	UserAgent   string

	// Resolver maps an initial address to the addresses to try instead.
	Resolver func(address string) ([]string, error)
	// DomainNameResolver maps a host name to IP addresses.
	DomainNameResolver func(name string) ([]string, error)

	ConnectionTimeoutMS             ldvalue.OptionalInt
	FetchSize                       ldvalue.OptionalInt
	MaxTxRetryTimeMS                ldvalue.OptionalInt
	LivenessCheckTimeoutMS          ldvalue.OptionalInt
	MaxConnectionPoolSize           ldvalue.OptionalInt
	ConnectionAcquisitionTimeoutMS  ldvalue.OptionalInt
	ClientCertificate               *servicedef.ClientCertificate
	ClientCertificateProvider       *ClientCertificateProvider
	NotificationsMinSeverity        ldvalue.OptionalString
	NotificationsDisabledCategories []string
	Encrypted                       *bool
	TrustedCertificates             []string
}

type Driver struct {
	b        *Backend
	id       string
	config   DriverConfig
	sessions map[*Session]struct{}
	closed   bool
}

func NewDriver(b *Backend, uri string, config DriverConfig) (*Driver, error) {
	req := servicedef.NewDriver{
		URI:                             uri,
		UserAgent:                       config.UserAgent,
		ResolverRegistered:              config.Resolver != nil,
		DomainNameResolverRegistered:    config.DomainNameResolver != nil,
		ConnectionTimeoutMS:             config.ConnectionTimeoutMS,
		FetchSize:                       config.FetchSize,
		MaxTxRetryTimeMS:                config.MaxTxRetryTimeMS,
		LivenessCheckTimeoutMS:          config.LivenessCheckTimeoutMS,
		MaxConnectionPoolSize:           config.MaxConnectionPoolSize,
		ConnectionAcquisitionTimeoutMS:  config.ConnectionAcquisitionTimeoutMS,
		ClientCertificate:               config.ClientCertificate,
		NotificationsMinSeverity:        config.NotificationsMinSeverity,
		NotificationsDisabledCategories: config.NotificationsDisabledCategories,
		Encrypted:                       config.Encrypted,
		TrustedCertificates:             config.TrustedCertificates,
	}
	if config.AuthManager != nil {
		req.AuthTokenManagerID = config.AuthManager.ID()
	} else {
		auth := config.Auth
		if auth.Scheme == "" {
			auth = servicedef.NoAuth()
		}
		req.AuthorizationToken = &auth
	}
	if config.ClientCertificateProvider != nil {
		req.ClientCertificateProviderID = config.ClientCertificateProvider.ID()
	}
	d := &Driver{b: b, config: config, sessions: make(map[*Session]struct{})}
	res, err := d.call(req, "Driver")
	if err != nil {
		return nil, err
	}
	d.id = res.(servicedef.Driver).ID
	b.registry(kindDriver).Register(d.id, d)
	return d, nil
}

func (d *Driver) ID() string {
	return d.id
}

// sendAndReceive runs a request with this driver's resolvers answering resolution callbacks.
func (d *Driver) sendAndReceive(request interface{}) (interface{}, error) {
	defer d.b.enter(d)()
	return d.b.ch.SendAndReceive(request)
}

func (d *Driver) call(request interface{}, expected string) (interface{}, error) {
	res, err := d.sendAndReceive(request)
	return checkResponse(expected, res, err)
}

func (d *Driver) send(request interface{}) error {
	return d.b.ch.Send(request)
}

func (d *Driver) receive() (interface{}, error) {
	defer d.b.enter(d)()
	return d.b.ch.Receive()
}

// Close closes the driver in the adapter and releases every facade that belongs to it.
func (d *Driver) Close() error {
	if _, err := d.call(servicedef.DriverClose{DriverID: d.id}, "Driver"); err != nil {
		return err
	}
	d.release()
	return nil
}

func (d *Driver) Closed() bool {
	return d.closed
}

func (d *Driver) release() {
	d.closed = true
	for s := range d.sessions {
		s.release()
	}
	d.sessions = nil
	d.b.registry(kindDriver).Unregister(d.id)
}

func (d *Driver) Session(config SessionConfig) (*Session, error) {
	return newSession(d, config)
}

func (d *Driver) VerifyConnectivity() error {
	_, err := d.call(servicedef.VerifyConnectivity{DriverID: d.id}, "Driver")
	return err
}

func (d *Driver) GetServerInfo() (servicedef.ServerInfo, error) {
	res, err := d.call(servicedef.GetServerInfo{DriverID: d.id}, "ServerInfo")
	if err != nil {
		return servicedef.ServerInfo{}, err
	}
	return res.(servicedef.ServerInfo), nil
}

func (d *Driver) SupportsMultiDB() (bool, error) {
	res, err := d.call(servicedef.CheckMultiDBSupport{DriverID: d.id}, "MultiDBSupport")
	if err != nil {
		return false, err
	}
	return res.(servicedef.MultiDBSupport).Available, nil
}

func (d *Driver) IsEncrypted() (bool, error) {
	res, err := d.call(servicedef.CheckDriverIsEncrypted{DriverID: d.id}, "DriverIsEncrypted")
	if err != nil {
		return false, err
	}
	return res.(servicedef.DriverIsEncrypted).Encrypted, nil
}

func (d *Driver) GetRoutingTable(database ldvalue.OptionalString) (servicedef.RoutingTable, error) {
	res, err := d.call(servicedef.GetRoutingTable{DriverID: d.id, Database: database}, "RoutingTable")
	if err != nil {
		return servicedef.RoutingTable{}, err
	}
	return res.(servicedef.RoutingTable), nil
}

func (d *Driver) GetConnectionPoolMetrics(address string) (servicedef.ConnectionPoolMetrics, error) {
	res, err := d.call(servicedef.GetConnectionPoolMetrics{DriverID: d.id, Address: address}, "ConnectionPoolMetrics")
	if err != nil {
		return servicedef.ConnectionPoolMetrics{}, err
	}
	return res.(servicedef.ConnectionPoolMetrics), nil
}

// ExecuteQuery runs a query with the driver-level API and returns all of its records at once.
func (d *Driver) ExecuteQuery(query string, params cypher.Params, config *servicedef.ExecuteQueryConfig) (*EagerResult, error) {
	if params == nil {
		params = cypher.Params{}
	}
	res, err := d.call(servicedef.ExecuteQuery{DriverID: d.id, Cypher: query, Params: params, Config: config}, "EagerResult")
	if err != nil {
		return nil, err
	}
	return newEagerResult(d, res.(servicedef.EagerResult)), nil
}
