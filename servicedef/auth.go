package servicedef

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
)

// AuthorizationToken is sent nested as {"name": "AuthorizationToken", "data": {...}}.
type AuthorizationToken struct {
	Scheme      string        `json:"scheme"`
	Principal   string        `json:"principal,omitempty"`
	Credentials string        `json:"credentials,omitempty"`
	Realm       string        `json:"realm,omitempty"`
	Ticket      string        `json:"ticket,omitempty"`
	Parameters  cypher.Params `json:"parameters,omitempty"`
}

type authorizationTokenData AuthorizationToken

func (a AuthorizationToken) MarshalJSON() ([]byte, error) {
	return marshalNamed("AuthorizationToken", authorizationTokenData(a))
}

func (a *AuthorizationToken) UnmarshalJSON(data []byte) error {
	return unmarshalNamed("AuthorizationToken", data, (*authorizationTokenData)(a))
}

func NoAuth() AuthorizationToken {
	return AuthorizationToken{Scheme: "none"}
}

func BasicAuth(principal, credentials, realm string) AuthorizationToken {
	return AuthorizationToken{Scheme: "basic", Principal: principal, Credentials: credentials, Realm: realm}
}

func BearerAuth(token string) AuthorizationToken {
	return AuthorizationToken{Scheme: "bearer", Credentials: token}
}

func KerberosAuth(ticket string) AuthorizationToken {
	return AuthorizationToken{Scheme: "kerberos", Credentials: ticket}
}

// AuthTokenAndExpiration is a token that the driver should replace after ExpiresInMS.
type AuthTokenAndExpiration struct {
	Auth        AuthorizationToken  `json:"auth"`
	ExpiresInMS ldvalue.OptionalInt `json:"expiresInMs,omitempty"`
}

type authTokenAndExpirationData AuthTokenAndExpiration

func (a AuthTokenAndExpiration) MarshalJSON() ([]byte, error) {
	return marshalNamed("AuthTokenAndExpiration", authTokenAndExpirationData(a))
}

func (a *AuthTokenAndExpiration) UnmarshalJSON(data []byte) error {
	return unmarshalNamed("AuthTokenAndExpiration", data, (*authTokenAndExpirationData)(a))
}

// ClientCertificate points at certificate material on the adapter's file system. The paths are
// passed through unchanged.
type ClientCertificate struct {
	CertFile string                 `json:"certfile"`
	KeyFile  string                 `json:"keyfile"`
	Password ldvalue.OptionalString `json:"password,omitempty"`
}

type clientCertificateData ClientCertificate

func (c ClientCertificate) MarshalJSON() ([]byte, error) {
	return marshalNamed("ClientCertificate", clientCertificateData(c))
}

func (c *ClientCertificate) UnmarshalJSON(data []byte) error {
	return unmarshalNamed("ClientCertificate", data, (*clientCertificateData)(c))
}
