package servicedef

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
)

type Driver struct {
	ID string `json:"id"`
}

type Session struct {
	ID string `json:"id"`
}

type Transaction struct {
	ID string `json:"id"`
}

type Result struct {
	ID   string   `json:"id"`
	Keys []string `json:"keys"`
}

type EagerResult struct {
	ID      string   `json:"id"`
	Keys    []string `json:"keys"`
	Records []Record `json:"records"`
	Summary Summary  `json:"summary"`
}

type Record struct {
	Values cypher.Row `json:"values"`
}

type NullRecord struct{}

type RecordOptional struct {
	Record   *Record  `json:"record"`
	Warnings []string `json:"warnings"`
}

type RecordList struct {
	Records []Record `json:"records"`
}

type ServerInfo struct {
	Address         string `json:"address"`
	Agent           string `json:"agent"`
	ProtocolVersion string `json:"protocolVersion"`
}

// Summary is the result summary. Only the parts tests compare structurally are typed; counters,
// notifications and plans are kept as opaque JSON values.
type Summary struct {
	ServerInfo           ServerInfo          `json:"serverInfo"`
	Database             string              `json:"database"`
	QueryType            string              `json:"queryType"`
	Query                SummaryQuery        `json:"query"`
	Counters             ldvalue.Value       `json:"counters"`
	Notifications        ldvalue.Value       `json:"notifications"`
	Plan                 ldvalue.Value       `json:"plan"`
	Profile              ldvalue.Value       `json:"profile"`
	ResultAvailableAfter ldvalue.OptionalInt `json:"resultAvailableAfter"`
	ResultConsumedAfter  ldvalue.OptionalInt `json:"resultConsumedAfter"`
}

type SummaryQuery struct {
	Text       string        `json:"text"`
	Parameters cypher.Params `json:"parameters"`
}

type Bookmarks struct {
	Bookmarks []string `json:"bookmarks"`
}

type RetryableTry struct {
	ID string `json:"id"`
}

type RetryableDone struct{}

// RetryFunc asks the harness whether a failed managed transaction should be tried again.
type RetryFunc struct {
	Exception   ldvalue.Value `json:"exception"`
	Attempt     int           `json:"attempt"`
	MaxAttempts int           `json:"maxAttempts"`
}

type ResolverResolutionRequired struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

type DomainNameResolutionRequired struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AuthTokenManager struct {
	ID string `json:"id"`
}

type AuthTokenManagerGetAuthRequest struct {
	ID                 string `json:"id"`
	AuthTokenManagerID string `json:"authTokenManagerId"`
}

type AuthTokenManagerHandleSecurityExceptionRequest struct {
	ID                 string             `json:"id"`
	AuthTokenManagerID string             `json:"authTokenManagerId"`
	Auth               AuthorizationToken `json:"auth"`
	ErrorCode          string             `json:"errorCode"`
}

type BasicAuthTokenManager struct {
	ID string `json:"id"`
}

type BasicAuthTokenProviderRequest struct {
	ID                      string `json:"id"`
	BasicAuthTokenManagerID string `json:"basicAuthTokenManagerId"`
}

type BearerAuthTokenManager struct {
	ID string `json:"id"`
}

type BearerAuthTokenProviderRequest struct {
	ID                       string `json:"id"`
	BearerAuthTokenManagerID string `json:"bearerAuthTokenManagerId"`
}

type AuthTokenProvider struct {
	ID string `json:"id"`
}

type AuthTokenProviderRequest struct {
	ID                  string `json:"id"`
	AuthTokenProviderID string `json:"authTokenProviderId"`
}

type ClientCertificateProvider struct {
	ID string `json:"id"`
}

type ClientCertificateProviderRequest struct {
	ID                          string `json:"id"`
	ClientCertificateProviderID string `json:"clientCertificateProviderId"`
}

type BookmarkManager struct {
	ID string `json:"id"`
}

type BookmarksSupplierRequest struct {
	ID                string `json:"id"`
	BookmarkManagerID string `json:"bookmarkManagerId"`
	Database          string `json:"database"`
}

type BookmarksConsumerRequest struct {
	ID                string   `json:"id"`
	BookmarkManagerID string   `json:"bookmarkManagerId"`
	Database          string   `json:"database"`
	Bookmarks         []string `json:"bookmarks"`
}

type FakeTimeAck struct{}

type FeatureList struct {
	Features []string `json:"features"`
}

type RunTest struct{}

type SkipTest struct {
	Reason string `json:"reason"`
}

type MultiDBSupport struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
}

type DriverIsEncrypted struct {
	Encrypted bool `json:"encrypted"`
}

type RoutingTable struct {
	Database string   `json:"database"`
	TTL      int64    `json:"ttl"`
	Routers  []string `json:"routers"`
	Readers  []string `json:"readers"`
	Writers  []string `json:"writers"`
}

type ConnectionPoolMetrics struct {
	InUse int `json:"inUse"`
	Idle  int `json:"idle"`
}
