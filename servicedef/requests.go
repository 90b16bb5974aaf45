package servicedef

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
)

const (
	AccessModeRead  = "r"
	AccessModeWrite = "w"
)

type NewDriver struct {
	URI                             string                 `json:"uri"`
	AuthorizationToken              *AuthorizationToken    `json:"authorizationToken,omitempty"`
	AuthTokenManagerID              string                 `json:"authTokenManagerId,omitempty"`
	UserAgent                       string                 `json:"userAgent,omitempty"`
	ResolverRegistered              bool                   `json:"resolverRegistered"`
	DomainNameResolverRegistered    bool                   `json:"domainNameResolverRegistered"`
	ConnectionTimeoutMS             ldvalue.OptionalInt    `json:"connectionTimeoutMs,omitempty"`
	FetchSize                       ldvalue.OptionalInt    `json:"fetchSize,omitempty"`
	MaxTxRetryTimeMS                ldvalue.OptionalInt    `json:"maxTxRetryTimeMs,omitempty"`
	LivenessCheckTimeoutMS          ldvalue.OptionalInt    `json:"livenessCheckTimeoutMs,omitempty"`
	MaxConnectionPoolSize           ldvalue.OptionalInt    `json:"maxConnectionPoolSize,omitempty"`
	ConnectionAcquisitionTimeoutMS  ldvalue.OptionalInt    `json:"connectionAcquisitionTimeoutMs,omitempty"`
	ClientCertificate               *ClientCertificate     `json:"clientCertificate,omitempty"`
	ClientCertificateProviderID     string                 `json:"clientCertificateProviderId,omitempty"`
	NotificationsMinSeverity        ldvalue.OptionalString `json:"notificationsMinSeverity,omitempty"`
	NotificationsDisabledCategories []string               `json:"notificationsDisabledCategories,omitempty"`
	Encrypted                       *bool                  `json:"encrypted,omitempty"`
	TrustedCertificates             []string               `json:"trustedCertificates,omitempty"`
}

type DriverClose struct {
	DriverID string `json:"driverId"`
}

type VerifyConnectivity struct {
	DriverID string `json:"driverId"`
}

type GetServerInfo struct {
	DriverID string `json:"driverId"`
}

type CheckMultiDBSupport struct {
	DriverID string `json:"driverId"`
}

type CheckDriverIsEncrypted struct {
	DriverID string `json:"driverId"`
}

type GetRoutingTable struct {
	DriverID string                 `json:"driverId"`
	Database ldvalue.OptionalString `json:"database,omitempty"`
}

type GetConnectionPoolMetrics struct {
	DriverID string `json:"driverId"`
	Address  string `json:"address"`
}

type ExecuteQueryConfig struct {
	Database           string              `json:"database,omitempty"`
	RoutingMode        string              `json:"routing,omitempty"`
	ImpersonatedUser   string              `json:"impersonatedUser,omitempty"`
	BookmarkManagerID  string              `json:"bookmarkManagerId,omitempty"`
	TxMeta             cypher.Params       `json:"txMeta,omitempty"`
	TimeoutMS          ldvalue.OptionalInt `json:"timeout,omitempty"`
	AuthorizationToken *AuthorizationToken `json:"authorizationToken,omitempty"`
}

type ExecuteQuery struct {
	DriverID string              `json:"driverId"`
	Cypher   string              `json:"cypher"`
	Params   cypher.Params       `json:"params"`
	Config   *ExecuteQueryConfig `json:"config,omitempty"`
}

type NewSession struct {
	DriverID                        string                 `json:"driverId"`
	AccessMode                      string                 `json:"accessMode"`
	Bookmarks                       []string               `json:"bookmarks,omitempty"`
	Database                        string                 `json:"database,omitempty"`
	FetchSize                       ldvalue.OptionalInt    `json:"fetchSize,omitempty"`
	ImpersonatedUser                string                 `json:"impersonatedUser,omitempty"`
	BookmarkManagerID               string                 `json:"bookmarkManagerId,omitempty"`
	NotificationsMinSeverity        ldvalue.OptionalString `json:"notificationsMinSeverity,omitempty"`
	NotificationsDisabledCategories []string               `json:"notificationsDisabledCategories,omitempty"`
	AuthorizationToken              *AuthorizationToken    `json:"authorizationToken,omitempty"`
}

type SessionClose struct {
	SessionID string `json:"sessionId"`
}

type SessionRun struct {
	SessionID string              `json:"sessionId"`
	Cypher    string              `json:"cypher"`
	Params    cypher.Params       `json:"params"`
	TxMeta    cypher.Params       `json:"txMeta,omitempty"`
	TimeoutMS ldvalue.OptionalInt `json:"timeout,omitempty"`
}

type SessionBeginTransaction struct {
	SessionID string              `json:"sessionId"`
	TxMeta    cypher.Params       `json:"txMeta,omitempty"`
	TimeoutMS ldvalue.OptionalInt `json:"timeout,omitempty"`
}

type SessionReadTransaction struct {
	SessionID     string              `json:"sessionId"`
	TxMeta        cypher.Params       `json:"txMeta,omitempty"`
	TimeoutMS     ldvalue.OptionalInt `json:"timeout,omitempty"`
	RetryFuncUsed bool                `json:"retryFunctionRegistered"`
}

type SessionWriteTransaction struct {
	SessionID     string              `json:"sessionId"`
	TxMeta        cypher.Params       `json:"txMeta,omitempty"`
	TimeoutMS     ldvalue.OptionalInt `json:"timeout,omitempty"`
	RetryFuncUsed bool                `json:"retryFunctionRegistered"`
}

type SessionLastBookmarks struct {
	SessionID string `json:"sessionId"`
}

type TransactionRun struct {
	TxID   string        `json:"txId"`
	Cypher string        `json:"cypher"`
	Params cypher.Params `json:"params"`
}

type TransactionCommit struct {
	TxID string `json:"txId"`
}

type TransactionRollback struct {
	TxID string `json:"txId"`
}

type TransactionClose struct {
	TxID string `json:"txId"`
}

type ResultNext struct {
	ResultID string `json:"resultId"`
}

type ResultPeek struct {
	ResultID string `json:"resultId"`
}

type ResultSingle struct {
	ResultID string `json:"resultId"`
}

type ResultSingleOptional struct {
	ResultID string `json:"resultId"`
}

type ResultConsume struct {
	ResultID string `json:"resultId"`
}

type ResultList struct {
	ResultID string `json:"resultId"`
}

type EagerResultSingle struct {
	EagerResultID string `json:"eagerResultId"`
}

type EagerResultScalar struct {
	EagerResultID string `json:"eagerResultId"`
}

type RetryablePositive struct {
	SessionID string `json:"sessionId"`
}

// RetryableNegative always carries errorId. An empty id tells the adapter that the failure came
// from the harness side, not from a driver error it handed out earlier.
type RetryableNegative struct {
	SessionID string `json:"sessionId"`
	ErrorID   string `json:"errorId"`
}

type RetryFuncResult struct {
	Retry   bool  `json:"retry"`
	DelayMS int64 `json:"delayMs"`
}

type ResolverResolutionCompleted struct {
	RequestID string   `json:"requestId"`
	Addresses []string `json:"addresses"`
}

type DomainNameResolutionCompleted struct {
	RequestID string   `json:"requestId"`
	Addresses []string `json:"addresses"`
}

type NewAuthTokenManager struct{}

type AuthTokenManagerClose struct {
	ID string `json:"id"`
}

type AuthTokenManagerGetAuthCompleted struct {
	RequestID string             `json:"requestId"`
	Auth      AuthorizationToken `json:"auth"`
}

type AuthTokenManagerHandleSecurityExceptionCompleted struct {
	RequestID string `json:"requestId"`
	Handled   bool   `json:"handled"`
}

type NewBasicAuthTokenManager struct{}

type BasicAuthTokenProviderCompleted struct {
	RequestID string             `json:"requestId"`
	Auth      AuthorizationToken `json:"auth"`
}

type NewBearerAuthTokenManager struct{}

type BearerAuthTokenProviderCompleted struct {
	RequestID string                 `json:"requestId"`
	Auth      AuthTokenAndExpiration `json:"auth"`
}

type NewAuthTokenProvider struct{}

type AuthTokenProviderClose struct {
	ID string `json:"id"`
}

type AuthTokenProviderCompleted struct {
	RequestID string                 `json:"requestId"`
	Auth      AuthTokenAndExpiration `json:"auth"`
}

type NewClientCertificateProvider struct{}

type ClientCertificateProviderClose struct {
	ID string `json:"id"`
}

type ClientCertificateProviderCompleted struct {
	RequestID         string             `json:"requestId"`
	HasUpdate         bool               `json:"hasUpdate"`
	ClientCertificate *ClientCertificate `json:"clientCertificate"`
}

type NewBookmarkManager struct {
	InitialBookmarks            map[string][]string `json:"initialBookmarks,omitempty"`
	BookmarksSupplierRegistered bool                `json:"bookmarksSupplierRegistered"`
	BookmarksConsumerRegistered bool                `json:"bookmarksConsumerRegistered"`
}

type BookmarkManagerClose struct {
	ID string `json:"id"`
}

type BookmarksSupplierCompleted struct {
	RequestID string   `json:"requestId"`
	Bookmarks []string `json:"bookmarks"`
}

type BookmarksConsumerCompleted struct {
	RequestID string `json:"requestId"`
}

type FakeTimeInstall struct{}

type FakeTimeTick struct {
	IncrementMS int64 `json:"incrementMs"`
}

type FakeTimeUninstall struct{}

type GetFeatures struct{}

type StartTest struct {
	TestName string `json:"testName"`
}
