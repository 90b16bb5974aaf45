package servicedef

import "fmt"

// Feature is an optional behavior that a driver adapter may declare in its FeatureList.
type Feature = string

const (
	FeatureAPIResultList           Feature = "Feature:API:Result.List"
	FeatureAPIResultPeek           Feature = "Feature:API:Result.Peek"
	FeatureAPIResultSingle         Feature = "Feature:API:Result.Single"
	FeatureAPIResultSingleOptional Feature = "Feature:API:Result.SingleOptional"
	FeatureAPIDriverExecuteQuery   Feature = "Feature:API:Driver.ExecuteQuery"
	FeatureAPIDriverIsEncrypted    Feature = "Feature:API:Driver.IsEncrypted"
	FeatureAPIDriverVerifyConn     Feature = "Feature:API:Driver.VerifyConnectivity"
	FeatureAPIDriverServerInfo     Feature = "Feature:API:Driver:GetServerInfo"
	FeatureAPIBookmarkManager      Feature = "Feature:API:BookmarkManager"
	FeatureAPIConnectionPoolStats  Feature = "Feature:API:ConnectionAcquisitionTimeout"
	FeatureAPILiveness             Feature = "Feature:API:Liveness.Check"
	FeatureAPIRetryableExceptions  Feature = "Feature:API:RetryableExceptions"
	FeatureAPISessionAuthConfig    Feature = "Feature:API:Session:AuthConfig"
	FeatureAPISessionNotifications Feature = "Feature:API:Session:NotificationsConfig"
	FeatureAPIDriverNotifications  Feature = "Feature:API:Driver:NotificationsConfig"
	FeatureAPISSLConfig            Feature = "Feature:API:SSLConfig"
	FeatureAPISSLSchemes           Feature = "Feature:API:SSLSchemes"
	FeatureAPITypeTemporal         Feature = "Feature:API:Type.Temporal"
	FeatureAPITypeSpatial          Feature = "Feature:API:Type.Spatial"
	FeatureAPIClientCertificate    Feature = "Feature:API:SSLClientCertificate"
	FeatureAuthBearer              Feature = "Feature:Auth:Bearer"
	FeatureAuthCustom              Feature = "Feature:Auth:Custom"
	FeatureAuthKerberos            Feature = "Feature:Auth:Kerberos"
	FeatureAuthManaged             Feature = "Feature:Auth:Managed"
	FeatureBolt3                   Feature = "Feature:Bolt:3.0"
	FeatureBolt40                  Feature = "Feature:Bolt:4.0"
	FeatureBolt41                  Feature = "Feature:Bolt:4.1"
	FeatureBolt42                  Feature = "Feature:Bolt:4.2"
	FeatureBolt43                  Feature = "Feature:Bolt:4.3"
	FeatureBolt44                  Feature = "Feature:Bolt:4.4"
	FeatureBolt50                  Feature = "Feature:Bolt:5.0"
	FeatureBolt51                  Feature = "Feature:Bolt:5.1"
	FeatureBolt52                  Feature = "Feature:Bolt:5.2"
	FeatureBolt53                  Feature = "Feature:Bolt:5.3"
	FeatureBolt54                  Feature = "Feature:Bolt:5.4"
	FeatureBoltPatchUTC            Feature = "Feature:Bolt:Patch:UTC"
	FeatureImpersonation           Feature = "Feature:Impersonation"
	FeatureTLS11                   Feature = "Feature:TLS:1.1"
	FeatureTLS12                   Feature = "Feature:TLS:1.2"
	FeatureTLS13                   Feature = "Feature:TLS:1.3"

	OptAuthorizationExpiredTreatment Feature = "AuthorizationExpiredTreatment"
	OptConnectionReuse               Feature = "Optimization:ConnectionReuse"
	OptEagerTxBegin                  Feature = "Optimization:EagerTransactionBegin"
	OptImplicitDefaultArguments      Feature = "Optimization:ImplicitDefaultArguments"
	OptMinimalResets                 Feature = "Optimization:MinimalResets"
	OptPullPipelining                Feature = "Optimization:PullPipelining"

	ConfHintConnectionRecvTimeout Feature = "ConfHint:connection.recv_timeout_seconds"

	TmpCypherPathAndRelationship Feature = "Temporary:CypherPathAndRelationship"
	TmpDriverFetchSize           Feature = "Temporary:DriverFetchSize"
	TmpDriverMaxTxRetryTime      Feature = "Temporary:DriverMaxTxRetryTime"
	TmpFastFailingDiscovery      Feature = "Temporary:FastFailingDiscovery"
	TmpFullSummary               Feature = "Temporary:FullSummary"
	TmpResultKeys                Feature = "Temporary:ResultKeys"
	TmpResultList                Feature = "Temporary:ResultList"
	TmpTransactionClose          Feature = "Temporary:TransactionClose"
)

var AllFeatures = []Feature{
	FeatureAPIResultList, FeatureAPIResultPeek, FeatureAPIResultSingle, FeatureAPIResultSingleOptional,
	FeatureAPIDriverExecuteQuery, FeatureAPIDriverIsEncrypted, FeatureAPIDriverVerifyConn,
	FeatureAPIDriverServerInfo, FeatureAPIBookmarkManager, FeatureAPIConnectionPoolStats,
	FeatureAPILiveness, FeatureAPIRetryableExceptions, FeatureAPISessionAuthConfig,
	FeatureAPISessionNotifications, FeatureAPIDriverNotifications, FeatureAPISSLConfig,
	FeatureAPISSLSchemes, FeatureAPITypeTemporal, FeatureAPITypeSpatial, FeatureAPIClientCertificate,
	FeatureAuthBearer, FeatureAuthCustom, FeatureAuthKerberos, FeatureAuthManaged,
	FeatureBolt3, FeatureBolt40, FeatureBolt41, FeatureBolt42, FeatureBolt43, FeatureBolt44,
	FeatureBolt50, FeatureBolt51, FeatureBolt52, FeatureBolt53, FeatureBolt54, FeatureBoltPatchUTC,
	FeatureImpersonation, FeatureTLS11, FeatureTLS12, FeatureTLS13,
	OptAuthorizationExpiredTreatment, OptConnectionReuse, OptEagerTxBegin,
	OptImplicitDefaultArguments, OptMinimalResets, OptPullPipelining,
	ConfHintConnectionRecvTimeout,
	TmpCypherPathAndRelationship, TmpDriverFetchSize, TmpDriverMaxTxRetryTime,
	TmpFastFailingDiscovery, TmpFullSummary, TmpResultKeys, TmpResultList, TmpTransactionClose,
}

// BoltVersionFeature returns the feature an adapter declares to say that its driver speaks the
// given protocol version.
func BoltVersionFeature(major, minor int) Feature {
	return fmt.Sprintf("Feature:Bolt:%d.%d", major, minor)
}
