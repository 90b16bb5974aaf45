package servicedef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/bolt-contract-tests/cypher"
)

func TestEncodeRequestUsesTypeName(t *testing.T) {
	data, err := EncodeRequest(SessionRun{
		SessionID: "s1",
		Cypher:    "RETURN $x",
		Params:    cypher.Params{"x": cypher.Int(1 << 40)},
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"name": "SessionRun", "data": {"sessionId": "s1", "cypher": "RETURN $x", "params": {"x": {"Z": "1099511627776"}}, "timeout": null}}`,
		string(data))
}

func TestRetryableNegativeAlwaysCarriesErrorID(t *testing.T) {
	data, err := EncodeRequest(RetryableNegative{SessionID: "s1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "RetryableNegative", "data": {"sessionId": "s1", "errorId": ""}}`, string(data))
}

func TestAuthorizationTokenIsNested(t *testing.T) {
	token := BasicAuth("neo4j", "pass", "")
	data, err := EncodeRequest(NewDriver{URI: "bolt://localhost:9001", AuthorizationToken: &token})
	require.NoError(t, err)

	parsed := ldvalue.Parse(data)
	auth := parsed.GetByKey("data").GetByKey("authorizationToken")
	assert.Equal(t, "AuthorizationToken", auth.GetByKey("name").StringValue())
	assert.Equal(t, "basic", auth.GetByKey("data").GetByKey("scheme").StringValue())
	assert.Equal(t, "neo4j", auth.GetByKey("data").GetByKey("principal").StringValue())

	var back AuthorizationToken
	require.NoError(t, back.UnmarshalJSON([]byte(auth.JSONString())))
	assert.Equal(t, token, back)
}

func TestDecodeResponse(t *testing.T) {
	v, err := DecodeResponse([]byte(`{"name": "Result", "data": {"id": "7", "keys": ["n"]}}`))
	require.NoError(t, err)
	assert.Equal(t, Result{ID: "7", Keys: []string{"n"}}, v)

	v, err = DecodeResponse([]byte(`{"name": "Record", "data": {"values": [{"Z": "9223372036854775807"}, null]}}`))
	require.NoError(t, err)
	assert.Equal(t, Record{Values: cypher.Row{cypher.Int(9223372036854775807), cypher.Null{}}}, v)

	v, err = DecodeResponse([]byte(`{"name": "RunTest", "data": null}`))
	require.NoError(t, err)
	assert.Equal(t, RunTest{}, v)

	v, err = DecodeResponse([]byte(`{"name": "RetryableDone"}`))
	require.NoError(t, err)
	assert.Equal(t, RetryableDone{}, v)
}

func TestDecodeErrorResponsesAsErrors(t *testing.T) {
	v, err := DecodeResponse([]byte(`{"name": "DriverError", "data": {"id": "3", "errorType": "ServiceUnavailable", "msg": "gone", "code": ""}}`))
	require.NoError(t, err)
	driverErr, ok := v.(*DriverError)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, "3", driverErr.ID)
	assert.EqualError(t, driverErr, "DriverError : ServiceUnavailable : gone")

	v, err = DecodeResponse([]byte(`{"name": "BackendError", "data": {"msg": "boom"}}`))
	require.NoError(t, err)
	assert.IsType(t, &BackendError{}, v)

	v, err = DecodeResponse([]byte(`{"name": "FrontendError", "data": {"msg": "from user"}}`))
	require.NoError(t, err)
	assert.EqualError(t, v.(error), "FrontendError : from user")
}

func TestDecodeRejectsUnknownNames(t *testing.T) {
	_, err := DecodeResponse([]byte(`{"name": "NoSuchThing", "data": {}}`))
	assert.Error(t, err)
	_, err = DecodeResponse([]byte(`not json`))
	assert.Error(t, err)
}

func TestBoltVersionFeature(t *testing.T) {
	assert.Equal(t, FeatureBolt44, BoltVersionFeature(4, 4))
	assert.Contains(t, AllFeatures, BoltVersionFeature(5, 1))
}
