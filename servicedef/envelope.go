// Package servicedef defines the messages exchanged with a driver adapter. Every message travels as
// a JSON object {"name": ..., "data": ...} where the name is the Go type name of the struct below.
package servicedef

import (
	"encoding/json"
	"fmt"
	"reflect"
)

type Message struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// MessageName returns the wire name of a request or response value.
func MessageName(v interface{}) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EncodeRequest renders a request as a single line of JSON.
func EncodeRequest(req interface{}) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %s: %w", MessageName(req), err)
	}
	return json.Marshal(Message{Name: MessageName(req), Data: data})
}

var responseTypes = map[string]reflect.Type{}

func registerResponses(values ...interface{}) {
	for _, v := range values {
		t := reflect.TypeOf(v)
		responseTypes[t.Name()] = t
	}
}

func init() {
	registerResponses(
		Driver{}, Session{}, Transaction{}, Result{}, EagerResult{},
		Record{}, NullRecord{}, RecordOptional{}, RecordList{}, Summary{},
		Bookmarks{}, RetryableTry{}, RetryableDone{}, RetryFunc{},
		ResolverResolutionRequired{}, DomainNameResolutionRequired{},
		AuthTokenManager{}, AuthTokenManagerGetAuthRequest{}, AuthTokenManagerHandleSecurityExceptionRequest{},
		BasicAuthTokenManager{}, BasicAuthTokenProviderRequest{},
		BearerAuthTokenManager{}, BearerAuthTokenProviderRequest{},
		AuthTokenProvider{}, AuthTokenProviderRequest{},
		ClientCertificateProvider{}, ClientCertificateProviderRequest{},
		BookmarkManager{}, BookmarksSupplierRequest{}, BookmarksConsumerRequest{},
		FakeTimeAck{}, FeatureList{}, RunTest{}, SkipTest{},
		MultiDBSupport{}, DriverIsEncrypted{}, ServerInfo{}, RoutingTable{}, ConnectionPoolMetrics{},
		DriverError{}, FrontendError{}, BackendError{},
	)
}

// DecodeResponse parses a message received from the adapter into its struct. Error kinds are
// returned as pointers, so that the result can be used as an error.
func DecodeResponse(line []byte) (interface{}, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	t, ok := responseTypes[msg.Name]
	if !ok {
		return nil, fmt.Errorf("unknown message name %q", msg.Name)
	}
	p := reflect.New(t)
	data := msg.Data
	if len(data) == 0 {
		data = []byte("null")
	}
	if err := json.Unmarshal(data, p.Interface()); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", msg.Name, err)
	}
	if _, isErr := p.Interface().(error); isErr {
		return p.Interface(), nil
	}
	return p.Elem().Interface(), nil
}

// named wraps a value in its own name/data envelope, the way auth tokens and certificates are
// nested inside other messages.
type named struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

func marshalNamed(name string, v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(named{Name: name, Data: data})
}

func unmarshalNamed(name string, raw []byte, v interface{}) error {
	var n named
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	if n.Name != name {
		return fmt.Errorf("expected %s but got %q", name, n.Name)
	}
	return json.Unmarshal(n.Data, v)
}
