package testkit

import (
	"strings"

	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// ErrorMatcher says which driver errors belong to a category for one driver. An error matches if
// its errorType contains one of Types, or its server code starts with one of CodePrefixes.
type ErrorMatcher struct {
	Types        []string
	CodePrefixes []string
}

func (m ErrorMatcher) matches(e *servicedef.DriverError) bool {
	for _, t := range m.Types {
		if strings.Contains(e.ErrorType, t) {
			return true
		}
	}
	for _, p := range m.CodePrefixes {
		if e.Code != "" && strings.HasPrefix(e.Code, p) {
			return true
		}
	}
	return false
}

// ErrorMapping maps each error category to the matcher for each driver. Drivers that have no
// entry for a category fall back to the category's generic name.
type ErrorMapping map[servicedef.ErrorCategory]map[string]ErrorMatcher

var genericErrorNames = map[servicedef.ErrorCategory]string{
	servicedef.ErrServiceUnavailable:    "ServiceUnavailable",
	servicedef.ErrSessionExpired:        "SessionExpired",
	servicedef.ErrNotLeader:             "NotALeader",
	servicedef.ErrForbiddenOnReadOnly:   "ForbiddenOnReadOnlyDatabase",
	servicedef.ErrClientError:           "ClientError",
	servicedef.ErrFatalDiscovery:        "FatalDiscovery",
	servicedef.ErrSecurity:              "Security",
	servicedef.ErrTokenExpired:          "TokenExpired",
	servicedef.ErrIllegalState:          "IllegalState",
	servicedef.ErrTransient:             "Transient",
	servicedef.ErrNotSingle:             "NoSuchRecord",
	servicedef.ErrInvalidConfiguration:  "Configuration",
	servicedef.ErrConnectionReadTimeout: "ConnectionReadTimeout",
	servicedef.ErrIncompleteCommit:      "IncompleteCommit",
	servicedef.ErrConnectivity:          "ConnectivityError",
	servicedef.ErrResultConsumed:        "ResultConsumed",
	servicedef.ErrIllegalArgument:       "IllegalArgument",
	servicedef.ErrProtocol:              "Protocol",
	servicedef.ErrTransaction:           "Transaction",
	servicedef.ErrManagedTransaction:    "ManagedTransaction",
	servicedef.ErrUntrustedServer:       "UntrustedServer",
}

func DefaultErrorMapping() ErrorMapping {
	return ErrorMapping{
		servicedef.ErrServiceUnavailable: {
			"java":       {Types: []string{"org.neo4j.driver.exceptions.ServiceUnavailableException"}},
			"python":     {Types: []string{"<class 'neo4j.exceptions.ServiceUnavailable'>"}},
			"ruby":       {Types: []string{"Neo4j::Driver::Exceptions::ServiceUnavailableException"}},
			"dotnet":     {Types: []string{"ServiceUnavailableError"}},
			"go":         {Types: []string{"ConnectivityError", "ServiceUnavailable"}},
			"javascript": {Types: []string{"ServiceUnavailable"}},
		},
		servicedef.ErrSessionExpired: {
			"java":   {Types: []string{"org.neo4j.driver.exceptions.SessionExpiredException"}},
			"python": {Types: []string{"<class 'neo4j.exceptions.SessionExpired'>"}},
			"ruby":   {Types: []string{"Neo4j::Driver::Exceptions::SessionExpiredException"}},
		},
		servicedef.ErrClientError: {
			"java":   {Types: []string{"org.neo4j.driver.exceptions.ClientException"}},
			"python": {Types: []string{"<class 'neo4j.exceptions.ClientError'>"}},
			"ruby":   {Types: []string{"Neo4j::Driver::Exceptions::ClientException"}},
		},
		servicedef.ErrTransient: {
			"java":   {Types: []string{"org.neo4j.driver.exceptions.TransientException"}, CodePrefixes: []string{"Neo.TransientError."}},
			"python": {Types: []string{"<class 'neo4j.exceptions.TransientError'>"}, CodePrefixes: []string{"Neo.TransientError."}},
			"go":     {CodePrefixes: []string{"Neo.TransientError."}},
		},
		servicedef.ErrSecurity: {
			"java":   {Types: []string{"org.neo4j.driver.exceptions.SecurityException"}},
			"python": {Types: []string{"<class 'neo4j.exceptions.Forbidden'>", "<class 'neo4j.exceptions.AuthError'>"}},
			"go":     {CodePrefixes: []string{"Neo.ClientError.Security."}},
		},
		servicedef.ErrTokenExpired: {
			"java":   {Types: []string{"org.neo4j.driver.exceptions.TokenExpiredException"}},
			"python": {Types: []string{"<class 'neo4j.exceptions.TokenExpired'>"}},
			"go":     {CodePrefixes: []string{"Neo.ClientError.Security.TokenExpired"}},
		},
		servicedef.ErrIncompleteCommit: {
			"python": {Types: []string{"<class 'neo4j.exceptions.IncompleteCommit'>"}},
			"java":   {Types: []string{"org.neo4j.driver.exceptions.ServiceUnavailableException"}},
		},
		servicedef.ErrResultConsumed: {
			"java":   {Types: []string{"org.neo4j.driver.exceptions.ResultConsumedException"}},
			"python": {Types: []string{"<class 'neo4j.exceptions.ResultConsumedError'>"}},
			"go":     {Types: []string{"ResultConsumed", "UsageError"}},
		},
		servicedef.ErrConnectivity: {
			"go": {Types: []string{"ConnectivityError"}},
		},
	}
}

// Matcher returns the matcher used for driver and category.
func (m ErrorMapping) Matcher(driver string, category servicedef.ErrorCategory) ErrorMatcher {
	if byDriver, ok := m[category]; ok {
		if matcher, ok := byDriver[driver]; ok {
			return matcher
		}
	}
	if name, ok := genericErrorNames[category]; ok {
		return ErrorMatcher{Types: []string{name}}
	}
	return ErrorMatcher{Types: []string{string(category)}}
}

// Matches reports whether e is an error of the given category for driver.
func (m ErrorMapping) Matches(driver string, category servicedef.ErrorCategory, e *servicedef.DriverError) bool {
	return e != nil && m.Matcher(driver, category).matches(e)
}
