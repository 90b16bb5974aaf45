// Package config reads the settings of a test run from command-line flags, environment variables
// and an optional rules file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBackendHost    = "127.0.0.1"
	DefaultBackendPort    = 9876
	DefaultStubHost       = "127.0.0.1"
	DefaultBackendTimeout = 10 * time.Second
	DefaultConnectTimeout = 10 * time.Second
)

const (
	keyBackendHost      = "backend-host"
	keyBackendPort      = "backend-port"
	keyDriverName       = "driver-name"
	keyStubHost         = "stub-host"
	keyBackendTimeout   = "backend-timeout"
	keyNoBackendTimeout = "no-backend-timeout"
	keyDebugRequests    = "debug-requests"
	keyConnectTimeout   = "connect-timeout"
	keyRulesFile        = "rules"
)

var envNames = map[string]string{
	keyBackendHost:      "TEST_BACKEND_HOST",
	keyBackendPort:      "TEST_BACKEND_PORT",
	keyDriverName:       "TEST_DRIVER_NAME",
	keyStubHost:         "TEST_STUB_ADDRESS",
	keyNoBackendTimeout: "TEST_DEBUG_NO_BACKEND_TIMEOUT",
	keyDebugRequests:    "TEST_DEBUG_REQRES",
	keyRulesFile:        "TEST_RULES_FILE",
}

type Config struct {
	BackendHost string `mapstructure:"backend-host"`
	BackendPort int    `mapstructure:"backend-port"`
	// DriverName selects the per-driver test id rewrites, skips and error mappings.
	DriverName string `mapstructure:"driver-name"`
	// StubHost is the interface stub servers listen on. Ports are chosen by the tests.
	StubHost         string        `mapstructure:"stub-host"`
	BackendTimeout   time.Duration `mapstructure:"backend-timeout"`
	NoBackendTimeout bool          `mapstructure:"no-backend-timeout"`
	DebugRequests    bool          `mapstructure:"debug-requests"`
	ConnectTimeout   time.Duration `mapstructure:"connect-timeout"`
	RulesFile        string        `mapstructure:"rules"`

	// Rules is read from RulesFile, if one was given.
	Rules Rules `mapstructure:"-"`
}

// RegisterFlags adds the flags that Load understands.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(keyBackendHost, DefaultBackendHost, "host of the driver adapter")
	flags.Int(keyBackendPort, DefaultBackendPort, "port of the driver adapter")
	flags.String(keyDriverName, "", "name of the driver under test, such as go or java")
	flags.String(keyStubHost, DefaultStubHost, "address that stub servers listen on")
	flags.Duration(keyBackendTimeout, DefaultBackendTimeout, "how long to wait for each response from the adapter")
	flags.Bool(keyNoBackendTimeout, false, "wait for adapter responses forever, for debugging the adapter")
	flags.Bool(keyDebugRequests, false, "log every request and response in the test debug output")
	flags.Duration(keyConnectTimeout, DefaultConnectTimeout, "how long to keep trying to reach the adapter")
	flags.String(keyRulesFile, "", "YAML file with extra test id rewrite and skip rules")
}

// Load resolves the configuration. A flag given on the command line wins over the environment,
// which wins over the defaults.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}
	v.SetDefault(keyBackendHost, DefaultBackendHost)
	v.SetDefault(keyBackendPort, DefaultBackendPort)
	v.SetDefault(keyStubHost, DefaultStubHost)
	v.SetDefault(keyBackendTimeout, DefaultBackendTimeout)
	v.SetDefault(keyConnectTimeout, DefaultConnectTimeout)

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if c.BackendPort <= 0 || c.BackendPort > 65535 {
		return nil, fmt.Errorf("invalid adapter port %d", c.BackendPort)
	}
	if c.RulesFile != "" {
		rules, err := LoadRules(c.RulesFile)
		if err != nil {
			return nil, err
		}
		c.Rules = rules
	}
	return c, nil
}

func (c *Config) BackendAddress() string {
	return net.JoinHostPort(c.BackendHost, strconv.Itoa(c.BackendPort))
}

// ChannelTimeout is the read deadline for adapter responses. Zero means none.
func (c *Config) ChannelTimeout() time.Duration {
	if c.NoBackendTimeout {
		return 0
	}
	return c.BackendTimeout
}

// Rules are test id rewrites and skips added on top of the compiled-in ones.
type Rules struct {
	Rewrites []RewriteRule `yaml:"rewrites"`
	Skips    []SkipRule    `yaml:"skips"`
}

// RewriteRule replaces the part of a test id matching Pattern before the id is sent to adapters of
// the listed drivers. No drivers means every driver.
type RewriteRule struct {
	Drivers     []string `yaml:"drivers"`
	Pattern     string   `yaml:"pattern"`
	Replacement string   `yaml:"replacement"`
}

// SkipRule skips the tests whose id matches Pattern when running against the listed drivers.
type SkipRule struct {
	Drivers []string `yaml:"drivers"`
	Pattern string   `yaml:"pattern"`
	Reason  string   `yaml:"reason"`
}

func LoadRules(path string) (Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return Rules{}, fmt.Errorf("cannot read rules file: %w", err)
	}
	defer f.Close()
	var rules Rules
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil {
		return Rules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	if err := rules.validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rules, nil
}

func (r Rules) validate() error {
	for i, rw := range r.Rewrites {
		if err := checkPattern(rw.Pattern); err != nil {
			return fmt.Errorf("rewrite %d: %w", i+1, err)
		}
	}
	for i, s := range r.Skips {
		if err := checkPattern(s.Pattern); err != nil {
			return fmt.Errorf("skip %d: %w", i+1, err)
		}
		if s.Reason == "" {
			return fmt.Errorf("skip %d: reason is required", i+1)
		}
	}
	return nil
}

func checkPattern(p string) error {
	if p == "" {
		return errors.New("pattern is required")
	}
	if _, err := regexp.Compile(p); err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	return nil
}
