package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/launchdarkly/bolt-contract-tests/backend"
	"github.com/launchdarkly/bolt-contract-tests/config"
	"github.com/launchdarkly/bolt-contract-tests/framework"
	"github.com/launchdarkly/bolt-contract-tests/logging"
	"github.com/launchdarkly/bolt-contract-tests/servicedef"
	"github.com/launchdarkly/bolt-contract-tests/testkit"
)

const probeTimeout = time.Second * 2

func main() {
	params := &commandParams{}
	ok := true
	cmd := &cobra.Command{
		Use:   "bolt-contract-tests",
		Short: "Run the Bolt driver test suite against a driver adapter",
		Long: `Run the Bolt driver test suite against a driver adapter.

The adapter must already be listening. Every test opens its own connection to it, and tests that
need a server get a stub Bolt server started on the stub host.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			ok = run(cfg, params)
			return nil
		},
	}
	params.register(cmd.Flags())
	config.RegisterFlags(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %s\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func run(cfg *config.Config, params *commandParams) bool {
	mainDebugLogger := logging.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	address := cfg.BackendAddress()
	probe := func() ([]string, error) {
		ch, err := backend.Dial(address, backend.Config{Timeout: probeTimeout, ConnectTimeout: probeTimeout}, mainDebugLogger)
		if err != nil {
			return nil, err
		}
		defer ch.Close()
		return ch.GetFeatures()
	}
	info, err := framework.QueryTestServiceInfo(cfg.DriverName, address, probe, cfg.ConnectTimeout, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Driver adapter error: %s\n", err)
		return false
	}
	harness := framework.NewTestHarness(info, mainDebugLogger)

	rules, err := testkit.NewRules(cfg.Rules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid rules: %s\n", err)
		return false
	}

	fmt.Println()
	framework.PrintFilterDescription(harness, params.filters, servicedef.AllFeatures, os.Stdout)

	fmt.Println("Running test suite")

	testLogger := newConsoleTestLogger(params.debug || params.debugAll, params.debugAll)
	results, err := testkit.RunTestSuite(testkit.Environment{
		Harness:        harness,
		BackendAddress: address,
		Channel: backend.Config{
			Timeout:        cfg.ChannelTimeout(),
			ConnectTimeout: cfg.ConnectTimeout,
			LogRequests:    cfg.DebugRequests,
		},
		StubHost: cfg.StubHost,
		Rules:    rules,
	}, params.filters.AsFilter, testLogger)

	fmt.Println()
	framework.PrintResults(results, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Test run stopped early: %s\n", err)
	}
	if !results.OK() {
		printRerunCommand(results)
		return false
	}
	return err == nil
}

// printRerunCommand shows how to run only the tests that failed.
func printRerunCommand(results framework.Results) {
	var ids []string
	for _, f := range results.Failures {
		ids = append(ids, regexp.QuoteMeta(f.TestID.String()))
	}
	var cmd commandBuilder
	cmd.add(os.Args[0])
	cmd.addFailedTests(ids)
	fmt.Println()
	fmt.Println("To run only the failed tests:")
	fmt.Printf("  %s\n", cmd)
}
