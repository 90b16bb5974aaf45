package main

import (
	"strings"

	"github.com/alessio/shellescape"
	"github.com/spf13/pflag"

	"github.com/launchdarkly/bolt-contract-tests/framework"
)

type commandParams struct {
	filters  framework.RegexFilters
	debug    bool
	debugAll bool
}

func (c *commandParams) register(flags *pflag.FlagSet) {
	flags.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	flags.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	flags.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	flags.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

// addFailedTests adds a --run pattern that matches exactly the given escaped test ids.
func (b *commandBuilder) addFailedTests(ids []string) {
	if len(ids) == 0 {
		return
	}
	b.add("--run", "^("+strings.Join(ids, "|")+")$")
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
