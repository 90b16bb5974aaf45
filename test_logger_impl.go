package main

import (
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/launchdarkly/bolt-contract-tests/framework"
	"github.com/launchdarkly/bolt-contract-tests/logging"
)

type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
	out                  io.Writer
	failedColor          *color.Color
	skippedColor         *color.Color
}

func newConsoleTestLogger(onFailure, onSuccess bool) *ConsoleTestLogger {
	return &ConsoleTestLogger{
		DebugOutputOnFailure: onFailure,
		DebugOutputOnSuccess: onSuccess,
		out:                  color.Output,
		failedColor:          color.New(color.FgRed, color.Bold),
		skippedColor:         color.New(color.FgYellow),
	}
}

func (c *ConsoleTestLogger) TestStarted(id framework.TestID) {
	color.New(color.FgCyan).Fprintf(c.out, "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id framework.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		c.failedColor.Fprintf(c.out, "  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id framework.TestID, failed bool, debugOutput logging.CapturedOutput) {
	if failed {
		c.failedColor.Fprintf(c.out, "  FAILED: %s\n", id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.out, "    DEBUG ")
	}
}

func (c *ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	if reason == "" {
		c.skippedColor.Fprintf(c.out, "  SKIPPED: %s\n", id)
	} else {
		c.skippedColor.Fprintf(c.out, "  SKIPPED: %s (%s)\n", id, reason)
	}
}
