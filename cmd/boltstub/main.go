// Command boltstub runs the stub Bolt server on a single script, for trying out scripts by hand.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alessio/shellescape"
	"github.com/spf13/cobra"

	"github.com/launchdarkly/bolt-contract-tests/boltstub"
	"github.com/launchdarkly/bolt-contract-tests/boltstub/script"
)

const (
	exitOK           = 0
	exitFailure      = 1
	exitTimedOut     = 2
	exitNeverStarted = 3
	exitBadScript    = 99
	exitInterrupted  = 130
)

type options struct {
	listenAddr string
	timeout    float64
	verbose    bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts := &options{}
	code := exitOK
	cmd := &cobra.Command{
		Use:   "boltstub [flags] <script>",
		Short: "Run a Bolt stub server",
		Long: `Run a Bolt stub server.

The stub server listens for client connections and plays a pre-scripted exchange with them. Any
deviation from the script results in a non-zero exit code.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code = serve(opts, args[0])
			return nil
		},
	}
	defaultAddr := os.Getenv("BOLT_LISTEN_ADDR")
	if defaultAddr == "" {
		defaultAddr = ":17687"
	}
	cmd.Flags().StringVarP(&opts.listenAddr, "listen-addr", "l", defaultAddr,
		"address to listen on in INTERFACE:PORT format (env BOLT_LISTEN_ADDR)")
	cmd.Flags().Float64VarP(&opts.timeout, "timeout", "t", 30,
		"seconds the server runs before giving up on the script")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "show the client-server exchange")
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadScript
	}
	return code
}

func serve(opts *options, path string) int {
	text, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadScript
	}
	s, err := script.Parse(string(text), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid script %s: %s\n", shellescape.Quote(path), err)
		return exitBadScript
	}

	config := boltstub.Config{}
	if opts.verbose {
		logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
		logger.Printf("boltstub %s", shellescape.QuoteCommand(os.Args[1:]))
		config.Log = logger
	}
	srv, err := boltstub.Start(opts.listenAddr, s, config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadScript
	}
	fmt.Println("Listening")

	interrupts := make(chan os.Signal, 3)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	select {
	case <-srv.Finished():
	case <-time.After(time.Duration(opts.timeout * float64(time.Second))):
	case <-interrupts:
		fmt.Println("1st SIGINT received. Trying to finish all running scripts.")
	}

	result := make(chan error, 1)
	go func() { result <- srv.Done() }()
	select {
	case err = <-result:
	case <-interrupts:
		fmt.Println("2nd SIGINT received. Closing all connections.")
		srv.Reset()
		return exitInterrupted
	}
	if err == nil {
		return exitOK
	}
	var failure *boltstub.ScriptFailure
	if !errors.As(err, &failure) {
		fmt.Printf("Error:\n%s\n", err)
		return exitFailure
	}
	switch failure.Kind {
	case boltstub.FailureNeverStarted:
		fmt.Println("Script never started")
		return exitNeverStarted
	case boltstub.FailureTimeout:
		fmt.Println("Timed out")
		return exitTimedOut
	default:
		fmt.Printf("Script mismatch:\n%s\n", failure)
		return exitFailure
	}
}
