package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/ignite/internal/app"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/aussiebroadwan/ignite/pkg/slogx"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}

// run executes one CLI invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ignite", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showMetrics := fs.Bool("metrics", false, "print client metrics to stderr after the command")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(fs, stderr)
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(fs, stderr)
		return 2
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return 1
	}

	application, err := app.New(ctx, cfg, app.WithLogOutput(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize application: %v\n", err)
		return 1
	}
	defer application.Close()

	ctx = slogx.WithCommand(slogx.WithContext(ctx, application.Logger()), name)
	logger := slogx.FromContext(ctx)

	err = cmd.run(ctx, &env{app: application, out: stdout}, fs.Args()[1:])

	if *showMetrics {
		if metricsErr := application.WriteMetrics(stderr); metricsErr != nil {
			logger.Error("write metrics", "error", metricsErr)
		}
	}

	if err == nil {
		return 0
	}

	var uerr usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "%s: %v\nusage: ignite %s %s\n", name, uerr.err, name, cmd.usage)
		return 2
	}

	logger.Debug("command failed", "error", err)
	fmt.Fprintln(stderr, message(err))
	return 1
}

// message is the text shown for a failed command. Server messages are shown
// verbatim, anything else gets the generic message.
func message(err error) string {
	switch {
	case errors.Is(err, errNotSignedIn):
		return err.Error()
	case errors.Is(err, ignitesdk.ErrUnauthenticated):
		return "session expired, run `ignite signin` again"
	}
	return ignitesdk.UserMessage(err, ignitesdk.DefaultErrorMessage)
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: ignite [-metrics] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fs.PrintDefaults()
}
