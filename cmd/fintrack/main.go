package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

const usage = `Usage: fintrack <command> [flags]

Commands:
  add      record an income or expense entry
  list     print all entries in the order they were recorded
  totals   print total income, total expenses and net income
  summary  print the entries and totals of one month
  export   write the ledger to an Excel workbook
  serve    run the JSON API
`

// errUsage is returned for an unknown or missing command.
var errUsage = errors.New("invalid usage")

func main() {
	cli.LoadEnvFile()

	ctx, stop := cli.GracefulShutdown(context.Background())
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	a := &app{
		cfg:    cfg,
		logger: cli.SetupLogger(cfg.LogLevel, log.ComponentCLI, stderr),
		stdout: stdout,
		stderr: stderr,
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		return a.add(ctx, rest)
	case "list":
		return a.list(ctx, rest)
	case "totals":
		return a.totals(ctx, rest)
	case "summary":
		return a.summary(ctx, rest)
	case "export":
		return a.export(ctx, rest)
	case "serve":
		return a.serve(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}

// openService builds the ledger service from configuration. The caller
// must run the returned cleanup.
func (a *app) openService(ctx context.Context) (*backend.ServiceResult, error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(a.logger).OpenService(ctx, bcfg)
}
