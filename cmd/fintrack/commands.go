package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/export"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	var in services.RecordInput
	fs.StringVar(&in.Kind, "kind", "", "income or expense")
	fs.StringVar(&in.Amount, "amount", "", "positive amount, e.g. 12.50")
	fs.StringVar(&in.Category, "category", "", "free-text category")
	fs.StringVar(&in.Date, "date", "", "date as YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	if _, err := res.Service.Record(ctx, in); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Data has been successfully added!")
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	if err := a.flagSet("list").Parse(args); err != nil {
		return errUsage
	}
	res, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	a.writeEntries(res.Service.Entries())
	return nil
}

func (a *app) writeEntries(entries []core.Entry) {
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Type\tAmount\tCategory\tDate")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Kind, core.FormatAmount(e.Amount), e.Category, e.Date)
	}
	tw.Flush()
}

func (a *app) writeTotals(t core.Totals) {
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total Income:\t%s\n", core.FormatAmount(t.Income))
	fmt.Fprintf(tw, "Total Expenses:\t%s\n", core.FormatAmount(t.Expenses))
	fmt.Fprintf(tw, "Net Income:\t%s\n", core.FormatAmount(t.Net))
	tw.Flush()
}

func (a *app) totals(ctx context.Context, args []string) error {
	if err := a.flagSet("totals").Parse(args); err != nil {
		return errUsage
	}
	res, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	a.writeTotals(res.Service.Totals())
	return nil
}

func (a *app) summary(ctx context.Context, args []string) error {
	now := time.Now()
	fs := a.flagSet("summary")
	year := fs.Int("year", now.Year(), "calendar year")
	month := fs.Int("month", int(now.Month()), "month 1-12")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	sum, err := res.Service.MonthSummary(*year, *month)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, sum.Label)
	if len(sum.Entries) == 0 {
		fmt.Fprintln(a.stdout, "No entries recorded.")
	} else {
		a.writeEntries(sum.Entries)
	}
	fmt.Fprintln(a.stdout)
	a.writeTotals(sum.Totals)
	fmt.Fprintf(a.stdout, "Income %s%% / Expenses %s%%\n",
		sum.IncomeShare.StringFixed(1), sum.ExpenseShare.StringFixed(1))
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.flagSet("export")
	out := fs.String("o", "financial_data.xlsx", "output workbook path")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	entries := res.Service.Entries()
	if err := export.WriteWorkbook(f, entries, res.Service.Totals()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}

	a.logger.Info("Workbook exported", log.FieldOperation, log.OpExport, log.FieldCount, len(entries), "path", *out)
	fmt.Fprintf(a.stdout, "Exported %d entries to %s\n", len(entries), *out)
	return nil
}

func (a *app) serve(ctx context.Context, args []string) error {
	fs := a.flagSet("serve")
	port := fs.String("port", a.cfg.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	srv := apphttp.NewServer(":"+*port, res.Service, apphttp.Options{
		CacheSize: a.cfg.SummaryCacheSize,
		CacheTTL:  a.cfg.SummaryCacheTTL,
		Logger:    a.logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting fintrack server", "port", *port, "backend", a.cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
