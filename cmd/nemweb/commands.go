package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/nemweb/internal/archive"
	"github.com/JonMunkholm/nemweb/internal/config"
	"github.com/JonMunkholm/nemweb/internal/mms"
	"github.com/JonMunkholm/nemweb/internal/mms/tables"
	"github.com/JonMunkholm/nemweb/internal/web"
)

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	poll := fs.Bool("poll", false, "sweep NEMWEB_REPORT_PATHS every NEMWEB_POLL_INTERVAL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	server := web.NewServer(a.service, a.metrics, web.Options{
		Addr:           cfg.Server.Addr(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUpload:      cfg.Server.MaxUpload,
		TrustedProxies: cfg.Server.TrustedProxies,
		APIKeys:        cfg.Server.APIKeys,
	})

	if *poll {
		go a.service.StartPoller(ctx, cfg.Nemweb.ReportPaths, cfg.Nemweb.PollInterval)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := a.service.Limiter().Status(); status.Active > 0 {
		slog.Info("waiting for parses to complete", "active", status.Active)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// parseOutput is one line of `nemweb parse` output.
type parseOutput struct {
	*mms.Collection
	Counts  map[mms.RecordKind]int `json:"counts"`
	Records []recordLine           `json:"records,omitempty"`
}

type recordLine struct {
	Kind   mms.RecordKind `json:"kind"`
	Record mms.Record     `json:"record"`
}

func runParse(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	records := fs.Bool("records", false, "include decoded records in the output")
	strict := fs.Bool("strict", cfg.Parse.Strict, "abort a file on its first bad row")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("parse: no files given")
	}

	cfg.Parse.Strict = *strict
	agg, err := newAggregator(cfg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	var failed int
	for _, name := range fs.Args() {
		entries, err := readEntries(name)
		if err != nil {
			return err
		}

		col := agg.Aggregate(ctx, filepath.Base(name), entries)
		out := parseOutput{Collection: col, Counts: col.CountByKind()}
		if *records {
			out.Records = make([]recordLine, len(col.Records))
			for i, rec := range col.Records {
				out.Records[i] = recordLine{Kind: rec.Kind(), Record: rec}
			}
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
		if col.AllFailed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be parsed", failed, fs.NArg())
	}
	return nil
}

// readEntries loads a zip archive, or a bare report file as a single entry.
func readEntries(name string) ([]mms.Entry, error) {
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		return archive.ReadFile(name)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return []mms.Entry{{Name: filepath.Base(name), Data: data}}, nil
}

func runFetch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = cfg.Nemweb.ReportPaths
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	enc := json.NewEncoder(os.Stdout)
	var errs []error
	for _, dir := range dirs {
		sum, err := a.service.IngestDirectory(ctx, dir)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		if err := enc.Encode(sum); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

func runSchemas(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("schemas", flag.ContinueOnError)
	key := fs.String("key", "", "show the columns of one dataset, e.g. TRADING,PRICE,3")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := tables.Registry()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if *key != "" {
		k, err := mms.ParseSchemaKey(*key)
		if err != nil {
			return err
		}
		s, ok := reg.Lookup(k)
		if !ok {
			return fmt.Errorf("no schema registered for %s", k)
		}
		fmt.Fprintln(tw, "COLUMN\tTYPE")
		for _, f := range s.Fields {
			fmt.Fprintf(tw, "%s\t%s\n", f.Name, f.Type)
		}
		return tw.Flush()
	}

	fmt.Fprintln(tw, "KEY\tKIND\tFIELDS\tDESCRIPTION")
	for _, s := range reg.Schemas() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Key, s.Kind, len(s.Fields), s.Description)
	}
	return tw.Flush()
}
