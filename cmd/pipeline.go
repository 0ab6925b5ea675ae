package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/leadio"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/qualify"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/zoominfo"
)

// newZoomInfoClient builds the enrichment API client from config. Returns nil
// when no credentials are configured, which puts the pipeline in dry-run mode.
func newZoomInfoClient() zoominfo.Client {
	zi := cfg.ZoomInfo
	if zi.APIKey == "" && zi.Username == "" {
		return nil
	}
	opts := []zoominfo.Option{zoominfo.WithRateLimit(zi.RatePerSecond)}
	if zi.BaseURL != "" {
		opts = append(opts, zoominfo.WithBaseURL(zi.BaseURL))
	}
	return zoominfo.NewClient(zoominfo.Credentials{
		APIKey:   zi.APIKey,
		Username: zi.Username,
		Password: zi.Password,
	}, opts...)
}

// orchestratorOptions maps config to enrichment loop options.
func orchestratorOptions() enrich.Options {
	e := cfg.Enrich
	return enrich.Options{
		BatchSize:   e.BatchSize,
		RetryLimit:  e.RetryLimit,
		BatchDelay:  time.Duration(e.BatchDelayMs) * time.Millisecond,
		PacingDelay: time.Duration(e.PacingDelayMs) * time.Millisecond,
	}
}

// initStore opens the configured persistence backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, cfg.Store.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// fileProcessor runs the full enrichment pipeline for one input file.
type fileProcessor struct {
	orch      *enrich.Orchestrator
	companies *enrich.CompanyEnricher
	qualifier *qualify.Qualifier
	st        store.Store
	outputDir string
	force     bool
}

// Process reads one contact file, enriches it, and writes the lead and error
// reports. Files whose output already exists are skipped unless force is set.
// A non-nil error means the run was aborted (for example loss of API auth);
// results written before the abort stay on disk.
func (p *fileProcessor) Process(ctx context.Context, path string) (model.FileResult, error) {
	result := model.FileResult{File: filepath.Base(path)}

	outPath := leadio.OutputPath(p.outputDir, path)
	if !p.force {
		if _, err := os.Stat(outPath); err == nil {
			zap.L().Info("output exists, skipping file",
				zap.String("file", path),
				zap.String("output", outPath),
			)
			result.Skipped = true
			result.OutputPath = outPath
			return result, nil
		}
	}

	contacts, err := leadio.ReadContacts(path)
	if err != nil {
		return result, eris.Wrap(err, "read contacts")
	}
	if len(contacts) == 0 {
		zap.L().Warn("no contacts in file", zap.String("file", path))
		return result, nil
	}

	if p.companies != nil {
		contacts = p.companies.Enrich(ctx, contacts)
	}

	if p.qualifier != nil {
		var kept []model.Contact
		for _, c := range contacts {
			c = p.qualifier.Qualify(c)
			if c.Qualification.Qualified {
				kept = append(kept, c)
			}
		}
		zap.L().Info("qualification filter applied",
			zap.String("file", path),
			zap.Int("in", len(contacts)),
			zap.Int("qualified", len(kept)),
		)
		contacts = kept
	}

	leads, errRecords, runErr := p.orch.Run(ctx, contacts)

	if err := leadio.WriteLeads(outPath, leads); err != nil {
		return result, eris.Wrap(err, "write leads")
	}
	result.Processed = len(leads)
	result.OutputPath = outPath

	if len(errRecords) > 0 {
		errPath := leadio.ErrorPath(p.outputDir, path)
		if err := leadio.WriteErrors(errPath, errRecords); err != nil {
			return result, eris.Wrap(err, "write errors")
		}
		result.Errors = len(errRecords)
		result.ErrorPath = errPath
	}

	if p.st != nil {
		if err := store.SaveRun(ctx, p.st, leads, errRecords); err != nil {
			zap.L().Error("persist run failed", zap.String("file", path), zap.Error(err))
		}
	}

	zap.L().Info("file processed",
		zap.String("file", path),
		zap.Int("leads", len(leads)),
		zap.Int("errors", len(errRecords)),
	)
	return result, runErr
}

// processFiles runs each input file through proc with at most workers files in
// flight. A failure in one file is recorded on that file's summary row and does
// not stop the others; only loss of API authentication aborts the remaining
// files, since every sibling would hit the same dead channel.
func processFiles(ctx context.Context, proc *fileProcessor, files []string, workers int) ([]model.FileResult, error) {
	var (
		mu      sync.Mutex
		results []model.FileResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, file := range files {
		g.Go(func() error {
			res, err := proc.Process(gctx, file)
			if err != nil && !errors.Is(err, zoominfo.ErrNotAuthenticated) {
				zap.L().Error("file processing failed",
					zap.String("file", file),
					zap.Error(err),
				)
				res.Error = err.Error()
				err = nil
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return err
		})
	}
	return results, g.Wait()
}

// collectInputFiles expands a path argument into the list of contact files to
// process. A directory yields its CSV and XLSX files in sorted order; an empty
// argument falls back to the configured input directory.
func collectInputFiles(arg string) ([]string, error) {
	if arg == "" {
		arg = cfg.Enrich.InputDir
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, eris.Wrap(err, "stat input path")
	}
	if !info.IsDir() {
		return []string{arg}, nil
	}

	entries, err := os.ReadDir(arg)
	if err != nil {
		return nil, eris.Wrap(err, "read input dir")
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx":
			files = append(files, filepath.Join(arg, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, eris.Errorf("no CSV or XLSX files in %s", arg)
	}
	return files, nil
}
