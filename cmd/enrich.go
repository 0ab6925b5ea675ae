package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/leadio"
	"github.com/sells-group/leadgen-cli/internal/qualify"
)

var (
	enrichInput     string
	enrichOutput    string
	enrichForce     bool
	enrichCompanies bool
	enrichQualify   bool
	enrichSave      bool
	enrichWorkers   int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [path]",
	Short: "Enrich contact files and write lead reports",
	Long:  "Processes one contact file, or every CSV/XLSX file in a directory, through bulk person enrichment. Writes an enriched lead CSV and an error CSV per input file, plus a run summary.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var arg string
		if len(args) == 1 {
			arg = args[0]
		} else {
			arg = enrichInput
		}
		files, err := collectInputFiles(arg)
		if err != nil {
			return err
		}

		outputDir := enrichOutput
		if outputDir == "" {
			outputDir = cfg.Enrich.OutputDir
		}

		client := newZoomInfoClient()
		if client == nil {
			zap.L().Warn("no enrichment credentials configured, running in dry-run mode")
		}

		proc := &fileProcessor{
			orch:      enrich.New(client, orchestratorOptions()),
			outputDir: outputDir,
			force:     enrichForce,
		}
		if enrichCompanies && client != nil {
			proc.companies = enrich.NewCompanyEnricher(client)
		}
		if enrichQualify {
			proc.qualifier = qualify.New(cfg.Qualify)
		}
		if enrichSave {
			st, err := initStore(ctx)
			if err != nil {
				return eris.Wrap(err, "init store")
			}
			defer st.Close()
			proc.st = st
		}

		workers := enrichWorkers
		if workers <= 0 {
			workers = cfg.Enrich.MaxWorkers
		}

		results, runErr := processFiles(ctx, proc, files, workers)

		var totalLeads, totalErrors, skipped, failed int
		for _, r := range results {
			totalLeads += r.Processed
			totalErrors += r.Errors
			if r.Skipped {
				skipped++
			}
			if r.Error != "" {
				failed++
			}
		}

		if err := leadio.WriteSummary(filepath.Join(outputDir, "enrichment_summary.csv"), results); err != nil {
			zap.L().Error("write summary failed", zap.Error(err))
		}

		zap.L().Info("enrichment run complete",
			zap.Int("files", len(files)),
			zap.Int("skipped", skipped),
			zap.Int("failed", failed),
			zap.Int("leads", totalLeads),
			zap.Int("errors", totalErrors),
		)
		if runErr != nil {
			return eris.Wrap(runErr, "enrichment run")
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "input file or directory (default from config)")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "", "output directory (default from config)")
	enrichCmd.Flags().BoolVar(&enrichForce, "force", false, "reprocess files whose output already exists")
	enrichCmd.Flags().BoolVar(&enrichCompanies, "companies", false, "run best-effort company lookup before person enrichment")
	enrichCmd.Flags().BoolVar(&enrichQualify, "qualify", false, "pre-filter: drop unqualified contacts before enrichment; scoring sees input fields only and dropped contacts appear in no output")
	enrichCmd.Flags().BoolVar(&enrichSave, "save", false, "persist leads and errors to the configured store")
	enrichCmd.Flags().IntVar(&enrichWorkers, "workers", 0, "max files processed concurrently (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
