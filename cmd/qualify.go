package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/leadio"
	"github.com/sells-group/leadgen-cli/internal/qualify"
)

var (
	qualifyCriteriaPath string
	qualifyOutput       string
)

var qualifyCmd = &cobra.Command{
	Use:   "qualify <file>",
	Short: "Score contacts against qualification criteria",
	Long:  "Reads a contact file, scores each contact against the configured criteria, and writes a CSV with per-contact scores, reasons, and the qualified verdict.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		crit := cfg.Qualify
		if qualifyCriteriaPath != "" {
			loaded, err := qualify.LoadCriteria(qualifyCriteriaPath)
			if err != nil {
				return eris.Wrap(err, "load criteria")
			}
			crit = loaded
		}

		contacts, err := leadio.ReadContacts(args[0])
		if err != nil {
			return eris.Wrap(err, "read contacts")
		}

		q := qualify.New(crit)
		qualified := 0
		for i, c := range contacts {
			contacts[i] = q.Qualify(c)
			if contacts[i].Qualification.Qualified {
				qualified++
			}
		}

		outPath := qualifyOutput
		if outPath == "" {
			outPath = filepath.Join(cfg.Enrich.OutputDir, "qualified_"+filepath.Base(args[0]))
		}
		if err := leadio.WriteQualified(outPath, contacts); err != nil {
			return eris.Wrap(err, "write qualified")
		}

		zap.L().Info("qualification complete",
			zap.String("file", args[0]),
			zap.Int("contacts", len(contacts)),
			zap.Int("qualified", qualified),
			zap.String("output", outPath),
		)
		return nil
	},
}

func init() {
	qualifyCmd.Flags().StringVar(&qualifyCriteriaPath, "criteria", "", "YAML criteria file (default from config)")
	qualifyCmd.Flags().StringVar(&qualifyOutput, "output", "", "output CSV path")
	rootCmd.AddCommand(qualifyCmd)
}
