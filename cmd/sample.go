package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/leadio"
)

var sampleOutput string

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a sample contact CSV",
	Long:  "Writes a small contact file with the expected column headers, useful as a template for new input files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := sampleOutput
		if path == "" {
			path = filepath.Join(cfg.Enrich.InputDir, "sample_contacts.csv")
		}
		if err := leadio.WriteSample(path); err != nil {
			return eris.Wrap(err, "write sample")
		}
		zap.L().Info("sample file written", zap.String("path", path))
		return nil
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleOutput, "output", "", "sample file path")
	rootCmd.AddCommand(sampleCmd)
}
