package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show enrichment API account status",
	Long:  "Authenticates against the enrichment API and prints plan and credit usage as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newZoomInfoClient()
		if client == nil {
			return eris.New("no enrichment credentials configured")
		}

		acct, err := client.Account(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "fetch account")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(acct)
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
}
