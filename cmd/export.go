package main

import (
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/leadio"
	notionpkg "github.com/sells-group/leadgen-cli/pkg/notion"
	sfpkg "github.com/sells-group/leadgen-cli/pkg/salesforce"
)

var exportTarget string

var exportCmd = &cobra.Command{
	Use:   "export <leads.csv>",
	Short: "Push enriched leads to Notion or Salesforce",
	Long:  "Reads an enriched lead CSV and exports each lead to the chosen destination. Notion exports are deduplicated by email; Salesforce inserts use the collection API.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		leads, err := leadio.ReadLeads(args[0])
		if err != nil {
			return eris.Wrap(err, "read leads")
		}
		if len(leads) == 0 {
			zap.L().Warn("no leads to export", zap.String("file", args[0]))
			return nil
		}

		switch exportTarget {
		case "notion":
			if cfg.Notion.Token == "" || cfg.Notion.LeadDB == "" {
				return eris.New("notion token and lead database ID are required (LEADGEN_NOTION_TOKEN, LEADGEN_NOTION_LEAD_DB)")
			}
			client := notionpkg.NewClient(cfg.Notion.Token)
			res, err := notionpkg.ExportLeads(ctx, client, cfg.Notion.LeadDB, leads)
			if err != nil {
				return eris.Wrap(err, "export to notion")
			}
			zap.L().Info("notion export complete",
				zap.Int("created", res.Created),
				zap.Int("skipped", res.Skipped),
			)
		case "salesforce":
			client, err := initSalesforce()
			if err != nil {
				return err
			}
			res, err := sfpkg.ExportLeads(ctx, client, leads)
			if err != nil {
				return eris.Wrap(err, "export to salesforce")
			}
			zap.L().Info("salesforce export complete",
				zap.Int("created", res.Created),
				zap.Int("skipped", res.Skipped),
				zap.Int("failed", res.Failed),
			)
		default:
			return eris.Errorf("unknown export target %q (want notion or salesforce)", exportTarget)
		}
		return nil
	},
}

// initSalesforce authenticates against Salesforce via the JWT bearer flow.
func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADGEN_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

func init() {
	exportCmd.Flags().StringVar(&exportTarget, "to", "notion", "export destination: notion or salesforce")
	rootCmd.AddCommand(exportCmd)
}
