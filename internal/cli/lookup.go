package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/openalexbot/internal/doi"
	"github.com/ppiankov/openalexbot/internal/pipeline"
)

var lookupProduction bool

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <doi>",
	Short: "Check whether a DOI is in OpenAlex and the knowledge base",
	Long: `Lookup reports where a single DOI exists without importing it:
exists, importable, source_missing or not_found.

Example:
  openalexbot lookup 10.1038/nature12373
  openalexbot lookup https://doi.org/10.1038/nature12373 --production`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().BoolVar(&lookupProduction, "production", false, "check www.wikidata.org instead of the sandbox")
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("production") {
		cfg.Wikibase.Sandbox = !lookupProduction
	}
	// Lookup never writes
	cfg.Import.Upload = false
	if err := cfg.Validate(); err != nil {
		return err
	}

	if _, err := doi.Normalize(args[0]); err != nil {
		return err
	}

	ctx := context.Background()
	c, err := build(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	outcome, err := c.importer.Lookup(ctx, args[0])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	fmt.Fprintln(os.Stdout, pipeline.FormatOutcome(outcome))
	return nil
}
