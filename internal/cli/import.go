package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/openalexbot/internal/doi"
	"github.com/ppiankov/openalexbot/internal/ingest"
	"github.com/ppiankov/openalexbot/internal/model"
	"github.com/ppiankov/openalexbot/internal/pipeline"
)

var importFlags struct {
	upload          bool
	production      bool
	pause           time.Duration
	venuePolicy     string
	detector        string
	outJSON         string
	outMD           string
	metricsTextfile string
	noCache         bool
	noFooter        bool
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file|doi>",
	Short: "Import every DOI from a CSV or XLSX file, or a single DOI",
	Long: `Import reads the "doi" column of a .csv or .xlsx file and creates one
knowledge-base item per DOI that is not there yet. An argument that is not
an existing file but parses as a DOI is imported on its own.

Without --upload the items are assembled but not written (dry run).

Example:
  openalexbot import dois.csv
  openalexbot import 10.7717/peerj.4375
  openalexbot import dois.xlsx --upload --pause 2s --json report.json
  openalexbot import dois.csv --upload --production --venue-policy skip`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	f := importCmd.Flags()
	f.BoolVar(&importFlags.upload, "upload", false, "write items to the knowledge base (default: dry run)")
	f.BoolVar(&importFlags.production, "production", false, "target www.wikidata.org instead of the sandbox")
	f.DurationVar(&importFlags.pause, "pause", 0, "minimum delay between imports")
	f.StringVar(&importFlags.venuePolicy, "venue-policy", model.VenuePolicyFatal, "what an unresolvable venue does to a record (fatal, skip)")
	f.StringVar(&importFlags.detector, "detector", model.DetectorStatistical, "label language detector (statistical, openai)")
	f.StringVar(&importFlags.outJSON, "json", "", "output JSON report path")
	f.StringVar(&importFlags.outMD, "md", "", "output Markdown report path")
	f.StringVar(&importFlags.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
	f.BoolVar(&importFlags.noCache, "no-cache", false, "disable the OpenAlex response cache")
	f.BoolVar(&importFlags.noFooter, "no-footer", false, "disable footer in Markdown reports")
}

// applyImportFlags overlays explicitly set flags on the loaded config
func applyImportFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("upload") {
		cfg.Import.Upload = importFlags.upload
	}
	if flags.Changed("production") {
		cfg.Wikibase.Sandbox = !importFlags.production
	}
	if flags.Changed("pause") {
		cfg.Import.Pause = importFlags.pause
	}
	if flags.Changed("venue-policy") {
		cfg.Import.VenuePolicy = importFlags.venuePolicy
	}
	if flags.Changed("detector") {
		cfg.Language.Detector = importFlags.detector
	}
	if flags.Changed("json") {
		cfg.Output.JSON = importFlags.outJSON
	}
	if flags.Changed("md") {
		cfg.Output.Markdown = importFlags.outMD
	}
	if flags.Changed("metrics-textfile") {
		cfg.Output.MetricsTextfile = importFlags.metricsTextfile
	}
	if importFlags.noCache {
		cfg.Cache.Enabled = false
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyImportFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if isSingleDOI(path) {
		return runImportOne(cfg, path)
	}

	// Input errors abort before any network activity
	dois, err := ingest.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(dois) == 0 {
		fmt.Fprintf(os.Stderr, "No DOIs found in %s\n", path)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Importing %d DOIs from %s\n", len(dois), path)
		fmt.Fprintf(os.Stderr, "Target: %s\n", cfg.Wikibase.Endpoint())
		fmt.Fprintf(os.Stderr, "Upload: %v\n", cfg.Import.Upload)
		fmt.Fprintln(os.Stderr)
	}

	progress := func(o model.Outcome) {
		fmt.Fprintln(os.Stderr, pipeline.FormatOutcome(o))
	}
	c, err := build(ctx, cfg, progress)
	if err != nil {
		return err
	}
	defer c.Close()

	report, runErr := c.importer.Run(ctx, path, dois)
	if report == nil {
		return runErr
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, pipeline.Summary(report))

	if err := writeOutputs(cfg, c, report); err != nil {
		return err
	}
	return runErr
}

// isSingleDOI reports whether arg names a DOI rather than an input file
func isSingleDOI(arg string) bool {
	if _, err := os.Stat(arg); err == nil {
		return false
	}
	_, err := doi.Normalize(arg)
	return err == nil
}

func runImportOne(cfg *model.Config, raw string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	outcome, err := c.importer.ImportOne(ctx, raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, pipeline.FormatOutcome(outcome))

	if cfg.Output.MetricsTextfile != "" {
		if err := c.metrics.WriteTextfile(cfg.Output.MetricsTextfile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if outcome.State.Failed() {
		return fmt.Errorf("import of %s failed: %s", outcome.DOI, outcome.Message)
	}
	return nil
}

func writeOutputs(cfg *model.Config, c *components, report *model.RunReport) error {
	renderer := pipeline.NewRenderer(!importFlags.noFooter)
	if cfg.Output.JSON != "" {
		if err := renderer.RenderJSON(report, cfg.Output.JSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", cfg.Output.JSON)
	}
	if cfg.Output.Markdown != "" {
		if err := renderer.RenderMarkdown(report, cfg.Output.Markdown); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", cfg.Output.Markdown)
	}
	if cfg.Output.MetricsTextfile != "" {
		if err := c.metrics.WriteTextfile(cfg.Output.MetricsTextfile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Metrics: %s\n", cfg.Output.MetricsTextfile)
	}
	return nil
}
