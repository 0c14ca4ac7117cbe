package cmd

import (
	"context"
	"fmt"
	"olx-scraper/config"
	"olx-scraper/models"
	"olx-scraper/scraper/olx"
	"olx-scraper/services"
	"olx-scraper/storage"
	"olx-scraper/utils"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath string
	query      string
	searchURL  string
	maxAds     int
	outputDir  string
	headless   bool
	usePG      bool
	logLevel   string
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "config.yaml", "Optional YAML config file.")
	flags.StringVarP(&query, "query", "q", "", "Search term, rendered into an OLX search URL.")
	flags.StringVar(&searchURL, "url", "", "Full search URL (overrides --query).")
	flags.IntVarP(&maxAds, "max-ads", "n", 0, "Maximum number of ads to collect.")
	flags.StringVarP(&outputDir, "output-dir", "o", "", "Directory for the CSV output.")
	flags.BoolVar(&headless, "headless", true, "Run Chrome without a window.")
	flags.BoolVar(&usePG, "postgres", false, "Also store the ads in PostgreSQL.")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error.")
}

var rootCmd = &cobra.Command{
	Use:          "olx-scraper [--query <term>] [--max-ads <n>]",
	Short:        "Collects ads from an OLX search by pressing 'Load more' until enough are on the page.",
	SilenceUsage: true,
	RunE:         run,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("query") {
		cfg.SearchURL = config.SearchURLFor(query)
	}
	if flags.Changed("url") {
		cfg.SearchURL = searchURL
	}
	if flags.Changed("max-ads") {
		cfg.MaxAds = maxAds
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("headless") {
		cfg.Headless = headless
	}
	if flags.Changed("postgres") {
		cfg.DBEnabled = usePG
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, err := utils.InitLogger(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()

	defer func() {
		if r := recover(); r != nil {
			utils.Error("Unexpected failure: %v", r)
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	utils.Info("Scraper starting | url=%s max_ads=%d headless=%v", cfg.SearchURL, cfg.MaxAds, cfg.Headless)

	session, err := olx.NewSession(cfg)
	if err != nil {
		utils.Error("Could not start scraper: %v", err)
		return err
	}
	defer session.Close()

	result, path := collectAndSave(cfg, session, time.Now())
	logSummary(result, path)

	if len(result.Ads) > 0 {
		services.PrintReport(os.Stdout, services.GenerateReport(result.Ads))
	}
	return nil
}

// collectAndSave runs one collection over driver and writes whatever was
// gathered. It returns the result and the CSV path, empty when nothing was
// written.
func collectAndSave(cfg *config.Config, driver olx.PageDriver, startedAt time.Time) (models.ScrapeResult, string) {
	collector := olx.NewCollector(driver, olx.NewExtractor(cfg), cfg)
	result := collector.Run()

	path := storage.TimestampedPath(cfg.OutputDir, cfg.OutputPrefix, "csv", startedAt)
	if err := storage.NewCSVWriter(path).Write(result.Ads); err != nil {
		utils.Error("Failed to save CSV: %v", err)
		path = ""
	}
	if len(result.Ads) == 0 {
		path = ""
	}

	if cfg.DBEnabled && len(result.Ads) > 0 {
		saveToPostgres(cfg, runID(startedAt), result.Ads)
	}

	return result, path
}

func logSummary(result models.ScrapeResult, path string) {
	if path == "" {
		utils.Warn("Run finished without a CSV | reason=%s ads=%d", result.Reason, len(result.Ads))
		return
	}
	utils.Success("Run finished | reason=%s ads=%d clicks=%d csv=%s", result.Reason, len(result.Ads), result.Advances, path)
}

func saveToPostgres(cfg *config.Config, id string, ads []models.Ad) {
	pgWriter, err := storage.NewPostgresWriter(cfg)
	if err != nil {
		utils.Error("Failed to connect PostgreSQL: %v", err)
		return
	}
	defer pgWriter.Close()

	if err := pgWriter.EnsureSchema(); err != nil {
		utils.Error("Failed to ensure PostgreSQL schema: %v", err)
		return
	}
	if err := pgWriter.WriteBatch(id, cfg.SearchURL, ads); err != nil {
		utils.Error("Failed to save ads to PostgreSQL: %v", err)
		return
	}
	utils.Success("Saved %d ads to PostgreSQL | run=%s", len(ads), id)
}

func runID(t time.Time) string {
	return t.Format("20060102_150405")
}
