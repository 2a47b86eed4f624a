package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pds-status/internal/client/pds"
	"pds-status/internal/config"
	"pds-status/internal/report"
	"pds-status/internal/service"
	"pds-status/internal/store"
)

// Command flags
var (
	dataDir     string // Overrides service.data_dir
	output      string // Overrides report.output
	excelOutput string // Overrides report.excel_output
	source      string // Overrides service.source
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Collect metrics and publish the status page",
	Long: `Collect host and PDS metrics once, render the status page and replace the
published file atomically. Readers of the output path always see either the
previous page or the new one, never a partial file.

Examples:
  # Use the stock /pds layout and write ./status.html
  pds-status generate

  # Publish into the web root
  pds-status generate -c /etc/pds-status/config.yaml -o /var/www/html/status.html

  # Also write an Excel workbook
  pds-status generate --data-dir /srv/pds -o status.html --excel-output status.xlsx`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&dataDir, "data-dir", "", "PDS data directory (overrides service.data_dir)")
	generateCmd.Flags().StringVarP(&output, "output", "o", "", "HTML output path (overrides report.output)")
	generateCmd.Flags().StringVar(&excelOutput, "excel-output", "", "Excel output path, empty to skip (overrides report.excel_output)")
	generateCmd.Flags().StringVar(&source, "source", "", "account source: sqlite or xrpc (overrides service.source)")
}

// runGenerate executes one collection and publication pass.
func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadGenerateConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "configuration invalid: %v\n", err)
		return err
	}

	level := cfg.Logging.Level
	if GetLogLevel() != "" {
		level = GetLogLevel()
	}
	logger := setupLogger(level, cfg.Logging.Format, cfg.Report.Location())

	logger.Info().
		Str("version", Version).
		Str("data_dir", cfg.Service.DataDir).
		Str("source", cfg.Service.Source).
		Str("output", cfg.Report.Output).
		Msg("starting status generation")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var client *pds.Client
	if cfg.Service.Endpoint != "" {
		client = pds.NewClient(&cfg.Service, &cfg.HTTP.Retry, logger)
	}

	accounts, err := openAccountStore(cfg, client, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open account store")
		return err
	}
	defer func() {
		if err := accounts.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close account store")
		}
	}()

	var collectorOpts []service.CollectorOption
	if client != nil {
		collectorOpts = append(collectorOpts, service.WithHealthChecker(client))
	}
	collector := service.NewCollector(cfg, service.NewGopsutilSampler(&cfg.Host), accounts, logger, collectorOpts...)

	outputs, err := buildOutputs(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to configure outputs")
		return err
	}

	writer := report.NewAtomicWriter(cfg.Report.FileModeValue(), cfg.Run.StaleTempAge, logger)
	runner, err := service.NewRunner(collector, writer, outputs, logger,
		service.WithVersion(Version),
		service.WithTimeout(cfg.Run.Timeout),
		service.WithEvaluator(service.NewEvaluator(&cfg.Thresholds, logger)),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create runner")
		return err
	}

	// Runner logs its own failure
	return runner.Run(ctx)
}

// loadGenerateConfig loads the config file, applies command line overrides and
// the PDS env file, then validates the result.
func loadGenerateConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(GetConfigFile())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Service.DataDir = dataDir
	}
	if flags.Changed("output") {
		cfg.Report.Output = output
	}
	if flags.Changed("excel-output") {
		cfg.Report.ExcelOutput = excelOutput
	}
	if flags.Changed("source") {
		cfg.Service.Source = source
	}

	if _, err := config.ApplyServiceEnv(cfg); err != nil {
		return nil, err
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openAccountStore selects the account source. A store that cannot be opened
// is a collection failure.
func openAccountStore(cfg *config.Config, client *pds.Client, logger zerolog.Logger) (service.AccountStore, error) {
	switch cfg.Service.Source {
	case config.SourceXRPC:
		if client == nil {
			return nil, &service.CollectionError{Op: "open account store", Err: fmt.Errorf("xrpc source requires service.endpoint")}
		}
		return store.NewXRPC(&cfg.Service, client, logger), nil
	default:
		s, err := store.OpenSQLite(&cfg.Service, logger)
		if err != nil {
			return nil, &service.CollectionError{Op: "open account store", Err: err}
		}
		return s, nil
	}
}

// buildOutputs pairs the HTML renderer with report.output and, when set, the
// Excel renderer with report.excel_output.
func buildOutputs(cfg *config.Config) ([]service.Output, error) {
	registry := report.NewRegistry(&cfg.Report)

	htmlRenderer, err := registry.Get("html")
	if err != nil {
		return nil, err
	}
	outputs := []service.Output{{Renderer: htmlRenderer, Dest: cfg.Report.Output}}

	if cfg.Report.ExcelOutput != "" {
		excelRenderer, err := registry.Get("excel")
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, service.Output{Renderer: excelRenderer, Dest: cfg.Report.ExcelOutput})
	}
	return outputs, nil
}
