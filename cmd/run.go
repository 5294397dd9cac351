package cmd

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	pubsubv2 "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/config"
	"github.com/baystatedata/covidetl/internal/logging"
	"github.com/baystatedata/covidetl/internal/metrics"
	"github.com/baystatedata/covidetl/internal/pipeline"
	"github.com/baystatedata/covidetl/internal/publisher"
	"github.com/baystatedata/covidetl/internal/sink"
	"github.com/baystatedata/covidetl/internal/warehouse"
)

// newRunCmd creates the 'run' subcommand, which executes one pipeline pass.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one scrape-extract-load pass",
		Long: `Fetches the landing page, downloads today's artifacts, extracts and
normalizes their tables, writes the CSV failsafe outputs, and loads the
configured warehouse. Exits non-zero when any step or upload fails.`,
		RunE: runPipelineCommand,
	}
}

func runPipelineCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Verbosity, cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	opts, cleanup, err := buildCollaborators(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return err
	}
	defer cleanup()

	p := pipeline.New(cfg, logger, opts...)
	summary, runErr := p.Run(ctx)

	pushMetrics(cfg, logger)

	if runErr != nil {
		return fmt.Errorf("pipeline run: %w", runErr)
	}
	if summary.Failed() {
		return fmt.Errorf("pipeline run %s completed with failures", summary.RunID)
	}
	return nil
}

// buildCollaborators constructs the optional warehouse, mirror, and reporter
// collaborators selected by configuration. The returned cleanup closes every
// client that was opened.
func buildCollaborators(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]pipeline.Option, func(), error) {
	var opts []pipeline.Option
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Upload.Driver {
	case config.DriverBigQuery:
		client, err := bigquery.NewClient(ctx, cfg.BigQuery.Project)
		if err != nil {
			return nil, cleanup, fmt.Errorf("bigquery client: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		uploader, err := warehouse.NewBigQueryUploader(client, cfg.BigQuery.Dataset)
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, pipeline.WithLoader(warehouse.NewLoader(uploader, cfg.Upload.AttemptBudget, logger)))

	case config.DriverPostgres:
		uploader, err := warehouse.NewPostgresUploader(ctx, warehouse.PostgresConfig{
			DSN:    cfg.Postgres.DSN,
			Schema: cfg.Postgres.Schema,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("postgres uploader: %w", err)
		}
		closers = append(closers, uploader.Close)
		opts = append(opts, pipeline.WithLoader(warehouse.NewLoader(uploader, cfg.Upload.AttemptBudget, logger)))

	case config.DriverNone:
		logger.Info("no warehouse driver configured, CSV outputs only")
	}

	if cfg.GCS.Bucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, cleanup, fmt.Errorf("storage client: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		mirror, err := sink.NewGCSWriter(client, cfg.GCS.Bucket, cfg.GCS.Prefix)
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, pipeline.WithMirror(mirror))
	}

	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		client, err := pubsubv2.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, cleanup, fmt.Errorf("pubsub client: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		opts = append(opts, pipeline.WithReporter(publisher.New(client.Publisher(cfg.PubSub.TopicName))))
	}

	return opts, cleanup, nil
}

// pushMetrics sends the run's collectors to the Pushgateway when one is
// configured. A push failure is logged, never fatal.
func pushMetrics(cfg config.Config, logger *zap.Logger) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	if err := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName); err != nil {
		logger.Error("push metrics", zap.Error(err))
	}
}
