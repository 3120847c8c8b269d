package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/services/buildline/api"
	"example.com/backstage/services/buildline/config"
	"example.com/backstage/services/buildline/internal/cache"
	"example.com/backstage/services/buildline/internal/database"
	"example.com/backstage/services/buildline/internal/messaging"
	"example.com/backstage/services/buildline/internal/metrics"
	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"
	"example.com/backstage/services/buildline/internal/search"
	"example.com/backstage/services/buildline/internal/service"
	"example.com/backstage/services/buildline/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for assembly workflow operations, the sale gate and reports`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

// appDeps bundles everything both the API server and the worker need.
type appDeps struct {
	cfg      config.Config
	db       database.DB
	repo     repository.Repository
	cache    *cache.RedisCache
	tracer   tracing.Tracer
	search   *search.ElasticClient
	bus      messaging.ServiceBusClient
	metrics  *metrics.Metrics
	workflow *service.WorkflowService
	saleGate *service.SaleGateService
	reports  *service.ReportService
}

func buildDeps(migrate bool) (*appDeps, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}

	gormDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database handle")
	}

	if migrate {
		if err := models.SetupModels(gormDB); err != nil {
			return nil, errors.Wrap(err, "failed to run migrations")
		}
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	bus, err := messaging.NewServiceBusClient(cfg.Azure)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Service Bus client")
	}

	repo := repository.NewRepository(gormDB)
	collector := metrics.NewMetrics()

	return &appDeps{
		cfg:      cfg,
		db:       db,
		repo:     repo,
		cache:    redisCache,
		tracer:   tracer,
		search:   elasticClient,
		bus:      bus,
		metrics:  collector,
		workflow: service.NewWorkflowService(repo, bus, elasticClient, redisCache, tracer, collector, cfg.Workflow),
		saleGate: service.NewSaleGateService(repo),
		reports:  service.NewReportService(repo, redisCache, cfg.Workflow),
	}, nil
}

func (d *appDeps) close() {
	if d.bus != nil {
		d.bus.Close()
	}
	if d.cache != nil {
		d.cache.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

func runAPI(cmd *cobra.Command, args []string) error {
	deps, err := buildDeps(true)
	if err != nil {
		return err
	}
	defer deps.close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	server := api.NewServer(deps.cfg, deps.db, deps.workflow, deps.saleGate, deps.reports, deps.search, deps.metrics)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
