package api

import (
	"context"
	"net/http"
	"time"

	"example.com/backstage/services/buildline/api/handlers"
	"example.com/backstage/services/buildline/api/middleware"
	"example.com/backstage/services/buildline/config"
	"example.com/backstage/services/buildline/internal/database"
	"example.com/backstage/services/buildline/internal/metrics"
	"example.com/backstage/services/buildline/internal/search"
	"example.com/backstage/services/buildline/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server

	workflow *service.WorkflowService
	saleGate *service.SaleGateService
	reports  *service.ReportService
	search   *search.ElasticClient
	db       database.DB
	metrics  *metrics.Metrics
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	db database.DB,
	workflow *service.WorkflowService,
	saleGate *service.SaleGateService,
	reports *service.ReportService,
	es *search.ElasticClient,
	m *metrics.Metrics,
) *Server {
	server := &Server{
		config:   cfg,
		db:       db,
		workflow: workflow,
		saleGate: saleGate,
		reports:  reports,
		search:   es,
		metrics:  m,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      server.router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	workflowHandler := handlers.NewWorkflowHandler(s.workflow)
	saleGateHandler := handlers.NewSaleGateHandler(s.saleGate)
	reportHandler := handlers.NewReportHandler(s.reports, s.search)
	healthHandler := handlers.NewHealthHandler(s.db, s.metrics)

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/metrics", healthHandler.HandleMetrics)

	v1 := router.Group("/api/v1")
	{
		journeys := v1.Group("/journeys")
		{
			journeys.POST("", workflowHandler.HandleInward)
			journeys.GET("/:barcode", reportHandler.HandleGetJourney)
			journeys.GET("/:barcode/history", reportHandler.HandleGetJourneyHistory)
			journeys.POST("/:barcode/assign", workflowHandler.HandleAssign)
			journeys.POST("/:barcode/start", workflowHandler.HandleStart)
			journeys.POST("/:barcode/complete", workflowHandler.HandleComplete)
			journeys.POST("/:barcode/send-to-qc", workflowHandler.HandleSendToQc)
			journeys.POST("/:barcode/qc-result", workflowHandler.HandleQcResult)
			journeys.POST("/:barcode/move-bin", workflowHandler.HandleMoveBin)
			journeys.POST("/:barcode/transfer", workflowHandler.HandleTransfer)
			journeys.POST("/:barcode/parts-missing", workflowHandler.HandlePartsMissing)
			journeys.POST("/:barcode/damage", workflowHandler.HandleDamage)
			journeys.POST("/:barcode/pause", workflowHandler.HandlePause)
			journeys.POST("/:barcode/resume", workflowHandler.HandleResume)
		}

		v1.GET("/bins/:id", reportHandler.HandleGetBin)
		v1.GET("/invoice-gate/:barcode", saleGateHandler.HandleInvoiceGate)
		v1.GET("/technicians/:id/queue", reportHandler.HandleTechnicianQueue)
		v1.GET("/search/journeys", reportHandler.HandleSearch)

		reports := v1.Group("/reports")
		{
			reports.GET("/kanban", reportHandler.HandleKanban)
			reports.GET("/workload", reportHandler.HandleWorkload)
			reports.GET("/bottlenecks", reportHandler.HandleBottlenecks)
			reports.GET("/stage/:status", reportHandler.HandleJourneysByStage)
		}
	}

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
