package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/kaiseki-dev/edinet-insight/external/edinet"
	"github.com/kaiseki-dev/edinet-insight/external/openai"
	"github.com/kaiseki-dev/edinet-insight/internal/config"
	"github.com/kaiseki-dev/edinet-insight/internal/docproc"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/pipeline"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/summary"
	cacherepo "github.com/kaiseki-dev/edinet-insight/internal/infrastructure/repository/cache"
	"github.com/kaiseki-dev/edinet-insight/internal/infrastructure/repository/memory"
	"github.com/kaiseki-dev/edinet-insight/internal/infrastructure/repository/postgres"
	"github.com/kaiseki-dev/edinet-insight/internal/interfaces/httpapi"
	basecache "github.com/kaiseki-dev/edinet-insight/internal/platform/cache"
	idgen "github.com/kaiseki-dev/edinet-insight/internal/platform/id"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/resilience"
	"github.com/kaiseki-dev/edinet-insight/internal/usecase"
)

// Application is the wired object graph for one process. cmd/api serves it
// over HTTP; cmd/sync drives the pipeline service directly.
type Application struct {
	Config    config.Config
	Logger    *logging.Logger
	DB        *sqlx.DB // nil when running on in-memory repositories
	Filings   *usecase.FilingService
	Summaries *usecase.SummaryService
	Pipeline  *usecase.PipelineService
}

func New(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		db          *sqlx.DB
		filingRepo  filing.Repository
		recordRepo  report.Repository
		summaryRepo summary.Repository
		runRepo     pipeline.Repository
	)

	if cfg.DBURL != "" {
		var err error
		db, err = otelsqlx.Connect("postgres",
			normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}

		filingRepo = postgres.NewFilingRepository(db)
		recordRepo = postgres.NewRecordRepository(db)
		summaryRepo = postgres.NewSummaryRepository(db)
		runRepo = postgres.NewRunRepository(db)
	} else {
		logger.Warn("DB_URL is not set, results live in process memory only")
		filingRepo = memory.NewFilingRepository()
		recordRepo = memory.NewRecordRepository()
		summaryRepo = memory.NewSummaryRepository()
		runRepo = memory.NewRunRepository()
	}

	var store *basecache.Store
	if cfg.CacheEnabled {
		store = basecache.NewStore(cfg.CacheTTL)
		filingRepo = cacherepo.NewFilingRepository(filingRepo, store)
		recordRepo = cacherepo.NewRecordRepository(recordRepo, store)
	}

	disclosureClient := edinet.NewClient(edinet.ClientConfig{
		BaseURL:     cfg.EdinetBaseURL,
		APIKey:      cfg.EdinetAPIKey,
		Timeout:     cfg.EdinetTimeout,
		MaxAttempts: cfg.EdinetMaxAttempts,
		BackoffBase: cfg.EdinetBackoffBase,
		RateLimit:   cfg.EdinetRateLimit,
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.EdinetCircuitEnabled,
			FailureThreshold: cfg.EdinetCircuitFailureCount,
			OpenTimeout:      cfg.EdinetCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.EdinetCircuitHalfOpenMaxReq,
		},
	})

	var llm usecase.ChatCompleter
	if cfg.OpenAIAPIKey != "" {
		client, err := openai.NewClient(openai.ClientConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.OpenAITimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build llm client: %w", err)
		}
		llm = client
	} else {
		logger.Warn("OPENAI_API_KEY is not set, summarization is disabled")
	}

	acquisitionSvc := usecase.NewAcquisitionService(disclosureClient, logger, cfg.PipelineLookbackDays, cfg.PipelineDownloadWorkers)
	processingSvc := usecase.NewProcessingService(docproc.NewDispatcher(), logger)
	summarySvc := usecase.NewSummaryService(llm, summaryRepo, store, logger, usecase.SummaryServiceConfig{
		PrimaryModel:     cfg.LLMPrimaryModel,
		FallbackModel:    cfg.LLMFallbackModel,
		PromptCharBudget: cfg.LLMPromptCharBudget,
	})
	filingSvc := usecase.NewFilingService(filingRepo, recordRepo, logger)

	// A pipeline without an LLM client still downloads and processes; it
	// skips the summarization stage instead of failing every document.
	var pipelineSummaries *usecase.SummaryService
	if llm != nil {
		pipelineSummaries = summarySvc
	}

	pipelineSvc := usecase.NewPipelineService(
		acquisitionSvc,
		processingSvc,
		pipelineSummaries,
		filingRepo,
		recordRepo,
		runRepo,
		idgen.NewRandomGenerator(),
		logger,
		filing.SearchCriteria{
			DocTypeCodes:   cfg.PipelineDocTypes,
			RequireSecCode: cfg.PipelineRequireSecCode,
		},
	)

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Filings:   filingSvc,
		Summaries: summarySvc,
		Pipeline:  pipelineSvc,
	}, nil
}

func (a *Application) NewHTTPServer() (*http.Server, error) {
	handler := httpapi.NewHandler(a.Filings, a.Summaries, a.Pipeline, a.Logger)
	router := httpapi.NewRouter(
		handler,
		a.Logger,
		a.Config.SwaggerEnabled,
		a.Config.CORSAllowedOrigins,
		a.Config.InternalJobToken,
	)

	server := &http.Server{
		Addr:         a.Config.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.Config.ReadTimeout,
		WriteTimeout: a.Config.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

func (a *Application) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
