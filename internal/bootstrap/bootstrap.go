package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmaslov/askdocs/internal/config"
	"github.com/vmaslov/askdocs/internal/core/domain"
	"github.com/vmaslov/askdocs/internal/core/ports"
	"github.com/vmaslov/askdocs/internal/core/usecase"
	"github.com/vmaslov/askdocs/internal/infrastructure/chunking"
	"github.com/vmaslov/askdocs/internal/infrastructure/extractor/mupdf"
	"github.com/vmaslov/askdocs/internal/infrastructure/extractor/pdfnative"
	"github.com/vmaslov/askdocs/internal/infrastructure/extractor/poppler"
	"github.com/vmaslov/askdocs/internal/infrastructure/llm/openai"
	"github.com/vmaslov/askdocs/internal/infrastructure/reporter/natsreport"
	"github.com/vmaslov/askdocs/internal/infrastructure/resilience"
	"github.com/vmaslov/askdocs/internal/infrastructure/vector/pgvector"
	"github.com/vmaslov/askdocs/internal/observability/metrics"
)

// API bundles everything the query service needs.
type API struct {
	Config   config.Config
	Answerer ports.QuestionAnswerer
	Metrics  *metrics.HTTPServerMetrics
	Log      *slog.Logger

	closeFn func()
}

func NewAPI(ctx context.Context, cfg config.Config, log *slog.Logger) (*API, error) {
	core, err := newCore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	answerer := usecase.NewAnswerQuestionUseCase(core.embedder, core.store, core.generator, cfg.RAGTopK, log)

	return &API{
		Config:   cfg,
		Answerer: answerer,
		Metrics:  metrics.NewHTTPServerMetrics("api"),
		Log:      log,
		closeFn:  core.close,
	}, nil
}

func (a *API) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Importer bundles the offline corpus rebuild pipeline.
type Importer struct {
	Config  config.Config
	Ingest  ports.CorpusIngestor
	Metrics *metrics.ImporterMetrics
	Log     *slog.Logger

	closeFn func()
}

func NewImporter(ctx context.Context, cfg config.Config, log *slog.Logger) (*Importer, error) {
	core, err := newCore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	importerMetrics := metrics.NewImporterMetrics("importer")
	reporters := []ports.IngestReporter{&metricsReporter{metrics: importerMetrics}}

	closeFn := core.close
	if cfg.NATSURL != "" {
		natsReporter, err := natsreport.New(cfg.NATSURL, cfg.NATSSubject, natsreport.Options{
			ResilienceExecutor: core.executor,
			Logger:             log,
		})
		if err != nil {
			core.close()
			return nil, fmt.Errorf("init nats reporter: %w", err)
		}
		reporters = append(reporters, natsReporter)
		closeFn = func() {
			natsReporter.Close()
			core.close()
		}
	}

	selector := usecase.NewExtractionSelector(
		[]ports.ExtractionStrategy{pdfnative.New(), poppler.New(), mupdf.New()},
		cfg.MinDocumentChars,
		log,
	)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunkChars)
	ingest := usecase.NewIngestCorpusUseCase(
		selector,
		chunker,
		core.embedder,
		core.store,
		multiReporter(reporters),
		cfg.DocsDir,
		cfg.IngestConcurrency,
		cfg.EmbedBatchSize,
		log,
	)

	return &Importer{
		Config:  cfg,
		Ingest:  ingest,
		Metrics: importerMetrics,
		Log:     log,
		closeFn: closeFn,
	}, nil
}

func (i *Importer) Close() {
	if i.closeFn != nil {
		i.closeFn()
	}
}

type coreDeps struct {
	db        *sql.DB
	store     *pgvector.Store
	embedder  *openai.Embedder
	generator *openai.Generator
	executor  *resilience.Executor
	close     func()
}

func newCore(ctx context.Context, cfg config.Config, log *slog.Logger) (*coreDeps, error) {
	db, err := pgvector.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := pgvector.New(db, cfg.Collection)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), log)
	client := openai.New(
		cfg.OpenAIBaseURL,
		cfg.OpenAIAPIKey,
		cfg.EmbedModel,
		cfg.GenModel,
		openai.WithExecutor(executor),
		openai.WithRateLimit(cfg.EmbedRPS),
	)

	return &coreDeps{
		db:        db,
		store:     store,
		embedder:  openai.NewEmbedder(client),
		generator: openai.NewGenerator(client),
		executor:  executor,
		close:     func() { _ = db.Close() },
	}, nil
}

// metricsReporter mirrors ingest reports into prometheus counters.
type metricsReporter struct {
	metrics *metrics.ImporterMetrics
}

func (r *metricsReporter) Report(_ context.Context, report domain.IngestReport) error {
	r.metrics.RecordDocument("importer", string(report.Status), time.Duration(report.ElapsedMS)*time.Millisecond)
	if report.Status == domain.IngestStatusIndexed {
		r.metrics.RecordStrategyWin("importer", report.Strategy)
		r.metrics.RecordChunks("importer", report.Chunks)
	}
	return nil
}

type multiReporter []ports.IngestReporter

func (m multiReporter) Report(ctx context.Context, report domain.IngestReport) error {
	var firstErr error
	for _, reporter := range m {
		if err := reporter.Report(ctx, report); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
