package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/vmaslov/askdocs/internal/core/domain"
	"github.com/vmaslov/askdocs/internal/core/ports"
)

// IngestCorpusUseCase is the offline path: walk the document tree, extract
// and chunk each file, embed the chunks, and replace the corpus collection in
// one bulk load. Per-document failures are contained; a run only fails as a
// whole when nothing extractable was found or the final store write fails.
type IngestCorpusUseCase struct {
	selector    *ExtractionSelector
	chunker     ports.Chunker
	embedder    ports.Embedder
	store       ports.VectorStore
	reporter    ports.IngestReporter
	docsDir     string
	concurrency int
	embedBatch  int
	log         *slog.Logger
}

func NewIngestCorpusUseCase(
	selector *ExtractionSelector,
	chunker ports.Chunker,
	embedder ports.Embedder,
	store ports.VectorStore,
	reporter ports.IngestReporter,
	docsDir string,
	concurrency int,
	embedBatch int,
	log *slog.Logger,
) *IngestCorpusUseCase {
	if concurrency <= 0 {
		concurrency = 4
	}
	if embedBatch <= 0 {
		embedBatch = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &IngestCorpusUseCase{
		selector:    selector,
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		reporter:    reporter,
		docsDir:     docsDir,
		concurrency: concurrency,
		embedBatch:  embedBatch,
		log:         log,
	}
}

type documentLoad struct {
	chunks  []domain.Chunk
	vectors [][]float32
}

func (uc *IngestCorpusUseCase) Run(ctx context.Context) (*domain.IngestSummary, error) {
	docs, err := uc.discover()
	if err != nil {
		return nil, fmt.Errorf("discover documents: %w", err)
	}
	uc.log.Info("ingest_discovered", "documents", len(docs), "dir", uc.docsDir)

	summary := &domain.IngestSummary{Documents: len(docs)}
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest corpus",
			fmt.Errorf("no pdf documents under %s", uc.docsDir))
	}

	// Extraction across documents is embarrassingly parallel; the pool bound
	// only limits file handles and memory held by large PDFs.
	jobs := make(chan domain.Document)
	var mu sync.Mutex
	loads := make(map[string]documentLoad, len(docs))

	var wg sync.WaitGroup
	for range uc.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				load, report := uc.processDocument(ctx, doc)
				uc.publishReport(ctx, report)
				mu.Lock()
				switch report.Status {
				case domain.IngestStatusIndexed:
					summary.Indexed++
					summary.Chunks += len(load.chunks)
					loads[doc.ID] = load
				case domain.IngestStatusUnextractable:
					summary.Unextractable++
					summary.Skipped = append(summary.Skipped, doc.ID)
				default:
					summary.Failed++
					summary.Skipped = append(summary.Skipped, doc.ID)
				}
				mu.Unlock()
			}
		}()
	}

	for _, doc := range docs {
		select {
		case jobs <- doc:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if summary.Indexed == 0 {
		return nil, domain.WrapError(domain.ErrUnextractable, "ingest corpus",
			fmt.Errorf("no documents with extractable text under %s, sources may be scanned images", uc.docsDir))
	}

	// Deterministic load order regardless of worker scheduling.
	chunks := make([]domain.Chunk, 0, summary.Chunks)
	vectors := make([][]float32, 0, summary.Chunks)
	for _, doc := range docs {
		load, ok := loads[doc.ID]
		if !ok {
			continue
		}
		chunks = append(chunks, load.chunks...)
		vectors = append(vectors, load.vectors...)
	}

	if err := uc.store.Replace(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("replace corpus collection: %w", err)
	}

	sort.Strings(summary.Skipped)
	uc.log.Info("ingest_complete",
		"documents", summary.Documents,
		"indexed", summary.Indexed,
		"unextractable", summary.Unextractable,
		"failed", summary.Failed,
		"chunks", summary.Chunks,
	)
	return summary, nil
}

// processDocument runs extraction, chunking and embedding for one file. No
// store writes happen here: partial documents never reach the collection.
func (uc *IngestCorpusUseCase) processDocument(ctx context.Context, doc domain.Document) (load documentLoad, report domain.IngestReport) {
	report = domain.IngestReport{DocumentID: doc.ID}
	start := time.Now()
	defer func() {
		report.ElapsedMS = time.Since(start).Milliseconds()
	}()

	res, err := uc.selector.Select(ctx, doc)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnextractable) {
			uc.log.Warn("document_unextractable", "document_id", doc.ID, "error", err)
			report.Status = domain.IngestStatusUnextractable
		} else {
			uc.log.Error("document_extract_failed", "document_id", doc.ID, "error", err)
			report.Status = domain.IngestStatusFailed
		}
		report.Error = err.Error()
		return documentLoad{}, report
	}
	report.Strategy = res.Strategy
	report.CharCount = res.CharCount

	parts := uc.chunker.Split(res.Text)
	if len(parts) == 0 {
		report.Status = domain.IngestStatusUnextractable
		report.Error = "chunking produced no substantive chunks"
		return documentLoad{}, report
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			Ordinal:    i,
			Text:       part,
			CharCount:  utf8.RuneCountInString(part),
		})
	}

	vectors, err := uc.embedChunks(ctx, parts)
	if err != nil {
		uc.log.Error("document_embed_failed", "document_id", doc.ID, "error", err)
		report.Status = domain.IngestStatusFailed
		report.Error = err.Error()
		return documentLoad{}, report
	}
	if len(vectors) != len(chunks) {
		report.Status = domain.IngestStatusFailed
		report.Error = fmt.Sprintf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks))
		return documentLoad{}, report
	}

	report.Status = domain.IngestStatusIndexed
	report.Chunks = len(chunks)
	return documentLoad{chunks: chunks, vectors: vectors}, report
}

func (uc *IngestCorpusUseCase) embedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += uc.embedBatch {
		end := min(start+uc.embedBatch, len(texts))
		batch, err := uc.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunk batch: %w", err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (uc *IngestCorpusUseCase) publishReport(ctx context.Context, report domain.IngestReport) {
	if uc.reporter == nil {
		return
	}
	if err := uc.reporter.Report(ctx, report); err != nil {
		uc.log.Warn("ingest_report_publish_failed", "document_id", report.DocumentID, "error", err)
	}
}

func (uc *IngestCorpusUseCase) discover() ([]domain.Document, error) {
	root, err := filepath.Abs(uc.docsDir)
	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		docs = append(docs, domain.Document{
			ID:     filepath.ToSlash(rel),
			Path:   path,
			Format: domain.FormatPDF,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "walk documents", err)
		}
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}
