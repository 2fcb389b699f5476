package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vmaslov/askdocs/internal/core/ports"
	"github.com/vmaslov/askdocs/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	answerer       ports.QuestionAnswerer
	docsDir        string
	metrics        *metrics.HTTPServerMetrics
	log            *slog.Logger
	requestTimeout time.Duration
}

func NewRouter(
	answerer ports.QuestionAnswerer,
	docsDir string,
	serverMetrics *metrics.HTTPServerMetrics,
	log *slog.Logger,
	requestTimeout time.Duration,
) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		answerer:       answerer,
		docsDir:        docsDir,
		metrics:        serverMetrics,
		log:            log,
		requestTimeout: requestTimeout,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/rag/query", rt.answerQuestion)
	mux.Handle("/rag/static/", http.StripPrefix("/rag/static/", http.FileServer(http.Dir(rt.docsDir))))
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.log, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) answerQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
		Limit    int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	ctx := r.Context()
	if rt.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := rt.answerer.Answer(ctx, req.Question, req.Limit)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		rt.log.Error("answer_failed",
			"request_id", requestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(serviceName, "/rag/query", len(answer.Sources), time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
