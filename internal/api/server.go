package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reelforge/internal/history"
	"reelforge/internal/logging"
	"reelforge/internal/logs"
	"reelforge/internal/metrics"
	"reelforge/internal/pipeline"
	"reelforge/internal/services"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Pipeline is the controller surface the HTTP boundary drives.
type Pipeline interface {
	List(ctx context.Context) (pipeline.Result, error)
	Concatenate(ctx context.Context) (pipeline.Result, error)
	Convert(ctx context.Context) (pipeline.Result, error)
	GenerateClip(ctx context.Context, platform, file string) (pipeline.Result, error)
	PrepareForPlatform(ctx context.Context, platform, file string) (pipeline.Result, error)
	Transcribe(ctx context.Context, file string) (pipeline.Result, error)
	DeleteThumbnail(ctx context.Context, name string) (pipeline.Result, error)
	Publish(ctx context.Context, title string) (pipeline.Result, error)
}

// HistoryReader reads recorded operations.
type HistoryReader interface {
	List(ctx context.Context, filter history.Filter) ([]history.Record, error)
	Get(ctx context.Context, id string) (history.Record, error)
}

// StatusFunc reports daemon status on demand.
type StatusFunc func(ctx context.Context) Status

// Options configures optional server collaborators.
type Options struct {
	History HistoryReader
	Status  StatusFunc
	// LogPath is the file served by /api/logs; empty disables the route.
	LogPath string
	// Token enables bearer authentication on /api routes when set.
	Token  string
	Logger *slog.Logger
}

// Server maps HTTP requests onto pipeline operations.
type Server struct {
	pipeline Pipeline
	history  HistoryReader
	status   StatusFunc
	logPath  string
	token    string
	logger   *slog.Logger
}

// NewServer builds a server around p.
func NewServer(p Pipeline, opts Options) (*Server, error) {
	if p == nil {
		return nil, errors.New("api server requires a pipeline")
	}
	return &Server{
		pipeline: p,
		history:  opts.History,
		status:   opts.Status,
		logPath:  strings.TrimSpace(opts.LogPath),
		token:    strings.TrimSpace(opts.Token),
		logger:   logging.NewComponentLogger(opts.Logger, "api-server"),
	}, nil
}

// Handler returns the routed handler with request-id, metrics, and auth
// middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(metrics.Middleware(metrics.DefaultMiddlewareConfig()))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware(s.token))
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/videos", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/concatenate", s.handleConcatenate).Methods(http.MethodPost)
	api.HandleFunc("/convert", s.handleConvert).Methods(http.MethodPost)
	api.HandleFunc("/generate-social-video", s.handleGenerateClip).Methods(http.MethodPost)
	api.HandleFunc("/prepare-social-video", s.handlePrepare).Methods(http.MethodPost)
	api.HandleFunc("/transcribe", s.handleTranscribe).Methods(http.MethodPost)
	api.HandleFunc("/thumbnails", s.handleDeleteThumbnail).Methods(http.MethodDelete)
	api.HandleFunc("/publish", s.handlePublish).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history/{id}", s.handleHistoryItem).Methods(http.MethodGet)
	api.HandleFunc("/logs", s.handleLogs).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, services.KindInputNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, services.KindValidation, "method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.writeJSON(w, http.StatusOK, Status{Running: true})
		return
	}
	s.writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r)(s.pipeline.List(r.Context()))
}

func (s *Server) handleConcatenate(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r)(s.pipeline.Concatenate(r.Context()))
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r)(s.pipeline.Convert(r.Context()))
}

func (s *Server) handleGenerateClip(w http.ResponseWriter, r *http.Request) {
	var req ClipRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r)(s.pipeline.GenerateClip(r.Context(), req.Platform, req.Filename))
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	var req ClipRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r)(s.pipeline.PrepareForPlatform(r.Context(), req.Platform, req.Filename))
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r)(s.pipeline.Transcribe(r.Context(), req.Filename))
}

func (s *Server) handleDeleteThumbnail(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Filename == "" {
		req.Filename = r.URL.Query().Get("filename")
	}
	s.respond(w, r)(s.pipeline.DeleteThumbnail(r.Context(), req.Filename))
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r)(s.pipeline.Publish(r.Context(), req.Title))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, HistoryResponse{Entries: []HistoryEntry{}})
		return
	}
	query := r.URL.Query()
	filter := history.Filter{Operation: strings.TrimSpace(query.Get("operation"))}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, services.KindValidation, "invalid limit "+strconv.Quote(raw))
			return
		}
		filter.Limit = limit
	}
	records, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, services.Kind(err), err.Error())
		return
	}
	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, FromRecord(rec))
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, services.KindInputNotFound, "history entry not found")
		return
	}
	rec, err := s.history.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, services.KindInputNotFound, "history entry not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, services.Kind(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, FromRecord(rec))
}

// maxLogWait bounds how long a follow request holds the connection.
const maxLogWait = 30 * time.Second

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logPath == "" {
		s.writeError(w, http.StatusNotFound, services.KindInputNotFound, "log file not configured")
		return
	}
	query := r.URL.Query()
	opts := logs.Options{Offset: -1, Lines: 100, Match: strings.TrimSpace(query.Get("match"))}
	var ok bool
	if opts.Offset, ok = s.intParam(w, query.Get("offset"), "offset", opts.Offset, true); !ok {
		return
	}
	lines, ok := s.intParam(w, query.Get("lines"), "lines", int64(opts.Lines), false)
	if !ok {
		return
	}
	opts.Lines = int(lines)
	if raw := strings.TrimSpace(query.Get("wait")); raw != "" {
		wait, err := time.ParseDuration(raw)
		if err != nil || wait < 0 {
			s.writeError(w, http.StatusBadRequest, services.KindValidation, "invalid wait "+strconv.Quote(raw))
			return
		}
		opts.Follow = true
		opts.Wait = min(wait, maxLogWait)
	}
	chunk, err := logs.Tail(r.Context(), s.logPath, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.writeError(w, http.StatusInternalServerError, services.KindIO, err.Error())
		return
	}
	if chunk.Lines == nil {
		chunk.Lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, LogsResponse{Lines: chunk.Lines, Offset: chunk.Offset})
}

// intParam parses an optional integer query parameter. Negative values are
// accepted only when allowNegative is set.
func (s *Server) intParam(w http.ResponseWriter, raw, name string, fallback int64, allowNegative bool) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || (!allowNegative && value < 0) {
		s.writeError(w, http.StatusBadRequest, services.KindValidation, "invalid "+name+" "+strconv.Quote(raw))
		return 0, false
	}
	return value, true
}

// respond writes a controller result with the status its outcome maps to.
func (s *Server) respond(w http.ResponseWriter, r *http.Request) func(pipeline.Result, error) {
	return func(res pipeline.Result, err error) {
		s.writeJSON(w, StatusCode(err), FromResult(res))
		if err != nil && !services.IsPrecondition(err) {
			logging.WithContext(r.Context(), s.logger).Debug("request failed",
				logging.String("path", r.URL.Path),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
			)
		}
	}
}

// StatusCode maps an operation error onto an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case services.IsPrecondition(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads an optional JSON body. An empty body leaves dst untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, services.KindValidation, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   &ErrorInfo{Kind: kind, Message: message},
		Message: message,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

// authMiddleware validates bearer tokens. An empty token disables the check.
func authMiddleware(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"success":false,"error":{"kind":"validation","message":"unauthorized"},"message":"unauthorized"}`+"\n")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
