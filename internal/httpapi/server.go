// Package httpapi serves merges over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/dusk-indust/deckmerge/internal/acquire"
	"github.com/dusk-indust/deckmerge/internal/config"
	"github.com/dusk-indust/deckmerge/internal/opc"
	"github.com/dusk-indust/deckmerge/internal/orchestrator"
)

// HealthMessage is the body of GET /.
const HealthMessage = "deckmerge service is running"

// maxMemory is the multipart form size kept in memory before spilling to
// temporary files.
const maxMemory = 32 << 20

// Merger runs a merge. *orchestrator.Pipeline implements it.
type Merger interface {
	Merge(ctx context.Context, sources []orchestrator.Source) (*orchestrator.Result, error)
}

// Fetcher downloads sources named by URL. *acquire.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, locations []string) ([]orchestrator.Source, error)
}

// Server exposes the merge engine over HTTP.
type Server struct {
	cfg     config.Config
	policy  acquire.Policy
	merger  Merger
	fetcher Fetcher
	http    *http.Server
}

// NewServer creates a Server. fetcher may be nil, which disables URL
// sources.
func NewServer(cfg config.Config, merger Merger, fetcher Fetcher) *Server {
	cfg = cfg.WithDefaults()
	return &Server{
		cfg:     cfg,
		policy:  acquire.PolicyFromConfig(cfg),
		merger:  merger,
		fetcher: fetcher,
	}
}

// Handler returns the routed handler, wrapped with request ids.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST /merge", s.handleMerge)
	return withRequestID(mux)
}

// Start creates an HTTP server and begins serving in a background
// goroutine. It returns immediately.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("httpapi: serve %s: %v", addr, err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type requestIDKey struct{}

// RequestID returns the id withRequestID assigned to the request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		if v7, err := uuid.NewV7(); err == nil {
			id = v7.String()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, HealthMessage)
}

// mergeRequest is the JSON body of POST /merge.
type mergeRequest struct {
	URLs []string `json:"urls"`
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := int64(s.policy.MaxSources)*s.policy.MaxSourceBytes + maxMemory
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		sources []orchestrator.Source
		err     error
	)
	switch mediaType {
	case "multipart/form-data":
		sources, err = s.readUploads(r)
	case "application/json":
		sources, err = s.readURLs(r)
	default:
		err = errors.New("expected multipart/form-data with files or application/json with urls")
	}
	if err != nil {
		log.Printf("httpapi: request=%s rejected: %v", RequestID(ctx), err)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.merger.Merge(ctx, sources)
	if err != nil {
		status, msg := http.StatusInternalServerError, "internal merge error"
		var me *orchestrator.MergeError
		if errors.As(err, &me) {
			msg = me.Summary()
			if me.Class == orchestrator.ClassFormat {
				status = http.StatusBadRequest
			}
		}
		log.Printf("httpapi: request=%s merge failed: %v", RequestID(ctx), err)
		writeError(w, r, status, msg)
		return
	}

	log.Printf("httpapi: request=%s merge=%s slides=%d bytes=%d", RequestID(ctx), res.ID, res.Slides, len(res.Data))
	w.Header().Set("Content-Type", opc.ContentTypeDeck)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": s.cfg.OutputName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Write(res.Data)
}

// readUploads validates and reads the multipart "files" field.
func (s *Server) readUploads(r *http.Request) ([]orchestrator.Source, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, err
	}
	files := r.MultipartForm.File["files"]
	if err := s.policy.CheckCount(len(files)); err != nil {
		return nil, err
	}

	sources := make([]orchestrator.Source, 0, len(files))
	for _, fh := range files {
		if err := s.policy.CheckName(fh.Filename); err != nil {
			return nil, err
		}
		if err := s.policy.CheckSize(fh.Size); err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		sources = append(sources, orchestrator.Source{Name: fh.Filename, Data: data})
	}
	return sources, nil
}

// readURLs decodes a mergeRequest and fetches its URLs.
func (s *Server) readURLs(r *http.Request) ([]orchestrator.Source, error) {
	if s.fetcher == nil {
		return nil, errors.New("URL sources are disabled")
	}
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return s.fetcher.Fetch(r.Context(), req.URLs)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg, RequestID: RequestID(r.Context())})
}
