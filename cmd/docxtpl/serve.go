package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-docxtpl"
	"github.com/alnah/go-docxtpl/internal/assets"
	"github.com/alnah/go-docxtpl/internal/config"
)

// HTTP server limits.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 2 * time.Minute
	writeSlack        = 30 * time.Second // Added to the conversion timeout
)

// Request headers of POST /docx.
const (
	headerTenant   = "tenantid"
	headerTemplate = "template"
)

// errBadRequest reports a malformed HTTP request.
var errBadRequest = errors.New("bad request")

// server renders documents for tenants over HTTP.
type server struct {
	store       assets.Locator
	pipelines   map[string]*docxtpl.Pipeline // One per tenant, sharing a converter
	maxBody     int64
	defaultKind docxtpl.OutputKind
	log         io.Writer // Access and error lines; nil disables them
	now         func() time.Time
}

// routes returns the HTTP handler.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /docx", s.handleDocx)
	mux.HandleFunc("OPTIONS /docx", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return s.logRequests(withCORS(mux))
}

// withCORS allows any origin, as browsers call the service directly.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, tenantid, template")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// logRequests writes one line per request.
func (s *server) logRequests(next http.Handler) http.Handler {
	if s.log == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		fmt.Fprintf(s.log, "%s %s %s %d %dB %v\n",
			start.Format(time.RFC3339), r.Method, r.URL.Path, rec.status, rec.bytes,
			s.now().Sub(start).Round(time.Millisecond))
	})
}

// handleDocx renders the template named by the request headers.
func (s *server) handleDocx(w http.ResponseWriter, r *http.Request) {
	tenant := strings.TrimSpace(r.Header.Get(headerTenant))
	if tenant == "" {
		s.writeError(w, fmt.Errorf("%w: invalid or missing tenantId in headers", errBadRequest))
		return
	}
	name := strings.TrimSpace(r.Header.Get(headerTemplate))
	if name == "" {
		s.writeError(w, fmt.Errorf("%w: missing template header", errBadRequest))
		return
	}

	kind, err := requestedKind(r, s.defaultKind)
	if err != nil {
		s.writeError(w, err)
		return
	}

	templatePath, err := s.store.TemplatePath(tenant, name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	logoPath, err := s.store.LogoPath(tenant)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, ok := s.pipelines[tenant]
	if !ok {
		s.writeError(w, fmt.Errorf("%w: %q", assets.ErrUnknownTenant, tenant))
		return
	}

	values, err := decodeBody(w, r, s.maxBody)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := p.Run(r.Context(), docxtpl.Request{
		TemplatePath: templatePath,
		LogoPath:     logoPath,
		Values:       values,
		Output:       kind,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	base := filepath.Base(templatePath)
	filename := strings.TrimSuffix(base, filepath.Ext(base)) + result.Kind.Extension()

	h := w.Header()
	h.Set("Content-Type", result.Kind.ContentType())
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// requestedKind reads ?format=, then Accept, then falls back to def.
func requestedKind(r *http.Request, def docxtpl.OutputKind) (docxtpl.OutputKind, error) {
	if format := r.URL.Query().Get("format"); format != "" {
		kind, err := docxtpl.ParseOutputKind(format)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		return kind, nil
	}
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, docxtpl.ContentTypePDF):
		return docxtpl.OutputPDF, nil
	case strings.Contains(accept, docxtpl.ContentTypeDOCX):
		return docxtpl.OutputDOCX, nil
	}
	return def, nil
}

// decodeBody reads a JSON object of replacement values.
// An empty body yields an empty map.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64) (docxtpl.Values, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return docxtpl.Values{}, nil
		}
		return nil, bodyError(err)
	}
	values, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: request body must be a JSON object", errBadRequest)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
		}
		return nil, bodyError(err)
	}
	return values, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return fmt.Errorf("%w: invalid JSON body: %w", errBadRequest, err)
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, docxtpl.ErrInvalidInput),
		errors.Is(err, assets.ErrInvalidAssetName),
		errors.Is(err, assets.ErrPathTraversal),
		errors.Is(err, assets.ErrUnknownTenant):
		return http.StatusBadRequest
	case errors.Is(err, docxtpl.ErrTemplateNotFound),
		errors.Is(err, assets.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, docxtpl.ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, docxtpl.ErrConversion):
		return http.StatusBadGateway
	case errors.Is(err, docxtpl.ErrRender):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError writes {"error": "..."}. Server-side failures are logged and
// answered with the status text only.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		if s.log != nil {
			fmt.Fprintf(s.log, "error: %v\n", err)
		}
		msg = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// runServe starts the HTTP boundary and blocks until ctx is cancelled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) != 0 {
		printServeUsage(env.Stderr)
		return fmt.Errorf("%w: serve takes no arguments", ErrUsage)
	}

	cfg, err := loadSettings(&flags.common, &flags.converter, env)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.assets != "" {
		cfg.Assets.BasePath = flags.assets
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := newServer(cfg, env, flags.common.quiet)
	if err != nil {
		return err
	}
	grace, err := cfg.Server.ShutdownGraceDuration()
	if err != nil {
		return err
	}
	timeout, err := cfg.Convert.TimeoutDuration()
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      timeout + writeSlack,
		IdleTimeout:       idleTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "Listening on %s (assets %s)\n", ln.Addr(), cfg.Assets.BasePath)
	}
	return serveUntilDone(ctx, httpSrv, ln, grace)
}

// newServer builds one pipeline per tenant. Image file references are
// confined to the tenant's asset directory; all pipelines share one converter.
func newServer(cfg *config.Config, env *Environment, quiet bool) (*server, error) {
	store, err := assets.NewFilesystemStore(cfg.Assets.BasePath, cfg.Tenants)
	if err != nil {
		return nil, err
	}

	opts, err := pipelineOptions(cfg, env)
	if err != nil {
		return nil, err
	}
	conv := env.Converter
	if conv == nil {
		timeout, err := cfg.Convert.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		conv = docxtpl.NewSofficeConverter(cfg.Convert.Binary, timeout, cfg.Convert.MaxConcurrent)
	}
	opts = append(opts, docxtpl.WithConverter(conv))

	pipelines := make(map[string]*docxtpl.Pipeline, len(cfg.Tenants))
	for _, tenant := range cfg.Tenants {
		root := filepath.Join(store.BasePath(), tenant)
		p, err := docxtpl.NewPipeline(append(slices.Clip(opts), docxtpl.WithResolver(&docxtpl.Resolver{Root: root}))...)
		if err != nil {
			return nil, err
		}
		pipelines[tenant] = p
	}

	kind, err := defaultOutputKind(cfg, docxtpl.OutputPDF)
	if err != nil {
		return nil, err
	}

	s := &server{
		store:       store,
		pipelines:   pipelines,
		maxBody:     cfg.Server.MaxBodyBytes,
		defaultKind: kind,
		now:         env.Now,
	}
	if !quiet {
		s.log = env.Stderr
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// serveUntilDone serves on ln until ctx is cancelled, then shuts down,
// letting in-flight requests finish within grace.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
