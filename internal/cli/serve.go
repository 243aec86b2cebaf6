package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/composeviz/pkg/cache"
	"github.com/matzehuels/composeviz/pkg/compose"
	errs "github.com/matzehuels/composeviz/pkg/errors"
	"github.com/matzehuels/composeviz/pkg/observability"
	"github.com/matzehuels/composeviz/pkg/pipeline"
)

const (
	defaultServeAddr = ":8080"

	// maxBodyBytes bounds the size of an uploaded configuration.
	maxBodyBytes = 1 << 20

	// serveKeyPrefix separates server artifacts from CLI artifacts in a
	// shared cache.
	serveKeyPrefix = "serve:"

	headerRequestID = "X-Request-ID"
	headerCache     = "X-Cache"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache, metrics bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render endpoint over HTTP",
		Long: `Serve starts an HTTP server that renders docker-compose files.

  POST /render   body: a docker-compose file; query: format, horizontal,
                 background, include, exclude, no_volumes, no_networks,
                 no_ports, no_configs, no_secrets
  GET  /healthz  liveness probe
  GET  /metrics  Prometheus metrics (with --metrics)

Files referenced by extends.file are not read by the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") && c.Config.Serve.Addr != "" {
				addr = c.Config.Serve.Addr
			}
			if !cmd.Flags().Changed("metrics") && c.Config.Serve.Metrics {
				metrics = true
			}
			return c.runServe(cmd.Context(), addr, noCache || c.Config.Cache.Disabled, metrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not cache rendered artifacts")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "expose Prometheus metrics on /metrics")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache, metrics bool) error {
	runner, err := c.newRunner(ctx, noCache, cache.NewScopedKeyer(nil, serveKeyPrefix))
	if err != nil {
		return err
	}
	defer runner.Close()

	s := newServer(runner, c.Logger)
	if metrics {
		if s.metrics, err = installMetrics(); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printSuccess("Listening on %s", addr)
	printKeyValue("POST", "/render")
	printKeyValue("GET", "/healthz")
	if metrics {
		printKeyValue("GET", "/metrics")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// =============================================================================
// HTTP Server
// =============================================================================

type server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	metrics http.Handler // nil disables /metrics
}

func newServer(runner *pipeline.Runner, logger *log.Logger) *server {
	return &server{runner: runner, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/render", s.handleRender)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// installMetrics registers Prometheus hooks next to the installed ones and
// returns the handler serving them.
func installMetrics() (http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	observability.SetPipelineHooks(observability.MultiPipelineHooks{observability.Pipeline(), m})
	observability.SetCacheHooks(observability.MultiCacheHooks{observability.Cache(), m})
	observability.SetHTTPHooks(observability.MultiHTTPHooks{observability.HTTP(), m})
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

// requestID tags every response with a request ID, keeping the one the
// client sent, and reports the request to the HTTP hooks.
func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), id, r.Method, r.URL.Path)
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// Route patterns keep metric labels bounded.
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		hooks.OnResponse(r.Context(), id, r.Method, route, status, time.Since(start))
	})
}

// handleRender handles POST /render.
func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts, err := renderOptionsFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Document = body
	opts.Loader = refuseExtendsFile

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", pipeline.ContentType(result.Format))
	if result.CacheHit {
		w.Header().Set(headerCache, "hit")
	} else {
		w.Header().Set(headerCache, "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifact)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "request body must contain a docker-compose file")
	}
	return body, nil
}

// renderOptionsFromQuery maps query parameters to pipeline options.
func renderOptionsFromQuery(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Format:     q.Get("format"),
		Background: q.Get("background"),
		Include:    splitList(q.Get("include")),
		Exclude:    splitList(q.Get("exclude")),
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"horizontal", &opts.Horizontal},
		{"no_volumes", &opts.NoVolumes},
		{"no_networks", &opts.NoNetworks},
		{"no_ports", &opts.NoPorts},
		{"no_configs", &opts.NoConfigs},
		{"no_secrets", &opts.NoSecrets},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errs.New(errs.ErrCodeInvalidInput, "invalid value %q for %s: must be a boolean", v, f.name)
		}
		*f.dst = b
	}
	return opts, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// refuseExtendsFile is the extends loader of the server, which never reads
// files from its own disk on behalf of a client.
func refuseExtendsFile(path string) (*compose.Mapping, error) {
	return nil, errs.New(errs.ErrCodeInvalidInput, "extends.file is not supported by the render endpoint").WithPath(path)
}

// =============================================================================
// Errors
// =============================================================================

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidConfiguration, errs.ErrCodeVersionMismatch,
		errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidColor:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(errs.GetCode(err))
	msg := errs.UserMessage(err)

	if status == http.StatusRequestEntityTooLarge {
		code = string(errs.ErrCodeInvalidInput)
		msg = "request body too large"
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("render failed", "error", err, "request_id", w.Header().Get(headerRequestID))
		code = string(errs.ErrCodeInternal)
		msg = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code:      code,
		Message:   msg,
		RequestID: w.Header().Get(headerRequestID),
	})
}
