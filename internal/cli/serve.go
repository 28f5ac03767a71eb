package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/observability"
	"github.com/matzehuels/depsync/pkg/observability/prom"
	"github.com/matzehuels/depsync/pkg/repository"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve <dir>",
		Short: "Serve a local Maven repository over HTTP",
		Long: `Serve a directory in Maven layout so other projects can use it as an
http repository. maven-metadata.xml is generated for artifacts that lack one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := repository.NewLocal("local", args[0])
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return serveRepository(cmd.Context(), ln, local, metrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "expose Prometheus metrics on /metrics")

	return cmd
}

// serveRepository serves local on ln until ctx is done.
func serveRepository(ctx context.Context, ln net.Listener, local *repository.Local, metrics bool) error {
	logger := loggerFromContext(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(ctx))
	if metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom.New(reg).Register()
		defer observability.Reset()
		r.Handle("/metrics", prom.Handler(reg))
	}
	r.Mount("/", repository.NewHandler(local))

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	printSuccess("Serving %s", StyleHighlight.Render(local.Root()))
	printKeyValue("url", "http://"+ln.Addr().String()+"/")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// requestLogger logs each request at debug level.
func requestLogger(ctx context.Context) func(http.Handler) http.Handler {
	logger := loggerFromContext(ctx)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("Request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"took", time.Since(start).Round(time.Microsecond),
				"id", middleware.GetReqID(r.Context()))
		})
	}
}
