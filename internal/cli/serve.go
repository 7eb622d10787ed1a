package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/pipeline"
)

const (
	defaultServeAddr = "127.0.0.1:8080"
	shutdownTimeout  = 5 * time.Second
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [output-dir]",
		Short: "Serve an output directory over HTTP for previewing",
		Long: `Serve exposes the descriptor, manifest and tiles of an output directory
to a local Deep Zoom viewer. GET /healthz reports liveness and
GET /api/inspect summarizes the directory as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := pipeline.DefaultOutputDir
			if len(args) == 1 {
				dir = args[0]
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return sgerrors.New(sgerrors.ErrCodeInvalidPath, "%s is not a directory", dir)
			}
			return c.serve(cmd.Context(), addr, dir)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	return cmd
}

func (c *CLI) serve(ctx context.Context, addr, dir string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           newServeHandler(dir, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	printInfo("Serving %s at %s", StyleValue.Render(dir), StyleLink.Render("http://"+ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	printSuccess("Server stopped")
	return nil
}

// newServeHandler routes the preview server.
func newServeHandler(dir string, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	r.Get("/api/inspect", func(w http.ResponseWriter, _ *http.Request) {
		in, err := inspect(dir)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"code":  string(sgerrors.GetCode(err)),
				"error": sgerrors.UserMessage(err),
			})
			return
		}
		writeJSON(w, http.StatusOK, newInspectResponse(in))
	})
	r.Handle("/*", http.FileServer(http.Dir(dir)))
	return r
}

type inspectResponse struct {
	Descriptor string           `json:"descriptor"`
	Columns    int              `json:"columns"`
	Rows       int              `json:"rows"`
	Squares    int              `json:"squares"`
	Pyramids   []pyramidSummary `json:"pyramids"`
}

type pyramidSummary struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Levels int    `json:"levels"`
	Format string `json:"format"`
}

func newInspectResponse(in *inspection) inspectResponse {
	d := in.Descriptor
	resp := inspectResponse{
		Descriptor: in.DescriptorPath,
		Columns:    d.NumColumns,
		Rows:       d.NumRows,
		Squares:    d.Populated(),
		Pyramids:   []pyramidSummary{},
	}
	for _, p := range in.Pyramids {
		resp.Pyramids = append(resp.Pyramids, pyramidSummary{
			Path:   p.Path,
			Width:  p.Manifest.Size.Width,
			Height: p.Manifest.Size.Height,
			Levels: p.Manifest.MaxLevel() + 1,
			Format: p.Manifest.Format,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs each request at debug level with its status and
// duration.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond))
		})
	}
}
