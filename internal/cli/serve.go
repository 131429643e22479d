package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitetint/internal/config"
	"github.com/jmylchreest/sitetint/internal/engine"
	"github.com/jmylchreest/sitetint/internal/fetch"
	"github.com/jmylchreest/sitetint/internal/sink"
)

type serveOptions struct {
	listen        string
	cssPath       string
	allowPrivate  bool
	markupTimeout time.Duration
	watch         bool
	sinks         []string
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP trigger service",
		Long: `Run sitetint as a service a browser extension or script can drive.

Endpoints:
  POST   /v1/trigger        {"tab": "...", "url": "...", "selected": true}
                            202 accepted, 409 while the tab is being resolved
  GET    /v1/tabs/{tab}     last colour applied to a tab
  DELETE /v1/tabs/{tab}     forget a closed tab
  GET    /v1/stylesheet     current tab stylesheet
  GET    /metrics           Prometheus metrics

Resolved colours go to the sinks named by --sink:
  css     per-tab stylesheet, served at /v1/stylesheet and written to --css
  jsonl   one JSON event per applied colour on stdout

The configuration file is watched and reloaded on change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.listen, "listen", "127.0.0.1:8787", "listen address")
	f.StringVar(&opts.cssPath, "css", "", "also write the tab stylesheet to this file")
	f.BoolVar(&opts.allowPrivate, "allow-private", false, "allow pages on localhost and private networks")
	f.DurationVar(&opts.markupTimeout, "markup-timeout", 2*time.Second, "time to wait for page markup per attempt")
	f.BoolVar(&opts.watch, "watch", true, "reload the configuration file on change")
	f.StringSliceVar(&opts.sinks, "sink", []string{"css"}, "sinks that receive applied colours (css, jsonl)")
	return cmd
}

func runServe(cmd *cobra.Command, global *globalOptions, opts *serveOptions) error {
	cfg, err := global.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := global.logger(cmd, cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	css := sink.NewCSSSink(contrastOf(cfg), opts.cssPath)
	sinks, err := newSinkRegistry(css, cmd.OutOrStdout()).Fanout(opts.sinks...)
	if err != nil {
		return err
	}

	client := fetch.NewClient(fetch.Options{
		Timeout:      opts.markupTimeout,
		AllowPrivate: opts.allowPrivate,
		CacheMaxAge:  24 * time.Hour,
		Logger:       logger,
	})
	e := engine.New(engine.Options{
		Config:        cfg,
		Markup:        client,
		Favicon:       client,
		Sink:          sinks,
		Logger:        logger,
		Registerer:    reg,
		MarkupTimeout: opts.markupTimeout,
	})
	defer e.Close()

	if opts.watch && global.configPath != "" {
		if _, err := os.Stat(filepath.Dir(global.configPath)); err == nil {
			w, err := config.NewWatcher(global.configPath, logger, func(c config.Config) {
				c, err := global.override(cmd, c)
				if err != nil {
					logger.Warn("ignoring invalid configuration", "error", err)
					return
				}
				if err := css.SetContrast(contrastOf(c)); err != nil {
					logger.Warn("failed to update stylesheet", "error", err)
				}
				e.UpdateConfig(c)
				logger.Info("configuration reloaded", "path", global.configPath)
			})
			if err != nil {
				return err
			}
			defer w.Close()
		}
	}

	srv := &http.Server{
		Addr:              opts.listen,
		Handler:           newServeMux(e, css, reg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newSinkRegistry registers the sinks serve can deliver to.
func newSinkRegistry(css *sink.CSSSink, events io.Writer) *sink.Registry {
	reg := sink.NewRegistry()
	reg.Register(css)
	reg.Register(sink.NewJSONLines(events))
	return reg
}

// tabState is the JSON form of a tab's last outcome.
type tabState struct {
	Tab   string `json:"tab"`
	State string `json:"state"`
	resolvedColour
}

func newServeMux(e *engine.Engine, css *sink.CSSSink, gatherer prometheus.Gatherer, logger hclog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/trigger", func(w http.ResponseWriter, r *http.Request) {
		var t engine.Target
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
			return
		}
		if t.ID == "" {
			writeError(w, http.StatusBadRequest, "tab is required")
			return
		}
		if !e.Config().Enabled {
			writeError(w, http.StatusServiceUnavailable, engine.ErrDisabled.Error())
			return
		}
		if !e.Trigger(t) {
			writeError(w, http.StatusConflict, engine.ErrBusy.Error())
			return
		}
		logger.Debug("trigger accepted", "tab", t.ID, "url", t.URL)
		writeJSON(w, http.StatusAccepted, map[string]string{"tab": t.ID, "state": e.State(t.ID).String()})
	})

	mux.HandleFunc("GET /v1/tabs/{tab}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("tab")
		out, ok := e.Last(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no colour applied to tab %q", id))
			return
		}
		writeJSON(w, http.StatusOK, tabState{
			Tab:            id,
			State:          e.State(id).String(),
			resolvedColour: newResolvedColour(out),
		})
	})

	mux.HandleFunc("DELETE /v1/tabs/{tab}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("tab")
		e.Forget(id)
		if err := css.Remove(id); err != nil {
			logger.Warn("failed to update stylesheet", "tab", id, "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /v1/stylesheet", func(w http.ResponseWriter, _ *http.Request) {
		sheet, err := css.Stylesheet()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		_, _ = w.Write([]byte(sheet))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
