package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/strongdm/ai-cxdb-det/internal/config"
	"github.com/strongdm/ai-cxdb-det/internal/logging"
	"github.com/strongdm/ai-cxdb-det/internal/script"
	"github.com/strongdm/ai-cxdb-det/pkg/det"
)

var (
	metricsAddr string
	metricsHold time.Duration
)

var replayCmd = &cobra.Command{
	Use:   "replay [file|-]",
	Short: "Replay a report script against a fresh tracer",
	Long: `Replay reads report directives (from a file, or stdin with "-" or no
argument), applies them to a tracer in order and prints the resulting
development error, runtime error and transient fault logs.

Script format:
  dev|runtime|transient <module> <instance> <api> <error>
  clear dev|runtime|transient`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address while replaying")
	replayCmd.Flags().DurationVar(&metricsHold, "metrics-hold", 0, "keep serving /metrics this long after the replay")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	in, closeIn, err := openScript(cmd, args)
	if err != nil {
		return err
	}
	directives, err := script.Parse(in)
	closeIn()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var reg *prometheus.Registry
	if metricsAddr != "" {
		reg = prometheus.NewRegistry()
	}

	w, err := buildTracer(cfg, logger, registerer(reg), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer w.close()

	var srv *http.Server
	if reg != nil {
		srv = serveMetrics(metricsAddr, reg, logger.Error)
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	w.tracer.Init(det.Config{})
	w.tracer.Start()

	res, runErr := script.Run(ctx, w.tracer, directives)

	if err := w.tracer.Close(ctx); err != nil {
		logger.Warn("det sink close failed", "error", err)
	}

	printLogs(cmd.OutOrStdout(), w.tracer)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d reports (%d rejected), %d clears\n", res.Reports, res.Rejected, res.Clears)

	if srv != nil {
		if metricsHold > 0 {
			select {
			case <-time.After(metricsHold):
			case <-ctx.Done():
			}
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	return runErr
}

// registerer avoids handing a typed nil *Registry to buildTracer.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

func openScript(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("open script: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logError func(msg string, args ...any)) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logError("metrics server failed", "error", err)
		}
	}()
	return srv
}

func printLogs(out io.Writer, tracer *det.Tracer) {
	for _, c := range det.Categories() {
		records := tracer.Records(c)
		fmt.Fprintf(out, "%s (%d", c, len(records))
		if dropped := tracer.Dropped(c); dropped > 0 {
			fmt.Fprintf(out, ", %d dropped", dropped)
		}
		fmt.Fprintln(out, "):")
		for i, r := range records {
			fmt.Fprintf(out, "  %3d  %s\n", i+1, r)
		}
	}
}
