package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nia-mentor/internal/config"
	"nia-mentor/internal/gateway"
	"nia-mentor/internal/metrics"
	"nia-mentor/internal/storage"
)

// app общие зависимости команд, собираются в PersistentPreRunE
type app struct {
	cfg     *config.AppConfig
	logger  *logrus.Logger
	log     *logrus.Entry
	metrics *metrics.Metrics
	gateway *gateway.Client
	store   *storage.Store

	in  io.Reader
	out io.Writer

	metricsServer *http.Server
}

// NewRootCommand собирает дерево команд
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out}
	var logLevel string

	root := &cobra.Command{
		Use:           "nia-mentor",
		Short:         "Career guidance assistant: mock interviews, chat, resume analysis and roadmaps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(logLevel)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides NIA_LOG_LEVEL")

	root.AddCommand(
		newInterviewCommand(a),
		newAskCommand(a),
		newResumeCommand(a),
		newRoadmapCommand(a),
		newResultsCommand(a),
	)
	return root
}

// Execute запускает CLI с аргументами процесса
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdin, os.Stdout).ExecuteContext(ctx)
}

func (a *app) setup(logLevel string) error {
	a.cfg = config.LoadAppConfig()

	a.logger = logrus.New()
	a.logger.SetOutput(os.Stderr)
	if logLevel == "" {
		logLevel = a.cfg.App.LogLevel
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	a.logger.SetLevel(level)
	a.log = logrus.NewEntry(a.logger)

	if err := a.cfg.Gateway.ValidateConfig(); err != nil {
		return fmt.Errorf("gateway config: %w", err)
	}
	a.log.WithFields(logrus.Fields(a.cfg.Gateway.GetEndpointInfo())).Debug("gateway endpoints")

	a.metrics = metrics.NewMetrics()
	a.gateway = gateway.New(a.cfg.Gateway, a.metrics, a.log)
	a.store = storage.NewStore(a.cfg.App.ResultsDir)

	if addr := a.cfg.App.MetricsAddr; addr != "" {
		a.serveMetrics(addr)
	}
	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.metricsServer = &http.Server{Addr: addr, Handler: mux}
	go func() {
		a.log.WithField("addr", addr).Info("serving metrics")
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("metrics server failed")
		}
	}()
}

func (a *app) shutdown() error {
	if a.metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer cancel()
	return a.metricsServer.Shutdown(ctx)
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
