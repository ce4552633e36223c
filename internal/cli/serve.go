package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	fiberzap "github.com/gofiber/contrib/v3/zap"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/handlers"
	"github.com/seuros/sleepboard/internal/logging"
	"github.com/seuros/sleepboard/internal/metrics"
	"github.com/seuros/sleepboard/internal/middleware"
	"github.com/seuros/sleepboard/internal/realtime"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the dashboard server.

The serve command loads the dataset once and serves the configured variant.
A dataset that is missing or lacks a required column stops startup.

Environment variables:
  DATA_FILE  Path to the survey CSV (default: Sleep_health_and_lifestyle_dataset.csv)
  HOST       Listen host (default: 127.0.0.1)
  PORT       Listen port (default: 8050)
  VARIANT    story, grid, explorer, distribution or correlation (default: story)

Example:
  sleepboard serve --data ./Sleep_health_and_lifestyle_dataset.csv --variant grid`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// runServe loads everything up front and serves until interrupted.
func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	defer logging.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := metrics.New()
	dash, err := loadDashboard(cfg, dashboard.WithObserver(m))
	if err != nil {
		logging.Fatal("failed to load dashboard",
			zap.String("data_file", cfg.DataFile),
			zap.String("variant", cfg.Variant),
			zap.Error(err),
		)
		return err
	}
	m.SetDatasetRows(dash.Table().Len())

	h, err := handlers.New(dash, Assets, Version)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(dash)
	m.TrackSessions(hub.GetClientCount)

	app := newApp(h, hub, m)

	logging.L().Info("sleepboard starting",
		zap.String("version", Version),
		zap.String("addr", cfg.Addr()),
		zap.String("variant", dash.Variant().Name),
		zap.Int("rows", dash.Table().Len()),
	)
	return serve(parent, app, hub, cfg.Addr())
}

// newApp assembles the middleware chain and every route.
func newApp(h *handlers.Handlers, hub *realtime.Hub, m *metrics.Metrics) *fiber.App {
	app := fiber.New(createFiberConfig("Sleepboard " + Version))

	app.Use(recoverer.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberzap.New(fiberzap.Config{Logger: logging.L()}))
	app.Use(middleware.Metrics(m))
	app.Use(middleware.Version(Version))

	h.Routes(app)
	app.Get("/ws", hub.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	return app
}

// serve runs app until ctx is cancelled or a signal arrives, then tells
// websocket clients to go away and drains in-flight requests.
func serve(ctx context.Context, app *fiber.App, hub *realtime.Hub, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.L().Info("shutting down")

		hub.Shutdown()
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
