package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/ttracx/deepboreai/internal/api"
	"github.com/ttracx/deepboreai/internal/config"
	"github.com/ttracx/deepboreai/internal/dashboard"
	"github.com/ttracx/deepboreai/internal/feed"
	"github.com/ttracx/deepboreai/internal/history"
	"github.com/ttracx/deepboreai/internal/render"
	"github.com/ttracx/deepboreai/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "deepbore.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level := parseLogLevel(cfg.Advanced.LogLevel)
	log.SetLevel(level)
	feedLogger := log.New("feed")
	feedLogger.SetLevel(level)
	svcLogger := log.New("dashboard")
	svcLogger.SetLevel(level)

	// Dashboard state, live feed and history
	state := dashboard.NewState()
	listener := feed.NewListener(cfg.FeedURL(),
		feed.WithReadLimit(int64(cfg.Advanced.WebSocketMaxMessageSize)*1024),
		feed.WithLogger(feedLogger),
	)
	fetcher := history.NewFetcher(cfg.HistoryURL(), nil,
		time.Duration(cfg.History.TimeoutSeconds)*time.Second)
	svc := dashboard.NewService(state, listener, fetcher,
		dashboard.WithRefreshSchedule(cfg.History.RefreshSchedule),
		dashboard.WithServiceLogger(svcLogger),
	)

	handlers := api.NewHandlers(&api.Dependencies{
		State:     state,
		Refresher: svc,
		ExportURL: cfg.ExportURL(),
		ChartSize: render.ChartSize{Width: cfg.Chart.Width, Height: cfg.Chart.Height},
		Version:   Version,
	})

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(level)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				path == "/ws" ||
				strings.HasPrefix(path, web.StaticPrefix)
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	// Compression middleware
	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Server.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/ws"
			},
		}))
	}

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.SetupMiddleware(e)
	api.RegisterRoutes(e, handlers)
	if err := web.RegisterStaticRoutes(e); err != nil {
		fmt.Printf("Warning: failed to register static routes: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go handlers.WebSocket.Run(ctx.Done())

	// The feed is never reopened; once it drops the page shows the
	// disconnected banner until restart.
	go func() {
		if err := svc.Run(ctx); err != nil {
			e.Logger.Errorf("dashboard service stopped: %v", err)
		}
	}()

	// Configure server with settings from YAML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           DeepBore Drilling Ops Dashboard                 ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", *configPath)
	fmt.Printf("║  Listen:    http://%-39s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Feed:      %-46s║\n", cfg.FeedURL())
	fmt.Printf("║  History:   %-46s║\n", cfg.HistoryURL())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	e.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Errorf("shutdown: %v", err)
	}
	svc.Wait()
}

func parseLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
