package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fxconverter/internal/adapters/httpclient"
	"fxconverter/internal/api"
	"fxconverter/internal/config"
	httpserver "fxconverter/internal/platform/http"
	"fxconverter/internal/session"
	"fxconverter/internal/web/handler"

	"github.com/sirupsen/logrus"
)

// Run wires the application components, starts the refresher and HTTP server
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	cfgLevel := appCfg.Logging.Level
	if parsedLvl, parseErr := logrus.ParseLevel(cfgLevel); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	baseHTTPClient := &http.Client{Timeout: httpTimeout}
	currencyClient := httpclient.NewClient(baseHTTPClient, appCfg.HTTPClient.MaxConcurrent)

	// Sessions, each owning one converter
	sessions, err := session.NewManager(ctx, currencyClient, session.Config{
		BaseURL:     appCfg.Backend.BaseURL,
		TTL:         time.Duration(appCfg.Session.TTLSeconds) * time.Second,
		MaxSessions: appCfg.Session.MaxSessions,
		Amount:      appCfg.DefaultAmount(),
		From:        appCfg.Defaults.From,
		To:          appCfg.Defaults.To,
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to create session store")
		return err
	}
	defer sessions.Close()
	logrus.WithField("backend", appCfg.Backend.BaseURL).Info("✅ Session store ready")

	refresher := session.NewRefresher(sessions, time.Duration(appCfg.Refresh.IntervalSeconds)*time.Second)
	// Ensure refresher stops before sessions close
	defer func() {
		if shutDownErr := refresher.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Refresher shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := refresher.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start refresher")
		return startErr
	}

	// Handlers and router
	webHandler := handler.NewHandler(sessions, httpTimeout)
	limiter := api.NewRateLimiter(appCfg.RateLimit.RequestsPerSecond, appCfg.RateLimit.Burst)
	router := api.NewRouter(webHandler, limiter)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop the refresher and in-flight requests
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}
