// Package status serves the daemon's diagnostic HTTP endpoints.
package status

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"reniced/cleanup"
	"reniced/config"

	// registers the daemon counters on the default registry for /metrics
	_ "reniced/metrics"
)

var started = time.Now()

// Start serves the status API in the background and registers its shutdown.
// Everything on it is read-only diagnostics: liveness, the effective rule set
// and the prometheus counters. The daemon itself never depends on it, which
// is why the listener only exists when an address is configured.
func Start(addr string, rules config.RuleSet) {
	e := newServer(rules)
	cleanup.AddOnStopFunc(cleanup.Status, func(_ os.Signal) {
		if err := e.Close(); err != nil {
			log.Errorf("error closing status server: %v", err)
		}
	})
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("status server stopped: %v", err)
		}
	}()
}

func newServer(rules config.RuleSet) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger(), middleware.Recover())
	routes(e, rules)
	return e
}

func routes(e *echo.Echo, rules config.RuleSet) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status": "ok",
			"uptime": time.Since(started).Round(time.Second).String(),
			"rules":  len(rules.Process),
		})
	})
	e.GET("/rules", func(c echo.Context) error {
		return c.JSON(http.StatusOK, rules)
	})
	e.GET("/config", func(c echo.Context) error {
		out, err := rules.Dump()
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, out)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
