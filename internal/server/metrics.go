package server

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var bridgeRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ghostwriter_bridge_requests_total",
		Help: "Bridge operations handled, by operation and HTTP status.",
	},
	[]string{"op", "status"},
)

// opMetrics counts bridge operations. Counting happens whether or not the
// metrics endpoint is exposed; scraping is the optional part.
func opMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			op := strings.TrimPrefix(c.Path(), "/bridge/")
			bridgeRequests.WithLabelValues(op, strconv.Itoa(c.Response().Status)).Inc()
			return err
		}
	}
}
