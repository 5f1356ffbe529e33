package middleware

import (
	"strconv"
	"time"

	"finapp-backend/internal/infrastructure/metrics"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Metrics records request latency by route template, not raw path.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(c.Request().Method, route, strconv.Itoa(c.Response().Status), time.Since(start).Seconds())
			return nil
		}
	}
}

// RequestLog writes one structured line per request.
func RequestLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			fields := log.Fields{
				"method":  req.Method,
				"route":   c.Path(),
				"status":  res.Status,
				"latency": time.Since(start).String(),
				"bytes":   res.Size,
			}
			if sess, ok := SessionFrom(c); ok {
				fields["user_id"] = sess.UserID
			}
			entry := log.WithFields(fields)
			switch {
			case res.Status >= 500:
				entry.Error("request")
			case res.Status >= 400:
				entry.Warn("request")
			default:
				entry.Debug("request")
			}
			return nil
		}
	}
}
