package middleware

import (
	"classdesk_go/models"
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or assigns a new one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("request_id", id)
		c.Set(requestIDHeader, id)
		return c.Next()
	}
}

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		entry := logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"duration":   time.Since(start).String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
			"request_id": c.Locals("request_id"),
		})
		if status >= 500 {
			entry.Error("HTTP Request")
		} else {
			entry.Info("HTTP Request")
		}
		return err
	}
}

// ActivityRecorder is where admin writes are logged.
type ActivityRecorder interface {
	Record(ctx context.Context, entry models.ActivityLog) error
}

// LogActivity records one admin action in the background. Strings taken
// from the request are copied first; fasthttp reuses their buffers once the
// handler returns.
func LogActivity(c *fiber.Ctx, recorder ActivityRecorder, action, resource, resourceID string, details interface{}) {
	if recorder == nil {
		return
	}

	meta := map[string]interface{}{
		"request_id": c.Locals("request_id"),
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     c.Response().StatusCode(),
	}
	if details != nil {
		meta["details"] = details
	}
	data, err := sonic.Marshal(meta)
	if err != nil {
		logrus.WithError(err).Warn("Failed to encode activity details")
	}

	entry := models.ActivityLog{
		CreatedAt:  time.Now(),
		UserID:     GetCapabilities(c).UserID,
		Action:     action,
		Resource:   utils.CopyString(resource),
		ResourceID: utils.CopyString(resourceID),
		Details:    data,
		IPAddress:  utils.CopyString(c.IP()),
		UserAgent:  utils.CopyString(c.Get(fiber.HeaderUserAgent)),
	}

	go func(e models.ActivityLog) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("panic recovered in LogActivity goroutine")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.Record(ctx, e); err != nil {
			logrus.WithError(err).Error("Failed to record activity log")
		}
	}(entry)
}

// LogActivityMiddleware records every successful write under /api.
func LogActivityMiddleware(recorder ActivityRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}

		err := c.Next()

		action := ActionFor(c.Method(), c.Path())
		if action == "" || err != nil || c.Response().StatusCode() >= 400 {
			return err
		}
		LogActivity(c, recorder, action, ResourceFromPath(c.Path()), c.Params("id"), nil)
		return err
	}
}

// ActionFor names the action of a write request. Imports return "" because
// their handler logs them with the import summary.
func ActionFor(method, path string) string {
	if strings.HasSuffix(strings.TrimRight(path, "/"), "/import") {
		return ""
	}
	switch method {
	case fiber.MethodPost:
		return "CREATE"
	case fiber.MethodPut, fiber.MethodPatch:
		return "UPDATE"
	case fiber.MethodDelete:
		return "DELETE"
	}
	return ""
}

// ResourceFromPath returns the segment after /api, e.g. "class-requests".
func ResourceFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "api" {
		return parts[1]
	}
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}
