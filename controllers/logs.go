package controllers

import (
	"classdesk_go/models"
	"classdesk_go/services"
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ActivityLogStore is the part of services.ActivityLogService the log
// endpoints need.
type ActivityLogStore interface {
	List(ctx context.Context, f services.ActivityFilter, page, limit int) ([]models.ActivityLog, int64, error)
	Stats(ctx context.Context, now time.Time) (services.ActivityStats, error)
	Purge(ctx context.Context, days int, now time.Time) (int64, time.Time, error)
	Flush(ctx context.Context, minAge time.Duration) (int, error)
}

type LogController struct {
	store ActivityLogStore
}

func NewLogController(store ActivityLogStore) *LogController {
	return &LogController{store: store}
}

// GetLogs retrieves paginated activity logs with filters
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	logs, total, err := lc.store.List(c.UserContext(), activityFilterFromQuery(c), page, limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to retrieve logs")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve logs",
		})
	}

	return c.JSON(fiber.Map{
		"logs":        logs,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
	})
}

// activityFilterFromQuery reads user_id, action, resource and an inclusive
// start_date/end_date range (YYYY-MM-DD). Unparseable dates are ignored.
func activityFilterFromQuery(c *fiber.Ctx) services.ActivityFilter {
	f := services.ActivityFilter{
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
	}
	if d, err := time.Parse("2006-01-02", c.Query("start_date")); err == nil {
		f.From = d
	}
	if d, err := time.Parse("2006-01-02", c.Query("end_date")); err == nil {
		f.To = d.Add(24 * time.Hour)
	}
	return f
}

// GetLogStats provides logging statistics
func (lc *LogController) GetLogStats(c *fiber.Ctx) error {
	stats, err := lc.store.Stats(c.UserContext(), time.Now())
	if err != nil {
		logrus.WithError(err).Error("Failed to compute log stats")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve log statistics",
		})
	}
	return c.JSON(stats)
}

// DeleteOldLogs removes logs older than ?days= (default 30).
func (lc *LogController) DeleteOldLogs(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "30"))
	if err != nil || days < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid days parameter",
		})
	}

	deleted, cutoff, err := lc.store.Purge(c.UserContext(), days, time.Now())
	if err != nil {
		logrus.WithError(err).Error("Failed to delete old logs")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete old logs",
		})
	}

	return c.JSON(fiber.Map{
		"message":       "Old logs deleted successfully",
		"deleted_count": deleted,
		"cutoff_date":   cutoff,
	})
}

// FlushCachedLogs moves everything queued in Redis into the database now.
func (lc *LogController) FlushCachedLogs(c *fiber.Ctx) error {
	processed, err := lc.store.Flush(c.UserContext(), 0)
	if err != nil {
		logrus.WithError(err).Error("Failed to flush cached logs")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to flush cached logs",
		})
	}
	return c.JSON(fiber.Map{
		"message":         "Cached logs flushing completed",
		"processed_count": processed,
	})
}
