package services

import (
	"classdesk_go/models"
	"classdesk_go/normalize"
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	activityQueueKey = "logs:queue"
	activityTTL      = 24 * time.Hour
)

// ActivityLogService buffers admin activity in Redis and moves it to the
// activity_logs table. Without Redis every entry is inserted directly.
type ActivityLogService struct {
	redis *redis.Client
	db    *gorm.DB
	cron  *cron.Cron
}

func NewActivityLogService(db *gorm.DB, client *redis.Client) *ActivityLogService {
	return &ActivityLogService{redis: client, db: db}
}

// Record stores one entry, preferring the Redis queue.
func (s *ActivityLogService) Record(ctx context.Context, entry models.ActivityLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if s.redis != nil {
		err := s.enqueue(ctx, entry)
		if err == nil {
			return nil
		}
		logrus.WithError(err).Warn("Failed to cache activity log, saving directly to database")
	}
	if s.db == nil {
		return fmt.Errorf("no activity log sink available")
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

func (s *ActivityLogService) enqueue(ctx context.Context, entry models.ActivityLog) error {
	data, err := sonic.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}
	key := fmt.Sprintf("log:%s:%s:%d", entry.UserID, entry.Action, time.Now().UnixNano())

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, key, data, activityTTL)
	pipe.ZAdd(ctx, activityQueueKey, &redis.Z{Score: float64(entry.CreatedAt.Unix()), Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache log: %w", err)
	}
	return nil
}

// Flush moves every queued entry older than minAge into the database. It
// returns the number of entries written.
func (s *ActivityLogService) Flush(ctx context.Context, minAge time.Duration) (int, error) {
	if s.redis == nil {
		return 0, fmt.Errorf("redis client not available")
	}
	if s.db == nil {
		return 0, fmt.Errorf("database not available")
	}

	cutoff := time.Now().Add(-minAge)
	keys, err := s.redis.ZRangeByScore(ctx, activityQueueKey, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoff.Unix()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read log queue: %w", err)
	}

	var processed, failed int
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key).Result()
		if err == redis.Nil {
			// expired before the flush ran
			s.redis.ZRem(ctx, activityQueueKey, key)
			continue
		}
		if err != nil {
			logrus.WithError(err).WithField("key", key).Error("Failed to read cached log")
			failed++
			continue
		}

		var entry models.ActivityLog
		if err := sonic.UnmarshalString(data, &entry); err != nil {
			logrus.WithError(err).WithField("key", key).Error("Failed to decode cached log")
			failed++
			continue
		}
		entry.ID = 0
		if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
			logrus.WithError(err).WithField("key", key).Error("Failed to save log to database")
			failed++
			continue
		}

		pipe := s.redis.Pipeline()
		pipe.Del(ctx, key)
		pipe.ZRem(ctx, activityQueueKey, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logrus.WithError(err).WithField("key", key).Error("Failed to remove log from cache")
		}
		processed++
	}

	logrus.WithFields(logrus.Fields{"flushed": processed, "errors": failed}).Info("Flushed cached activity logs")
	return processed, nil
}

// StartScheduler flushes the activity queue every ten minutes and clears the
// photo cache hourly so re-signed avatar URLs do not go stale.
func (s *ActivityLogService) StartScheduler(photos *normalize.PhotoResolver) error {
	c := cron.New()
	if s.redis != nil {
		if _, err := c.AddFunc("@every 10m", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if _, err := s.Flush(ctx, 5*time.Minute); err != nil {
				logrus.WithError(err).Error("Activity log flush failed")
			}
		}); err != nil {
			return err
		}
	}
	if photos != nil {
		if _, err := c.AddFunc("@hourly", func() {
			photos.Reset()
			logrus.Debug("Photo cache cleared")
		}); err != nil {
			return err
		}
	}
	c.Start()
	s.cron = c
	logrus.Info("Activity log scheduler started")
	return nil
}

// Stop halts the scheduler and performs a final flush of everything queued.
func (s *ActivityLogService) Stop(ctx context.Context) {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.redis != nil && s.db != nil {
		if _, err := s.Flush(ctx, 0); err != nil {
			logrus.WithError(err).Warn("Final activity log flush failed")
		}
	}
}

// ActivityFilter narrows activity log queries. Zero values match everything.
type ActivityFilter struct {
	UserID   string
	Action   string
	Resource string
	From     time.Time
	To       time.Time
}

// ActivityStats summarises the activity_logs table.
type ActivityStats struct {
	Total             int64                `json:"total"`
	TotalToday        int64                `json:"total_today"`
	TotalThisWeek     int64                `json:"total_this_week"`
	ActionBreakdown   map[string]int64     `json:"action_breakdown"`
	ResourceBreakdown map[string]int64     `json:"resource_breakdown"`
	Recent            []models.ActivityLog `json:"recent_activity"`
}

func (s *ActivityLogService) scoped(ctx context.Context, f ActivityFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Resource != "" {
		q = q.Where("resource = ?", f.Resource)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	return q
}

// List returns one page of flushed entries, newest first.
func (s *ActivityLogService) List(ctx context.Context, f ActivityFilter, page, limit int) ([]models.ActivityLog, int64, error) {
	if s.db == nil {
		return nil, 0, fmt.Errorf("database not available")
	}
	var total int64
	if err := s.scoped(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}
	var out []models.ActivityLog
	err := s.scoped(ctx, f).Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve logs: %w", err)
	}
	return out, total, nil
}

// Stats counts entries overall, today and this week, broken down by action
// and resource.
func (s *ActivityLogService) Stats(ctx context.Context, now time.Time) (ActivityStats, error) {
	stats := ActivityStats{
		ActionBreakdown:   make(map[string]int64),
		ResourceBreakdown: make(map[string]int64),
	}
	if s.db == nil {
		return stats, fmt.Errorf("database not available")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thisWeek := today.AddDate(0, 0, -int(today.Weekday()))

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.ActivityLog{}).Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("failed to count logs: %w", err)
	}
	if err := db.Model(&models.ActivityLog{}).Where("created_at >= ?", today).Count(&stats.TotalToday).Error; err != nil {
		return stats, fmt.Errorf("failed to count today's logs: %w", err)
	}
	if err := db.Model(&models.ActivityLog{}).Where("created_at >= ?", thisWeek).Count(&stats.TotalThisWeek).Error; err != nil {
		return stats, fmt.Errorf("failed to count this week's logs: %w", err)
	}

	var grouped []struct {
		Key   string
		Count int64
	}
	if err := db.Model(&models.ActivityLog{}).Select("action AS key, COUNT(*) AS count").Group("action").Scan(&grouped).Error; err != nil {
		return stats, fmt.Errorf("failed to group logs by action: %w", err)
	}
	for _, g := range grouped {
		stats.ActionBreakdown[g.Key] = g.Count
	}
	grouped = grouped[:0]
	if err := db.Model(&models.ActivityLog{}).Select("resource AS key, COUNT(*) AS count").Group("resource").Scan(&grouped).Error; err != nil {
		return stats, fmt.Errorf("failed to group logs by resource: %w", err)
	}
	for _, g := range grouped {
		stats.ResourceBreakdown[g.Key] = g.Count
	}

	if err := db.Order("created_at DESC").Limit(10).Find(&stats.Recent).Error; err != nil {
		return stats, fmt.Errorf("failed to load recent logs: %w", err)
	}
	return stats, nil
}

// Purge deletes flushed entries older than the given number of days.
func (s *ActivityLogService) Purge(ctx context.Context, days int, now time.Time) (int64, time.Time, error) {
	cutoff := now.AddDate(0, 0, -days)
	if s.db == nil {
		return 0, cutoff, fmt.Errorf("database not available")
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if res.Error != nil {
		return 0, cutoff, fmt.Errorf("failed to delete old logs: %w", res.Error)
	}
	return res.RowsAffected, cutoff, nil
}
