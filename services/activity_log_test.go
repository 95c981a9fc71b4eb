package services

import (
	"classdesk_go/models"
	"classdesk_go/normalize"
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestActivityLogWithoutSinks(t *testing.T) {
	s := NewActivityLogService(nil, nil)
	ctx := context.Background()

	if err := s.Record(ctx, models.ActivityLog{Action: "UPDATE", Resource: "web_users"}); err == nil {
		t.Errorf("Record with no redis and no database should fail")
	}
	if _, err := s.Flush(ctx, 0); err == nil {
		t.Errorf("Flush without redis should fail")
	}
	if _, _, err := s.List(ctx, ActivityFilter{}, 1, 50); err == nil {
		t.Errorf("List without a database should fail")
	}
	if _, err := s.Stats(ctx, time.Now()); err == nil {
		t.Errorf("Stats without a database should fail")
	}
	now := time.Date(2025, 4, 30, 12, 0, 0, 0, time.UTC)
	_, cutoff, err := s.Purge(ctx, 30, now)
	if err == nil {
		t.Errorf("Purge without a database should fail")
	}
	if want := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC); !cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", cutoff, want)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewActivityLogService(nil, nil)
	photos := normalize.NewPhotoResolver(nil, normalize.NewMemoryPhotoCache())
	if err := s.StartScheduler(photos); err != nil {
		t.Fatalf("StartScheduler: %v", err)
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("without redis only the photo cache sweep is scheduled, got %d jobs", len(s.cron.Entries()))
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

// failingDB builds a dry-run connection whose failAt-th statement errors.
func failingDB(t *testing.T, failAt int, boom error) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=classdesk_test"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	n := 0
	inject := func(tx *gorm.DB) {
		n++
		if n == failAt {
			tx.AddError(boom)
		}
	}
	if err := db.Callback().Query().Before("gorm:query").Register("test:fail_query", inject); err != nil {
		t.Fatal(err)
	}
	if err := db.Callback().Row().Before("gorm:row").Register("test:fail_row", inject); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestStatsReportsQueryFailures(t *testing.T) {
	cases := []struct {
		name   string
		failAt int
	}{
		{"total count", 1},
		{"today count", 2},
		{"week count", 3},
		{"action breakdown", 4},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			boom := errors.New("connection reset")
			s := NewActivityLogService(failingDB(t, tc.failAt, boom), nil)
			if _, err := s.Stats(context.Background(), time.Now()); !errors.Is(err, boom) {
				t.Fatalf("expected the query failure, got %v", err)
			}
		})
	}
}
