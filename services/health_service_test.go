package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{1400 * time.Millisecond, "1s"},
		{90 * time.Second, "1m 30s"},
		{26*time.Hour + 5*time.Minute, "1d 2h 5m"},
		{2 * time.Hour, "2h"},
	}
	for _, tc := range cases {
		if got := humanizeDuration(tc.in); got != tc.want {
			t.Errorf("humanizeDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCombineStatus(t *testing.T) {
	if got := combineStatus(overallStatusOK, overallStatusDegraded); got != overallStatusDegraded {
		t.Errorf("ok+degraded = %s", got)
	}
	if got := combineStatus(overallStatusCritical, overallStatusDegraded); got != overallStatusCritical {
		t.Errorf("critical+degraded = %s", got)
	}
	if got := combineStatus("bogus", overallStatusOK); got != overallStatusOK {
		t.Errorf("unknown current = %s", got)
	}
}

func TestStorageProbe(t *testing.T) {
	s := NewHealthService("", "").WithStorage(pingFunc(func(context.Context) error {
		return errors.New("bucket unreachable")
	}))
	dep, status := s.checkStorage(context.Background())
	if status != overallStatusDegraded || dep.Status != dependencyStatusDown || dep.Error == "" {
		t.Fatalf("failing bucket: %+v %s", dep, status)
	}

	report := s.GetHealthReport(context.Background())
	if len(report.Dependencies) != 3 || report.Dependencies[2].Name != "s3" {
		t.Fatalf("dependencies = %+v", report.Dependencies)
	}
	// no database in tests
	if report.Status != overallStatusCritical {
		t.Errorf("status = %s", report.Status)
	}
	if s.HTTPStatusForOverall(report.Status) != 503 {
		t.Errorf("critical must map to 503")
	}

	if _, ready := s.Ready(context.Background()); ready {
		t.Errorf("not ready without a database")
	}
}
