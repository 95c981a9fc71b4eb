package database

import (
	"classdesk_go/models"
	"context"
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=classdesk_test"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestExamCenterCreateWritesIsActive(t *testing.T) {
	cases := []struct {
		name   string
		active bool
	}{
		{"inactive", false},
		{"active", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			db := dryRunDB(t)
			var sql string
			var vars []interface{}
			err := db.Callback().Create().After("gorm:create").Register("test:capture", func(tx *gorm.DB) {
				sql = tx.Statement.SQL.String()
				vars = tx.Statement.Vars
			})
			if err != nil {
				t.Fatal(err)
			}

			store := NewExamCenterStore(db)
			center := &models.ExamCenter{
				ExamType:   "NEET",
				State:      "Kerala",
				City:       "Kochi",
				CenterName: "Hall",
				Address:    "1 Main Rd",
				IsActive:   tc.active,
				Status:     "inactive",
			}
			if err := store.Create(context.Background(), center); err != nil {
				t.Fatalf("Create: %v", err)
			}

			if !strings.Contains(sql, `"is_active"`) {
				t.Fatalf("is_active left to the column default: %s", sql)
			}
			found := false
			for _, v := range vars {
				if b, ok := v.(bool); ok {
					if b != tc.active {
						t.Fatalf("is_active bound as %v, want %v", b, tc.active)
					}
					found = true
				}
			}
			if !found {
				t.Fatalf("no is_active value bound: %v", vars)
			}
		})
	}
}
