package pairing_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"wetime-service/internal/model"
	"wetime-service/internal/service/pairing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newPairingService(t *testing.T) *pairing.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Pairing{}); err != nil {
		t.Fatalf("failed to migrate pairing model: %v", err)
	}
	return pairing.NewService(db)
}

func TestRecordComputesPartnerWait(t *testing.T) {
	ctx := context.Background()
	svc := newPairingService(t)
	matchedAt := time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)

	rec, err := svc.Record(ctx, pairing.RecordParams{
		TenantID:        "acme",
		RequesterID:     "U2",
		PartnerID:       "U1",
		PartnerJoinedAt: matchedAt.Add(-90 * time.Second),
		MatchedAt:       matchedAt,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if rec.ID == "" || rec.PartnerWaitS != 90 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestListRecentIsTenantScopedNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newPairingService(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	for i, tenant := range []string{"acme", "acme", "globex", "acme"} {
		_, err := svc.Record(ctx, pairing.RecordParams{
			TenantID:    tenant,
			RequesterID: fmt.Sprintf("R%d", i),
			PartnerID:   fmt.Sprintf("P%d", i),
			MatchedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
	}

	items, err := svc.ListRecent(ctx, "acme", 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].RequesterID != "R3" || items[1].RequesterID != "R1" {
		t.Fatalf("unexpected order: %s, %s", items[0].RequesterID, items[1].RequesterID)
	}
}
