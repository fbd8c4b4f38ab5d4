package settings

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/db"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

func openTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("SAFEBELL_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("SAFEBELL_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	t.Cleanup(pool.Close)
	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		t.Fatalf("schema error: %v", err)
	}
	return pool
}

func TestWriteReadRoundTrip(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	store := NewStore(pool, nil, "test:settings")
	ctx := context.Background()

	written, err := store.Write(ctx, model.Settings{
		FormDisabled:        true,
		MaintenancePin:      "11112222",
		MasterResetPin:      "55556666",
		AdminActionPin:      "33334444",
		AdminDownloadPin:    "77778888",
		FallbackOpenAIKey:   "key-openai",
		FallbackCerebrasKey: "key-cerebras",
	})
	if err != nil {
		t.Fatalf("write error: %v", err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}

	// Postgres stores microseconds; allow for the truncation, then compare
	// the records whole.
	if got.UpdatedAt.Sub(written.UpdatedAt).Abs() > time.Millisecond {
		t.Fatalf("updated_at drifted: wrote %s, read %s", written.UpdatedAt, got.UpdatedAt)
	}
	got.UpdatedAt = written.UpdatedAt
	if got != written {
		t.Fatalf("read back %+v, wrote %+v", got, written)
	}

	next, err := store.Write(ctx, model.Settings{
		MaintenancePin:   "11112222",
		MasterResetPin:   "55556666",
		AdminActionPin:   "33334444",
		AdminDownloadPin: "77778888",
	})
	if err != nil {
		t.Fatalf("restore write error: %v", err)
	}
	if next.Version != written.Version+1 {
		t.Fatalf("expected version %d, got %d", written.Version+1, next.Version)
	}
}
