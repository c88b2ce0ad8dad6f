package routes

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/fr0stylo/ingestq/internal/adapters/sqlite"
	"github.com/fr0stylo/ingestq/internal/app/domain"
	appservices "github.com/fr0stylo/ingestq/internal/app/services"
	"github.com/fr0stylo/ingestq/internal/db"
	"github.com/fr0stylo/ingestq/internal/scheduler"
)

// heldProcessor blocks every call until release is closed.
type heldProcessor struct {
	release chan struct{}

	mu    sync.Mutex
	calls []int64
}

func (p *heldProcessor) Process(ctx context.Context, _ domain.Batch, recordID int64) error {
	p.mu.Lock()
	p.calls = append(p.calls, recordID)
	p.mu.Unlock()
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *heldProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func TestIngestFlowCompletesThroughDispatcher(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "flow"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	store := sqlite.NewRecordStore(database)

	processor := &heldProcessor{release: make(chan struct{})}
	var (
		cooldownMu sync.Mutex
		cooldowns  []time.Duration
	)
	sched := scheduler.New(store, processor, scheduler.Config{Cooldown: scheduler.DefaultCooldown},
		scheduler.WithLogger(discardLogger()),
		scheduler.WithSleep(func(_ context.Context, d time.Duration) error {
			cooldownMu.Lock()
			cooldowns = append(cooldowns, d)
			cooldownMu.Unlock()
			return nil
		}),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = sched.Stop(ctx)
	})

	service := appservices.NewIngestionService(store, sched, appservices.IngestionConfig{})
	e := echo.New()
	NewAPIRoutes(service, sched, discardLogger()).RegisterRoutes(e)

	rec := doJSON(t, e, http.MethodPost, "/ingest", `{"ids":[1,2,3,4,5],"priority":"HIGH"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ingestionID := decodeBody[ingestResponse](t, rec).IngestionID
	require.NotEmpty(t, ingestionID)

	require.Eventually(t, func() bool { return processor.callCount() == 3 }, 2*time.Second, 5*time.Millisecond)

	status := fetchStatus(t, e, ingestionID)
	require.Equal(t, "triggered", status.Status)
	require.Len(t, status.Batches, 2)
	require.Equal(t, "[1 2 3]", fmt.Sprint(status.Batches[0].IDs))
	require.Equal(t, "[4 5]", fmt.Sprint(status.Batches[1].IDs))
	require.Equal(t, "triggered", status.Batches[0].Status)
	require.Equal(t, "yet_to_start", status.Batches[1].Status)

	close(processor.release)

	require.Eventually(t, func() bool {
		return fetchStatus(t, e, ingestionID).Status == "completed"
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !sched.Running() }, 2*time.Second, 5*time.Millisecond)

	cooldownMu.Lock()
	require.Equal(t, []time.Duration{scheduler.DefaultCooldown, scheduler.DefaultCooldown}, cooldowns)
	cooldownMu.Unlock()
	require.Equal(t, 5, processor.callCount())

	rec = doJSON(t, e, http.MethodGet, "/status/does-not-exist", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func fetchStatus(t *testing.T, h http.Handler, ingestionID string) statusResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodGet, "/status/"+ingestionID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %s: expected 200, got %d", ingestionID, rec.Code)
	}
	return decodeBody[statusResponse](t, rec)
}
