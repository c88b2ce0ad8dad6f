package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loadgen.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Requests != 3 || cfg.IDsPerCall != 5 || len(cfg.Priorities) != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigRejectsUnknownPriority(t *testing.T) {
	path := writeConfig(t, "base_url: http://localhost:8080\npriorities: [HIGH, urgent]\n")
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

func TestRunSubmitsConsecutiveIDsAcrossPriorities(t *testing.T) {
	type submission struct {
		IDs      []int64 `json:"ids"`
		Priority string  `json:"priority"`
	}
	var (
		mu   sync.Mutex
		seen []submission
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var sub submission
			if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			mu.Lock()
			seen = append(seen, sub)
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]string{"ingestion_id": sub.Priority})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ingestion_id": "x", "status": "yet_to_start", "batches": []any{}})
	}))
	defer srv.Close()

	path := writeConfig(t, "base_url: "+srv.URL+"\ninterval: 0s\nrequests: 3\nids_per_request: 5\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(seen))
	}
	if seen[0].Priority != "HIGH" || seen[1].Priority != "MEDIUM" || seen[2].Priority != "LOW" {
		t.Fatalf("unexpected priorities: %+v", seen)
	}
	if seen[1].IDs[0] != 6 || seen[2].IDs[4] != 15 {
		t.Fatalf("ids are not consecutive: %+v", seen)
	}
}
