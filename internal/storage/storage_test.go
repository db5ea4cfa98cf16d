package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "chessplay-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	dbDir := filepath.Join(tmpDir, "db")
	s, err := NewStorageAt(dbDir)
	if err != nil {
		t.Fatalf("NewStorageAt failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestTTSnapshotRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	records := []TTRecord{
		{Hash: 0x1111, BestMove: 100, Score: 50, Depth: 6, Flag: 0},
		{Hash: 0x2222, BestMove: 200, Score: -150, Depth: 8, Flag: 1},
	}

	if err := s.SaveTTSnapshot(records); err != nil {
		t.Fatalf("SaveTTSnapshot failed: %v", err)
	}

	loaded, err := s.LoadTTSnapshot()
	if err != nil {
		t.Fatalf("LoadTTSnapshot failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(loaded))
	}

	byHash := make(map[uint64]TTRecord)
	for _, r := range loaded {
		byHash[r.Hash] = r
	}

	if r, ok := byHash[0x1111]; !ok || r.Score != 50 || r.Depth != 6 {
		t.Errorf("Record 0x1111 round-tripped incorrectly: %+v", r)
	}
	if r, ok := byHash[0x2222]; !ok || r.Score != -150 || r.Flag != 1 {
		t.Errorf("Record 0x2222 round-tripped incorrectly: %+v", r)
	}
}

func TestTTSnapshotClear(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SaveTTSnapshot([]TTRecord{{Hash: 0xabc, Depth: 4}}); err != nil {
		t.Fatalf("SaveTTSnapshot failed: %v", err)
	}
	if err := s.ClearTTSnapshot(); err != nil {
		t.Fatalf("ClearTTSnapshot failed: %v", err)
	}

	loaded, err := s.LoadTTSnapshot()
	if err != nil {
		t.Fatalf("LoadTTSnapshot failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected empty snapshot after clear, got %d records", len(loaded))
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	rec := SessionRecord{
		ID:        "game-1",
		StartFEN:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Moves:     []string{"e2e4", "e7e5", "g1f3"},
		Result:    "*",
		StartedAt: time.Now(),
	}

	if err := s.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	loaded, err := s.LoadSession("game-1")
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if len(loaded.Moves) != 3 || loaded.Moves[2] != "g1f3" {
		t.Errorf("Moves did not round-trip correctly: %v", loaded.Moves)
	}
	if loaded.StartFEN != rec.StartFEN {
		t.Errorf("StartFEN mismatch: got %q", loaded.StartFEN)
	}
}

func TestListSessionIDs(t *testing.T) {
	s := newTestStorage(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.SaveSession(SessionRecord{ID: id, Result: "*"}); err != nil {
			t.Fatalf("SaveSession(%s) failed: %v", id, err)
		}
	}

	ids, err := s.ListSessionIDs()
	if err != nil {
		t.Fatalf("ListSessionIDs failed: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("Expected 3 session IDs, got %d", len(ids))
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	t.Logf("Data directory: %s", dataDir)
}
