package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/dustin/go-humanize"

	"github.com/chessplay/core/internal/board"
	"github.com/chessplay/core/internal/engine"
	"github.com/chessplay/core/internal/storage"
	"github.com/chessplay/core/internal/uci"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB      = flag.Int("hash", 64, "transposition table size in MB")
	persistHash = flag.Bool("persist-hash", false, "save the transposition table on quit and reload it on startup")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	// Create engine, Lazy-SMP search across GOMAXPROCS workers.
	eng := engine.NewEngine(*hashMB)
	log.Printf("[chessplay] transposition table: %s, %d workers",
		humanize.IBytes(uint64(*hashMB)*1024*1024), engine.NumWorkers)

	var store *storage.Storage
	if *persistHash {
		var err error
		store, err = storage.NewStorage()
		if err != nil {
			log.Printf("[chessplay] persistence disabled, could not open storage: %v", err)
		} else {
			defer store.Close()
			loadTTSnapshot(eng, store)
		}
	}

	protocol := uci.New(eng)
	if store != nil {
		protocol.OnQuit = func() { saveTTSnapshot(eng, store) }
	}
	protocol.Run()
}

func loadTTSnapshot(eng *engine.Engine, store *storage.Storage) {
	records, err := store.LoadTTSnapshot()
	if err != nil {
		log.Printf("[chessplay] could not load transposition table snapshot: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}
	entries := make([]engine.TTHashEntry, len(records))
	for i, r := range records {
		entries[i] = engine.TTHashEntry{
			Hash: r.Hash,
			TTEntry: engine.TTEntry{
				BestMove: board.Move(r.BestMove),
				Score:    r.Score,
				Depth:    r.Depth,
				Flag:     engine.TTFlag(r.Flag),
			},
		}
	}
	eng.TT().Restore(entries)
	log.Printf("[chessplay] restored %d transposition table entries", len(entries))
}

func saveTTSnapshot(eng *engine.Engine, store *storage.Storage) {
	snapshot := eng.TT().Snapshot()
	records := make([]storage.TTRecord, len(snapshot))
	for i, e := range snapshot {
		records[i] = storage.TTRecord{
			Hash:     e.Hash,
			BestMove: uint16(e.BestMove),
			Score:    e.Score,
			Depth:    e.Depth,
			Flag:     uint8(e.Flag),
		}
	}
	if err := store.SaveTTSnapshot(records); err != nil {
		log.Printf("[chessplay] could not save transposition table snapshot: %v", err)
		return
	}
	log.Printf("[chessplay] saved %d transposition table entries", len(records))
}
