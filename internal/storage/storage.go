package storage

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes. TT records are keyed by an 8-byte big-endian Zobrist hash
// following the prefix so Badger's iterator walks them in hash order;
// session records are keyed by their session ID.
const (
	prefixTT      = "tt/"
	prefixSession = "session/"
)

// TTRecord is the on-disk shape of one transposition-table slot, independent
// of the engine package's in-memory packing so storage has no dependency on
// engine internals.
type TTRecord struct {
	Hash     uint64
	BestMove uint16
	Score    int16
	Depth    int8
	Flag     uint8
}

// SessionRecord captures one played or in-progress game: starting position,
// the moves applied to it in long algebraic form, and the outcome.
type SessionRecord struct {
	ID        string    `json:"id"`
	StartFEN  string    `json:"start_fen"`
	Moves     []string  `json:"moves"`
	Result    string    `json:"result"` // "1-0", "0-1", "1/2-1/2", or "*" if unfinished
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Storage wraps BadgerDB for persisting TT snapshots and session records.
type Storage struct {
	db *badger.DB
}

// NewStorage opens (creating if needed) the BadgerDB database under the
// platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return NewStorageAt(dbDir)
}

// NewStorageAt opens (creating if needed) the BadgerDB database at dir.
func NewStorageAt(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable badger's own logging; use [storage] log.Printf instead

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func ttKey(hash uint64) []byte {
	key := make([]byte, len(prefixTT)+8)
	copy(key, prefixTT)
	binary.BigEndian.PutUint64(key[len(prefixTT):], hash)
	return key
}

func encodeTTRecord(r TTRecord) []byte {
	buf := make([]byte, 14)
	binary.BigEndian.PutUint64(buf[0:8], r.Hash)
	binary.BigEndian.PutUint16(buf[8:10], r.BestMove)
	binary.BigEndian.PutUint16(buf[10:12], uint16(r.Score))
	buf[12] = uint8(r.Depth)
	buf[13] = r.Flag
	return buf
}

func decodeTTRecord(data []byte) (TTRecord, bool) {
	if len(data) < 14 {
		return TTRecord{}, false
	}
	return TTRecord{
		Hash:     binary.BigEndian.Uint64(data[0:8]),
		BestMove: binary.BigEndian.Uint16(data[8:10]),
		Score:    int16(binary.BigEndian.Uint16(data[10:12])),
		Depth:    int8(data[12]),
		Flag:     data[13],
	}, true
}

// SaveTTSnapshot persists a batch of transposition-table entries in one
// write transaction, so a search session can resume from a warm hash table.
func (s *Storage) SaveTTSnapshot(records []TTRecord) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, r := range records {
		if err := wb.Set(ttKey(r.Hash), encodeTTRecord(r)); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// LoadTTSnapshot returns every persisted transposition-table entry.
func (s *Storage) LoadTTSnapshot() ([]TTRecord, error) {
	var records []TTRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixTT)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix([]byte(prefixTT)); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				if rec, ok := decodeTTRecord(val); ok {
					records = append(records, rec)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return records, err
}

// ClearTTSnapshot deletes every persisted transposition-table entry.
func (s *Storage) ClearTTSnapshot() error {
	return s.db.DropPrefix([]byte(prefixTT))
}

// SaveSession persists a game session record, keyed by its ID.
func (s *Storage) SaveSession(rec SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixSession+rec.ID), data)
	})
}

// LoadSession retrieves a game session record by ID.
func (s *Storage) LoadSession(id string) (*SessionRecord, error) {
	var rec SessionRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixSession + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// ListSessionIDs returns the IDs of every persisted session.
func (s *Storage) ListSessionIDs() ([]string, error) {
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixSession)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix([]byte(prefixSession)); it.Next() {
			key := it.Item().KeyCopy(nil)
			ids = append(ids, string(key[len(prefixSession):]))
		}
		return nil
	})

	return ids, err
}
