// Package journal persists destruction attempts keyed by resource and
// phase, so an interrupted or partially failed run can be resumed without
// repeating work that already reached a settled state.
package journal

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/btree"
	"go.etcd.io/bbolt"

	"github.com/sundownlabs/teardown/types"
)

// Bucket names in bbolt.
var (
	bucketAttempts = []byte("attempts")
	bucketMeta     = []byte("meta")
)

// Journal is the durable record of a decommission run: the latest attempt
// per (resource, phase) key in bbolt, a btree index over those keys for
// ordered reads, and the JSONL audit stream alongside.
type Journal struct {
	mu sync.Mutex

	index *btree.BTreeG[*indexEntry]
	db    *bbolt.DB
	wal   *WAL
	dir   string
}

type indexEntry struct {
	key     string
	attempt types.Attempt
}

// Open creates or opens the journal in the given directory. Prior attempts
// are loaded so Terminal and Settled reflect earlier runs.
func Open(dir string) (*Journal, error) {
	wal, err := OpenWAL(dir)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "teardown.db")
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		_ = wal.Close()
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketAttempts, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		_ = wal.Close()
		return nil, err
	}

	j := &Journal{
		index: btree.NewG[*indexEntry](32, func(a, b *indexEntry) bool {
			return a.key < b.key
		}),
		db:  db,
		wal: wal,
		dir: dir,
	}

	if err := j.rebuildIndex(); err != nil {
		_ = db.Close()
		_ = wal.Close()
		return nil, err
	}

	return j, nil
}

// Close closes the journal.
func (j *Journal) Close() error {
	if err := j.wal.Close(); err != nil {
		_ = j.db.Close()
		return err
	}
	return j.db.Close()
}

// Append records an attempt. Settled entries (Succeeded, Skipped) are never
// overwritten; re-appending one is a no-op, which keeps re-runs idempotent.
// Failed, TimedOut and Pending entries are superseded by newer attempts.
func (j *Journal) Append(a types.Attempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := a.Key()
	if prev, ok := j.lookup(key); ok && prev.Status.Terminal() && !prev.Status.Resumable() {
		return nil
	}

	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	err = j.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAttempts).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to store attempt %s: %w", key, err)
	}

	j.index.ReplaceOrInsert(&indexEntry{key: key, attempt: a})

	// Full history goes to the audit stream, including superseded attempts.
	return j.wal.Append(EntryAttempt, a.Resource.ID, a)
}

// Note writes a non-attempt event to the audit stream.
func (j *Journal) Note(entryType EntryType, resourceID string, data interface{}) error {
	return j.wal.Append(entryType, resourceID, data)
}

// NoteError writes a non-attempt event carrying an error.
func (j *Journal) NoteError(entryType EntryType, resourceID string, data interface{}, cause error) error {
	return j.wal.AppendError(entryType, resourceID, data, cause)
}

// Terminal returns the recorded attempt for a resource in a phase, if any.
func (j *Journal) Terminal(r types.ResourceRecord, phase int) (types.Attempt, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.lookup(types.AttemptKey(r, phase))
	if !ok {
		return types.Attempt{}, false
	}
	return entry, true
}

// Settled reports whether the resource needs no further work in this phase:
// a prior run already Succeeded or Skipped it.
func (j *Journal) Settled(r types.ResourceRecord, phase int) bool {
	a, ok := j.Terminal(r, phase)
	return ok && a.Status.Terminal() && !a.Status.Resumable()
}

// Attempts returns the latest attempt per key, in key order.
func (j *Journal) Attempts() []types.Attempt {
	j.mu.Lock()
	defer j.mu.Unlock()

	attempts := make([]types.Attempt, 0, j.index.Len())
	j.index.Ascend(func(e *indexEntry) bool {
		attempts = append(attempts, e.attempt)
		return true
	})
	return attempts
}

// Summary projects the journal into per-type and per-region counts.
func (j *Journal) Summary(accountID string) types.RunSummary {
	return types.Summarize(accountID, j.Attempts())
}

func (j *Journal) lookup(key string) (types.Attempt, bool) {
	if e, ok := j.index.Get(&indexEntry{key: key}); ok {
		return e.attempt, true
	}
	return types.Attempt{}, false
}

func (j *Journal) rebuildIndex() error {
	return j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAttempts).ForEach(func(k, v []byte) error {
			var a types.Attempt
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("corrupt attempt %s: %w", k, err)
			}
			j.index.ReplaceOrInsert(&indexEntry{key: string(k), attempt: a})
			return nil
		})
	})
}
