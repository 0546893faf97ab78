package record

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// BoltSink stores frames in a bbolt database, one bucket per buffer,
// keyed by the big-endian serial counter.
type BoltSink struct {
	mu sync.RWMutex
	db *bbolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*BoltSink, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open frame store %s: %w", path, err)
	}
	return &BoltSink{db: db}, nil
}

func serialKey(serial int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(serial))
	return k
}

// Write stores f, replacing a frame with the same serial.
func (b *BoltSink) Write(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(f)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(f.Buffer))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %s", err)
		}
		return bucket.Put(serialKey(f.Serial), value)
	})
}

// Frames returns the frames of a buffer in serial order.
func (b *BoltSink) Frames(buffer string) ([]Frame, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, ErrClosed
	}

	frames := make([]Frame, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(buffer))
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var f Frame
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("frame %s/%d: %w", buffer, binary.BigEndian.Uint64(k), err)
			}
			frames = append(frames, f)
		}
		return nil
	})
	return frames, err
}

// Buffers returns the names of the recorded buffers.
func (b *BoltSink) Buffers() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, ErrClosed
	}

	var names []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

// Close closes the database.
func (b *BoltSink) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
