// Package storage implements the block store handle of spec.md §4.B:
// a shared, read-lockable content store mapping block id to body,
// indexed by slot. It is bbolt-backed (the teacher's own beacon-chain
// database is a bbolt-backed KV store), fronted by an LRU body cache
// and a short-lived discard-reason cache that remembers why a recently
// deleted body was released.
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/massalabs/massa-core/consensus/types"
)

var (
	blocksBucket = []byte("blocks")
	slotsBucket  = []byte("slots")
)

const (
	bodyCacheSize          = 4096
	discardReasonTTL       = 10 * time.Minute
	discardReasonCleanup   = 10 * time.Minute
)

// Storage is a shared, cloneable handle onto a content-addressed block
// store. Cloning copies only the handle: all clones observe the same
// underlying database and caches.
type Storage struct {
	db           *bolt.DB
	bodyCache    *lru.Cache
	discardCache *gocache.Cache
}

// Open creates or opens a bbolt-backed block store at path.
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening block store at %s", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blocksBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(slotsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "initializing block store buckets")
	}
	bodyCache, err := lru.New(bodyCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "allocating block body cache")
	}
	return &Storage{
		db:           db,
		bodyCache:    bodyCache,
		discardCache: gocache.New(discardReasonTTL, discardReasonCleanup),
	}, nil
}

// Clone returns a handle sharing the same underlying store (spec.md
// §4.B's "shared, cloneable handle").
func (s *Storage) Clone() *Storage {
	return s
}

// Close releases the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// WriteBlock persists a block body, indexed both by id and by slot.
func (s *Storage) WriteBlock(b *types.Block) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return errors.Wrapf(err, "encoding block %s", b.Id)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(blocksBucket).Put(b.Id[:], buf.Bytes()); err != nil {
			return err
		}
		return addToSlotIndex(tx, b.Slot, b.Id)
	})
	if err != nil {
		return errors.Wrapf(err, "writing block %s", b.Id)
	}
	s.bodyCache.Add(b.Id, b)
	return nil
}

// DeleteBlock releases a block body (spec.md invariant 7: no body
// resides in the store for a Discarded/pruned block), recording a
// short-lived discard reason that DiscardReason reports for
// discardReasonTTL after the delete.
func (s *Storage) DeleteBlock(id types.BlockId, slot types.Slot, reason types.DiscardReason) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(blocksBucket).Delete(id[:]); err != nil {
			return err
		}
		return removeFromSlotIndex(tx, slot, id)
	})
	if err != nil {
		return errors.Wrapf(err, "deleting block %s", id)
	}
	s.bodyCache.Remove(id)
	s.discardCache.Set(id.String(), reason, gocache.DefaultExpiration)
	return nil
}

// DiscardReason returns a recently recorded discard reason for id.
func (s *Storage) DiscardReason(id types.BlockId) (types.DiscardReason, bool) {
	v, ok := s.discardCache.Get(id.String())
	if !ok {
		return "", false
	}
	return v.(types.DiscardReason), true
}

// ReadBlocks acquires a scoped read snapshot. The returned ReadGuard
// must be Release()d on every exit path; callers never hold one
// across a suspension point (spec.md §5).
func (s *Storage) ReadBlocks() (*ReadGuard, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, errors.Wrap(err, "beginning read transaction")
	}
	return &ReadGuard{storage: s, tx: tx}, nil
}

// ReadGuard is a scoped, read-only view of the block store.
type ReadGuard struct {
	storage *Storage
	tx      *bolt.Tx
	mu      sync.Mutex
	closed  bool
}

// Release ends the read snapshot. Idempotent.
func (g *ReadGuard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return g.tx.Rollback()
}

// Get returns the block with the given id, if present.
func (g *ReadGuard) Get(id types.BlockId) (*types.Block, bool) {
	if cached, ok := g.storage.bodyCache.Get(id); ok {
		return cached.(*types.Block), true
	}
	raw := g.tx.Bucket(blocksBucket).Get(id[:])
	if raw == nil {
		return nil, false
	}
	var b types.Block
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&b); err != nil {
		return nil, false
	}
	return &b, true
}

// GetBlocksBySlot returns the set of block ids stored at slot, if any.
func (g *ReadGuard) GetBlocksBySlot(slot types.Slot) (map[types.BlockId]struct{}, bool) {
	raw := g.tx.Bucket(slotsBucket).Get(slotKey(slot))
	if raw == nil {
		return nil, false
	}
	var ids []types.BlockId
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&ids); err != nil {
		return nil, false
	}
	out := make(map[types.BlockId]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, true
}

func addToSlotIndex(tx *bolt.Tx, slot types.Slot, id types.BlockId) error {
	bucket := tx.Bucket(slotsBucket)
	key := slotKey(slot)
	ids, err := decodeIds(bucket.Get(key))
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	return bucket.Put(key, mustEncodeIds(ids))
}

func removeFromSlotIndex(tx *bolt.Tx, slot types.Slot, id types.BlockId) error {
	bucket := tx.Bucket(slotsBucket)
	key := slotKey(slot)
	raw := bucket.Get(key)
	if raw == nil {
		return nil
	}
	ids, err := decodeIds(raw)
	if err != nil {
		return err
	}
	filtered := ids[:0]
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) == 0 {
		return bucket.Delete(key)
	}
	return bucket.Put(key, mustEncodeIds(filtered))
}

func decodeIds(raw []byte) ([]types.BlockId, error) {
	if raw == nil {
		return nil, nil
	}
	var ids []types.BlockId
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func mustEncodeIds(ids []types.BlockId) []byte {
	var buf bytes.Buffer
	// encoding a []types.BlockId of fixed-size arrays cannot fail.
	_ = gob.NewEncoder(&buf).Encode(ids)
	return buf.Bytes()
}

func slotKey(slot types.Slot) []byte {
	key := make([]byte, 9)
	binary.BigEndian.PutUint64(key, slot.Period)
	key[8] = slot.Thread
	return key
}
