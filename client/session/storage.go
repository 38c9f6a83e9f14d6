package session

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// MemoryStorage keeps the session for the lifetime of the process only.
type MemoryStorage struct {
	mu    sync.Mutex
	s     Session
	saved bool
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (ms *MemoryStorage) Load() (Session, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.s, ms.saved, nil
}

func (ms *MemoryStorage) Save(s Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.s, ms.saved = s, true
	return nil
}

func (ms *MemoryStorage) Clear() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.s, ms.saved = Session{}, false
	return nil
}

var (
	sessionBucket = []byte("session")
	currentKey    = []byte("current")
)

// BoltStorage persists the session in a bbolt file so it survives restarts.
type BoltStorage struct {
	db *bbolt.DB
}

var _ Storage = (*BoltStorage)(nil)

func NewBoltStorage(db *bbolt.DB) *BoltStorage {
	return &BoltStorage{db: db}
}

// OpenBoltStorage opens (or creates) the bbolt file at path. Only the current user may read it.
func OpenBoltStorage(path string, options *bbolt.Options) (*BoltStorage, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, errors.Wrap(err, "opening bbolt db")
	}
	return NewBoltStorage(db), nil
}

func (bs *BoltStorage) Close() error {
	return bs.db.Close()
}

func (bs *BoltStorage) Load() (Session, bool, error) {
	var s Session
	var found bool
	err := bs.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		data := b.Get(currentKey)
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &s)
	})
	if err != nil {
		return Session{}, false, errors.Wrap(err, "reading session")
	}
	return s, found, nil
}

func (bs *BoltStorage) Save(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return bs.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(sessionBucket)
		if err != nil {
			return err
		}
		return b.Put(currentKey, data)
	})
}

func (bs *BoltStorage) Clear() error {
	return bs.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		return b.Delete(currentKey)
	})
}
