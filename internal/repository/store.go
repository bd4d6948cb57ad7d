package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/persistence"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

const (
	keyUsers     = "users"
	keyRequests  = "requests"
	keyBlocked   = "blocked_users"
	keyFiles     = "uploaded_files"
	pdfKeyPrefix = "pdf_"
)

// ContentKey returns the document key holding the raw bytes of a request's attachment.
func ContentKey(requestID string) string {
	return pdfKeyPrefix + requestID
}

// Store runs portal operations against a KVStore. Every Update commits as one batch.
type Store struct {
	kv persistence.KVStore
	mu sync.Mutex
}

// NewStore wraps kv.
func NewStore(kv persistence.KVStore) *Store {
	return &Store{kv: kv}
}

// Ping checks the backing store.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// View runs fn with a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(newTx(ctx, s.kv, false))
}

// Update runs fn and commits every document it changed. Nothing is written when fn fails.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(ctx, s.kv, true)
	if err := fn(tx); err != nil {
		return err
	}
	batch, err := tx.batch()
	if err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}
	if err := s.kv.Apply(ctx, batch); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Tx is a unit of work over the portal documents. Documents load on first use.
type Tx struct {
	ctx      context.Context
	kv       persistence.KVStore
	writable bool

	users    *document[domain.User]
	requests *document[domain.Request]
	files    *document[domain.FileRecord]
	blocked  *blockSet

	contents       map[string][]byte
	removeContents map[string]struct{}
}

func newTx(ctx context.Context, kv persistence.KVStore, writable bool) *Tx {
	return &Tx{
		ctx:            ctx,
		kv:             kv,
		writable:       writable,
		contents:       map[string][]byte{},
		removeContents: map[string]struct{}{},
	}
}

var errReadOnly = errors.New("write in read-only transaction")

func (tx *Tx) checkWritable() error {
	if !tx.writable {
		return errReadOnly
	}
	return nil
}

// Context returns the context the transaction runs under.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

func (tx *Tx) load(key string, into any) error {
	raw, err := tx.kv.Get(tx.ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

type committer interface {
	dirtyKey() (string, bool)
	encode() ([]byte, error)
}

func (tx *Tx) loaded() []committer {
	var docs []committer
	if tx.users != nil {
		docs = append(docs, tx.users)
	}
	if tx.requests != nil {
		docs = append(docs, tx.requests)
	}
	if tx.files != nil {
		docs = append(docs, tx.files)
	}
	if tx.blocked != nil {
		docs = append(docs, tx.blocked)
	}
	return docs
}

func (tx *Tx) batch() (persistence.Batch, error) {
	batch := persistence.Batch{Sets: map[string][]byte{}}
	for _, doc := range tx.loaded() {
		key, dirty := doc.dirtyKey()
		if !dirty {
			continue
		}
		raw, err := doc.encode()
		if err != nil {
			return persistence.Batch{}, fmt.Errorf("encode %s: %w", key, err)
		}
		batch.Sets[key] = raw
	}
	for key, content := range tx.contents {
		raw, err := json.Marshal(content)
		if err != nil {
			return persistence.Batch{}, err
		}
		batch.Sets[key] = raw
	}
	for key := range tx.removeContents {
		batch.Deletes = append(batch.Deletes, key)
	}
	return batch, nil
}
