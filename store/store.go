package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Conceptual-Machines/magda-lilypond-go/models"
)

// ErrNotFound is returned when no score is stored under an id
var ErrNotFound = errors.New("score not found")

const keyPrefix = "score:"

// Entry is one stored score: the source it was parsed from and its view model
type Entry struct {
	ID        string            `msgpack:"id" json:"id"`
	Name      string            `msgpack:"name" json:"name"`
	Source    string            `msgpack:"source" json:"source"`
	CreatedAt time.Time         `msgpack:"created_at" json:"created_at"`
	View      *models.ViewModel `msgpack:"view" json:"view"`
}

// Summary is the listing form of an Entry
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a score library backed by BadgerDB
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the library in dir
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store: directory is required")
	}
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

// Put stores e under a new id, or its own id when set, and returns the id
func (s *Store) Put(_ context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	data, err := msgpack.Marshal(&e)
	if err != nil {
		return "", fmt.Errorf("encode score %s: %w", e.ID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(e.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("store score %s: %w", e.ID, err)
	}
	return e.ID, nil
}

// Get loads the entry stored under id
func (s *Store) Get(_ context.Context, id string) (*Entry, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load score %s: %w", id, err)
	}

	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode score %s: %w", id, err)
	}
	return &e, nil
}

// List returns a summary of every stored score, oldest first
func (s *Store) List(_ context.Context) ([]Summary, error) {
	out := []Summary{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var e Entry
			if err := msgpack.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			sum := Summary{ID: e.ID, Name: e.Name, CreatedAt: e.CreatedAt}
			if e.View != nil {
				sum.Title = e.View.Title
			}
			out = append(out, sum)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes the score stored under id
func (s *Store) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(id)); err != nil {
			return err
		}
		return txn.Delete(key(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete score %s: %w", id, err)
	}
	return nil
}

// Resolve expands a unique id prefix to the full id
func (s *Store) Resolve(ctx context.Context, prefix string) (string, error) {
	all, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	var match string
	for _, sum := range all {
		if sum.ID == prefix {
			return sum.ID, nil
		}
		if strings.HasPrefix(sum.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
			}
			match = sum.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	return match, nil
}

// badgerLogger keeps badger quiet except for warnings and errors
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...any)   { log.Printf("❌ [badger] "+f, v...) }
func (badgerLogger) Warningf(f string, v ...any) { log.Printf("⚠️ [badger] "+f, v...) }
func (badgerLogger) Infof(string, ...any)        {}
func (badgerLogger) Debugf(string, ...any)       {}
