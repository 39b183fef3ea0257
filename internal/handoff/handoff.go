// Package handoff passes one terminal result per session id across a
// process boundary. The producer writes the result exactly once, the
// consumer reads and deletes it in one transaction; a second read finds
// nothing. This at-most-once contract is the only shared mutable state
// between the control surface and the detached acquisition worker.
package handoff

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	StatusSuccess = "success"
	StatusTimeout = "timeout"
	StatusError   = "error"
)

var (
	ErrAlreadyCompleted = errors.New("session already has a result")
)

// Result is the handoff artifact. Token is only present on success and
// only lives in the store until the first consume.
type Result struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r Result) validate() error {
	switch r.Status {
	case StatusSuccess, StatusTimeout, StatusError:
		return nil
	}
	return fmt.Errorf("unknown handoff status %q", r.Status)
}

// Broker stores results in a badger directory. Badger holds an exclusive
// directory lock, and the producer and consumer are different processes,
// so the store is opened per operation and held only for the transaction.
type Broker struct {
	dir string
}

func New(dir string) *Broker {
	return &Broker{dir: dir}
}

func (b *Broker) open() (*badger.DB, error) {
	opts := badger.DefaultOptions(b.dir).
		WithLogger(nil).
		WithSyncWrites(true)
	return badger.Open(opts)
}

func lockContention(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Cannot acquire directory lock")
}

func key(id string) []byte {
	return []byte("session/" + id)
}

// Complete records the terminal result for id. It is an error to
// complete the same session twice. Lock contention with a concurrently
// polling consumer is retried for a bounded window.
func (b *Broker) Complete(id string, result Result) error {
	if err := result.validate(); err != nil {
		return err
	}
	value, err := json.Marshal(result)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(15 * time.Second)
	for {
		kv, err := b.open()
		if lockContention(err) && time.Now().Before(deadline) {
			time.Sleep(250 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}

		err = kv.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key(id))
			if err == nil {
				return ErrAlreadyCompleted
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return txn.Set(key(id), value)
		})
		closeErr := kv.Close()
		if err != nil {
			return err
		}
		return closeErr
	}
}

// Consume returns the terminal result for id and removes it, so a second
// call reports not-found. A store locked by the producer mid-write is
// reported as not-found too; the caller polls again on its next tick.
func (b *Broker) Consume(id string) (Result, bool, error) {
	kv, err := b.open()
	if lockContention(err) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	defer kv.Close()

	var raw []byte
	err = kv.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.Delete(key(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}

	var result Result
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&result); err != nil {
		return Result{}, false, fmt.Errorf("corrupt handoff artifact: %w", err)
	}
	if err := result.validate(); err != nil {
		return Result{}, false, fmt.Errorf("corrupt handoff artifact: %w", err)
	}
	return result, true, nil
}
