// internal/wizard/memstore_test.go
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// memStore is an in-memory RecordStore that records every call.
type memStore struct {
	mu      sync.Mutex
	rows    map[string]Record
	calls   []storeCall
	nextID  int
	failAll error
	delay   time.Duration
}

type storeCall struct {
	Op     string
	ID     string
	Fields Record
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]Record)}
}

func (s *memStore) Create(ctx context.Context, table string, fields Record) (Record, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll != nil {
		return nil, &StoreError{Op: "create", Table: table, Err: s.failAll}
	}

	s.nextID++
	id := fmt.Sprintf("draft-%d", s.nextID)
	row := copyRecord(fields)
	row["id"] = id
	s.rows[id] = row
	s.calls = append(s.calls, storeCall{Op: "create", ID: id, Fields: copyRecord(fields)})
	return copyRecord(row), nil
}

func (s *memStore) Update(ctx context.Context, table string, id string, fields Record) (Record, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll != nil {
		return nil, &StoreError{Op: "update", Table: table, Err: s.failAll}
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, &StoreError{Op: "update", Table: table, Err: ErrRecordNotFound}
	}
	for k, v := range fields {
		row[k] = v
	}
	s.calls = append(s.calls, storeCall{Op: "update", ID: id, Fields: copyRecord(fields)})
	return copyRecord(row), nil
}

func (s *memStore) ListWhere(ctx context.Context, table string, where Predicate, orderBy string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, row := range s.rows {
		match := true
		for k, v := range where {
			if row[k] != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, copyRecord(row))
		}
	}
	return out, nil
}

func (s *memStore) setFailure(err error) {
	s.mu.Lock()
	s.failAll = err
	s.mu.Unlock()
}

func (s *memStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (s *memStore) lastCall() storeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return storeCall{}
	}
	return s.calls[len(s.calls)-1]
}

func (s *memStore) row(id string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRecord(s.rows[id])
}

func copyRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

var errConnectionRefused = errors.New("connection refused")
