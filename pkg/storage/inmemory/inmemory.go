package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/papercomputeco/pearl/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of records
	mu sync.RWMutex

	// records is keyed by record ID
	records map[string]*storage.Record
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*storage.Record),
	}
}

// Put stores a record. Returns true if the record was newly inserted,
// false if it already existed.
func (d *Driver) Put(_ context.Context, rec *storage.Record) (bool, error) {
	if rec == nil {
		return false, errors.New("cannot store nil record")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[rec.ID]; ok {
		return false, nil
	}

	cp := *rec
	d.records[rec.ID] = &cp
	return true, nil
}

// Get retrieves a record by ID.
func (d *Driver) Get(_ context.Context, id string) (*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[id]
	if !ok {
		return nil, storage.ErrNotFound{ID: id}
	}

	cp := *rec
	return &cp, nil
}

// List returns up to limit records, newest first.
func (d *Driver) List(_ context.Context, limit int) ([]*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*storage.Record, 0, len(d.records))
	for _, rec := range d.records {
		cp := *rec
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})

	if limit = storage.NormalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
