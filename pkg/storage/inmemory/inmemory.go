// Package inmemory is a process-local storage.Driver. Documents live in
// maps guarded by a single RWMutex and are copied on the way in and out,
// so callers never share memory with the store.
package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/workspace"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards every map below
	mu sync.RWMutex

	pages  map[string]*workspace.Page
	tables map[string]*workspace.Table
	turns  []*storage.Turn
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		pages:  make(map[string]*workspace.Page),
		tables: make(map[string]*workspace.Table),
	}
}

func (d *Driver) CreatePage(_ context.Context, page *workspace.Page) error {
	if page == nil {
		return errors.New("cannot store nil page")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p := *page
	d.pages[p.ID] = &p
	return nil
}

func (d *Driver) GetPage(_ context.Context, id string) (*workspace.Page, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.pages[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: storage.KindPage, ID: id}
	}
	cp := *p
	return &cp, nil
}

func (d *Driver) ListPages(_ context.Context, parentID *string) ([]*workspace.Page, error) {
	parent := ""
	if parentID != nil {
		parent = *parentID
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []*workspace.Page{}
	for _, p := range d.pages {
		if p.ParentID != parent {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}

	slices.SortFunc(out, func(a, b *workspace.Page) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

func (d *Driver) UpdatePage(_ context.Context, page *workspace.Page) error {
	if page == nil {
		return errors.New("cannot store nil page")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pages[page.ID]; !ok {
		return storage.NotFoundError{Kind: storage.KindPage, ID: page.ID}
	}
	p := *page
	d.pages[p.ID] = &p
	return nil
}

func (d *Driver) DeletePage(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pages[id]; !ok {
		return storage.NotFoundError{Kind: storage.KindPage, ID: id}
	}

	// Walk the subtree breadth first; the map is small enough that a scan
	// per level is fine.
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		delete(d.pages, cur)
		for childID, p := range d.pages {
			if p.ParentID == cur {
				queue = append(queue, childID)
			}
		}
	}
	return nil
}

func (d *Driver) CreateTable(_ context.Context, table *workspace.Table) error {
	if table == nil {
		return errors.New("cannot store nil table")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.tables[table.ID] = cloneTable(table)
	return nil
}

func (d *Driver) GetTable(_ context.Context, id string) (*workspace.Table, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tables[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: storage.KindTable, ID: id}
	}
	return cloneTable(t), nil
}

func (d *Driver) ListTables(_ context.Context) ([]*workspace.Table, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*workspace.Table, 0, len(d.tables))
	for _, t := range d.tables {
		out = append(out, cloneTable(t))
	}

	slices.SortFunc(out, func(a, b *workspace.Table) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

func (d *Driver) UpdateTable(_ context.Context, table *workspace.Table) error {
	if table == nil {
		return errors.New("cannot store nil table")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tables[table.ID]; !ok {
		return storage.NotFoundError{Kind: storage.KindTable, ID: table.ID}
	}
	d.tables[table.ID] = cloneTable(table)
	return nil
}

func (d *Driver) DeleteTable(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tables[id]; !ok {
		return storage.NotFoundError{Kind: storage.KindTable, ID: id}
	}
	delete(d.tables, id)
	return nil
}

func (d *Driver) AppendRow(_ context.Context, tableID string, row workspace.Row, updatedAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tables[tableID]
	if !ok {
		return storage.NotFoundError{Kind: storage.KindTable, ID: tableID}
	}
	t.Rows = append(t.Rows, cloneRow(row))
	t.UpdatedAt = updatedAt
	return nil
}

func (d *Driver) SaveTurn(_ context.Context, turn *storage.Turn) error {
	if turn == nil {
		return errors.New("cannot store nil turn")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	t := *turn
	t.Messages = slices.Clone(turn.Messages)
	d.turns = append(d.turns, &t)
	return nil
}

func (d *Driver) ListTurns(_ context.Context, limit int) ([]*storage.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*storage.Turn, 0, len(d.turns))
	for _, t := range d.turns {
		cp := *t
		cp.Messages = slices.Clone(t.Messages)
		out = append(out, &cp)
	}

	slices.SortStableFunc(out, func(a, b *storage.Turn) int {
		return cmp.Compare(b.CompletedAt.UnixNano(), a.CompletedAt.UnixNano())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}

func cloneTable(t *workspace.Table) *workspace.Table {
	cp := *t
	cp.Columns = make([]workspace.Column, len(t.Columns))
	for i, c := range t.Columns {
		c.Options = slices.Clone(c.Options)
		cp.Columns[i] = c
	}
	cp.Rows = make([]workspace.Row, len(t.Rows))
	for i, r := range t.Rows {
		cp.Rows[i] = cloneRow(r)
	}
	return &cp
}

func cloneRow(r workspace.Row) workspace.Row {
	cells := make(map[string]any, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return workspace.Row{ID: r.ID, Cells: cells}
}
