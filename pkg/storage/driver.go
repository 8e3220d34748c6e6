// Package storage defines the persistence boundary for workspace documents
// and recorded chat turns.
package storage

import (
	"context"
	"time"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/workspace"
)

// Turn is one completed chat exchange: the conversation the client sent
// and the assistant text the relay streamed back.
type Turn struct {
	ID          string            `json:"id"`
	Model       string            `json:"model"`
	Provider    string            `json:"provider"`
	Messages    []llm.ChatMessage `json:"messages"`
	Response    string            `json:"response"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt time.Time         `json:"completedAt"`
}

// PageStore persists pages.
type PageStore interface {
	// CreatePage stores a new page.
	CreatePage(ctx context.Context, page *workspace.Page) error

	// GetPage returns the page with the given id.
	GetPage(ctx context.Context, id string) (*workspace.Page, error)

	// ListPages returns the children of parentID, or the root pages when
	// parentID is nil or empty, most recently updated first.
	ListPages(ctx context.Context, parentID *string) ([]*workspace.Page, error)

	// UpdatePage replaces a stored page.
	UpdatePage(ctx context.Context, page *workspace.Page) error

	// DeletePage removes a page and, recursively, every page below it.
	DeletePage(ctx context.Context, id string) error
}

// TableStore persists tables.
type TableStore interface {
	CreateTable(ctx context.Context, table *workspace.Table) error
	GetTable(ctx context.Context, id string) (*workspace.Table, error)

	// ListTables returns every table, most recently updated first.
	ListTables(ctx context.Context) ([]*workspace.Table, error)

	UpdateTable(ctx context.Context, table *workspace.Table) error
	DeleteTable(ctx context.Context, id string) error

	// AppendRow adds row to the end of the table and sets its UpdatedAt.
	AppendRow(ctx context.Context, tableID string, row workspace.Row, updatedAt time.Time) error
}

// TurnStore persists recorded chat turns.
type TurnStore interface {
	SaveTurn(ctx context.Context, turn *Turn) error

	// ListTurns returns up to limit turns, newest first. A non-positive
	// limit returns every turn.
	ListTurns(ctx context.Context, limit int) ([]*Turn, error)
}

// Driver is a complete storage backend. Missing documents are reported as
// NotFoundError.
type Driver interface {
	PageStore
	TableStore
	TurnStore

	// Close closes the store and releases any resources.
	Close() error
}
