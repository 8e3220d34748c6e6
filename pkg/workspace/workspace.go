// Package workspace holds the page and table documents users keep next to
// their conversations, and turns them into chat context.
package workspace

import (
	"time"

	"github.com/google/uuid"
)

// Page is a markdown document. Pages nest through ParentID; an empty
// ParentID marks a root page.
type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Icon      string    `json:"icon,omitempty"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ColumnType is the kind of value a table column holds.
type ColumnType string

const (
	ColumnText        ColumnType = "text"
	ColumnNumber      ColumnType = "number"
	ColumnDate        ColumnType = "date"
	ColumnSelect      ColumnType = "select"
	ColumnMultiselect ColumnType = "multiselect"
	ColumnCheckbox    ColumnType = "checkbox"
	ColumnURL         ColumnType = "url"
	ColumnEmail       ColumnType = "email"
)

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnText, ColumnNumber, ColumnDate, ColumnSelect,
		ColumnMultiselect, ColumnCheckbox, ColumnURL, ColumnEmail:
		return true
	default:
		return false
	}
}

type Column struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
	Options []string   `json:"options,omitempty"`
}

// Row holds cell values keyed by column id.
type Row struct {
	ID    string         `json:"id"`
	Cells map[string]any `json:"cells"`
}

type Table struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Columns   []Column  `json:"columns"`
	Rows      []Row     `json:"rows"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewID returns a fresh document id.
func NewID() string {
	return uuid.NewString()
}

// DefaultColumns is the column set of a table created without columns.
func DefaultColumns() []Column {
	return []Column{
		{ID: NewID(), Name: "Name", Type: ColumnText},
		{ID: NewID(), Name: "Status", Type: ColumnSelect, Options: []string{"Todo", "In Progress", "Done"}},
	}
}
