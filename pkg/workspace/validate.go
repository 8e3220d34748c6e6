package workspace

import (
	"fmt"
	"time"
)

// ValidationError reports a request that cannot become a document.
// Message is safe to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Messages surfaced to API callers.
const (
	MsgTitleRequired     = "Title is required"
	MsgTableNameRequired = "Table name is required"
	MsgPageIDRequired    = "Page ID is required"
	MsgTableIDRequired   = "Table ID is required"
	MsgPageParentCycle   = "A page cannot be nested under itself"
)

// PageInput carries the fields of a page create request.
type PageInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Icon     string `json:"icon"`
	ParentID string `json:"parentId"`
}

// NewPage validates in and builds a page stamped with now.
func NewPage(in PageInput, now time.Time) (*Page, error) {
	if in.Title == "" {
		return nil, &ValidationError{Field: "title", Message: MsgTitleRequired}
	}
	return &Page{
		ID:        NewID(),
		Title:     in.Title,
		Content:   in.Content,
		Icon:      in.Icon,
		ParentID:  in.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PagePatch is a partial page update. Nil fields keep their current value.
type PagePatch struct {
	ID       string  `json:"id"`
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Icon     *string `json:"icon"`
	ParentID *string `json:"parentId"`
}

// Apply returns a copy of p with the patch applied and UpdatedAt set to now.
// A page may not name itself as its parent.
func (patch PagePatch) Apply(p Page, now time.Time) (Page, error) {
	if patch.ParentID != nil && *patch.ParentID == p.ID {
		return p, &ValidationError{Field: "parentId", Message: MsgPageParentCycle}
	}

	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Icon != nil {
		p.Icon = *patch.Icon
	}
	if patch.ParentID != nil {
		p.ParentID = *patch.ParentID
	}
	p.UpdatedAt = now
	return p, nil
}

// TableInput carries the fields of a table create request.
type TableInput struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable validates in and builds a table stamped with now. A table
// without columns gets DefaultColumns.
func NewTable(in TableInput, now time.Time) (*Table, error) {
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Message: MsgTableNameRequired}
	}

	cols := DefaultColumns()
	if len(in.Columns) > 0 {
		var err error
		cols, err = NormalizeColumns(in.Columns)
		if err != nil {
			return nil, err
		}
	}

	return &Table{
		ID:        NewID(),
		Name:      in.Name,
		Columns:   cols,
		Rows:      NormalizeRows(in.Rows),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TablePatch replaces each non-nil field wholesale.
type TablePatch struct {
	ID      string    `json:"id"`
	Name    *string   `json:"name"`
	Columns *[]Column `json:"columns"`
	Rows    *[]Row    `json:"rows"`
}

// Apply returns a copy of t with the patch applied and UpdatedAt set to now.
func (patch TablePatch) Apply(t Table, now time.Time) (Table, error) {
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Columns != nil {
		cols, err := NormalizeColumns(*patch.Columns)
		if err != nil {
			return Table{}, err
		}
		t.Columns = cols
	}
	if patch.Rows != nil {
		t.Rows = NormalizeRows(*patch.Rows)
	}
	t.UpdatedAt = now
	return t, nil
}

// NormalizeColumns fills in a missing id, name ("Column") and type
// ("text"). An unrecognized type is rejected.
func NormalizeColumns(cols []Column) ([]Column, error) {
	out := make([]Column, 0, len(cols))
	for i, c := range cols {
		if c.ID == "" {
			c.ID = NewID()
		}
		if c.Name == "" {
			c.Name = "Column"
		}
		if c.Type == "" {
			c.Type = ColumnText
		}
		if !c.Type.Valid() {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("columns[%d].type", i),
				Message: fmt.Sprintf("Invalid column type %q", c.Type),
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// NormalizeRows gives every row an id and a non-nil cell map.
func NormalizeRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewRow(r.ID, r.Cells))
	}
	return out
}

// NewRow builds a row, generating an id when id is empty.
func NewRow(id string, cells map[string]any) Row {
	if id == "" {
		id = NewID()
	}
	if cells == nil {
		cells = map[string]any{}
	}
	return Row{ID: id, Cells: cells}
}
