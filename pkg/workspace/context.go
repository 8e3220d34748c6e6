package workspace

import (
	"fmt"
	"strconv"
	"strings"
)

const basePrompt = "You are a helpful AI assistant."

// SystemPrompt returns the system prompt for a chat turn. Non-empty context
// is appended after a fixed preamble.
func SystemPrompt(context string) string {
	if context == "" {
		return basePrompt
	}
	return basePrompt + " Use the following context:\n\n" + context
}

// Context reference kinds.
const (
	RefPage  = "page"
	RefTable = "table"
)

// ContextRef names a document to attach to a conversation.
type ContextRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ContextItem is a resolved document. Exactly one of Page or Table is set.
type ContextItem struct {
	Page  *Page
	Table *Table
}

// RenderContext renders pages (first) and tables (second) as plain text
// sections separated by blank lines.
func RenderContext(items []ContextItem) string {
	var sections []string

	for _, it := range items {
		if it.Page != nil {
			sections = append(sections, renderPage(it.Page))
		}
	}
	for _, it := range items {
		if it.Table != nil {
			sections = append(sections, renderTable(it.Table))
		}
	}

	return strings.Join(sections, "\n\n")
}

func renderPage(p *Page) string {
	if p.Content == "" {
		return "# " + p.Title
	}
	return "# " + p.Title + "\n\n" + p.Content
}

func renderTable(t *Table) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(t.Name)

	if len(t.Columns) == 0 {
		return sb.String()
	}

	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	sb.WriteString("\n\n")
	sb.WriteString(strings.Join(names, " | "))

	for _, r := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = FormatCell(r.Cells[c.ID])
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(cells, " | "))
	}

	return sb.String()
}

// FormatCell renders a cell value as context text.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, x := range val {
			parts = append(parts, FormatCell(x))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}
