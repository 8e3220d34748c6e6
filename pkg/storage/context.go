package storage

import (
	"context"
	"fmt"

	"github.com/papercomputeco/quill/pkg/workspace"
)

// DocumentStore reads pages and tables.
type DocumentStore interface {
	GetPage(ctx context.Context, id string) (*workspace.Page, error)
	GetTable(ctx context.Context, id string) (*workspace.Table, error)
}

// LoadContext resolves refs in order. The first missing document aborts
// the load with its NotFoundError.
func LoadContext(ctx context.Context, store DocumentStore, refs []workspace.ContextRef) ([]workspace.ContextItem, error) {
	items := make([]workspace.ContextItem, 0, len(refs))
	for _, ref := range refs {
		switch ref.Type {
		case workspace.RefPage:
			p, err := store.GetPage(ctx, ref.ID)
			if err != nil {
				return nil, err
			}
			items = append(items, workspace.ContextItem{Page: p})
		case workspace.RefTable:
			t, err := store.GetTable(ctx, ref.ID)
			if err != nil {
				return nil, err
			}
			items = append(items, workspace.ContextItem{Table: t})
		default:
			return nil, fmt.Errorf("unknown context item type %q", ref.Type)
		}
	}
	return items, nil
}
