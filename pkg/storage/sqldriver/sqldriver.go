// Package sqldriver implements storage.Driver on top of ent's dialect-aware
// SQL builder. It is database-agnostic and is embedded by the sqlite and
// postgres drivers, which only open the connection.
package sqldriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/workspace"
)

const (
	pagesTable  = "pages"
	tablesTable = "workspace_tables"
	turnsTable  = "turns"
)

var (
	pageColumns  = []string{"id", "title", "content", "icon", "parent_id", "created_at", "updated_at"}
	tableColumns = []string{"id", "name", "columns_json", "rows_json", "created_at", "updated_at"}
	turnColumns  = []string{"id", "model", "provider", "messages_json", "response", "started_at", "completed_at"}
)

// schema is idempotent DDL shared by every supported dialect. Timestamps are
// unix nanoseconds and structured fields are JSON text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		parent_id TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS pages_parent_id ON pages (parent_id)`,
	`CREATE TABLE IF NOT EXISTS workspace_tables (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		columns_json TEXT NOT NULL,
		rows_json TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		provider TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		response TEXT NOT NULL,
		started_at BIGINT NOT NULL,
		completed_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS turns_completed_at ON turns (completed_at)`,
}

// Driver provides storage operations over an ent SQL driver.
type Driver struct {
	drv     *entsql.Driver
	dialect string
}

// Open wraps db for the given ent dialect and creates the schema.
func Open(ctx context.Context, dialectName string, db *sql.DB) (*Driver, error) {
	d := &Driver{
		drv:     entsql.OpenDB(dialectName, db),
		dialect: dialectName,
	}

	for _, stmt := range schema {
		if err := d.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return d, nil
}

// DB exposes the underlying connection pool.
func (d *Driver) DB() *sql.DB {
	return d.drv.DB()
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.drv.Close()
}

func (d *Driver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(d.dialect)
}

func (d *Driver) exec(ctx context.Context, ex dialect.ExecQuerier, query string, args []any) (int64, error) {
	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// inTx runs fn in a transaction, rolling back when fn fails.
func (d *Driver) inTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := d.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return tx.Commit()
}

// Pages

func (d *Driver) CreatePage(ctx context.Context, page *workspace.Page) error {
	if page == nil {
		return errors.New("cannot store nil page")
	}

	query, args := d.builder().Insert(pagesTable).
		Columns(pageColumns...).
		Values(page.ID, page.Title, page.Content, page.Icon, page.ParentID,
			page.CreatedAt.UnixNano(), page.UpdatedAt.UnixNano()).
		Query()

	if err := d.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}
	return nil
}

func (d *Driver) GetPage(ctx context.Context, id string) (*workspace.Page, error) {
	query, args := d.builder().Select(pageColumns...).
		From(d.builder().Table(pagesTable)).
		Where(entsql.EQ("id", id)).
		Query()

	pages, err := d.queryPages(ctx, d.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if len(pages) == 0 {
		return nil, storage.NotFoundError{Kind: storage.KindPage, ID: id}
	}
	return pages[0], nil
}

func (d *Driver) ListPages(ctx context.Context, parentID *string) ([]*workspace.Page, error) {
	parent := ""
	if parentID != nil {
		parent = *parentID
	}

	query, args := d.builder().Select(pageColumns...).
		From(d.builder().Table(pagesTable)).
		Where(entsql.EQ("parent_id", parent)).
		OrderBy(entsql.Desc("updated_at")).
		Query()

	pages, err := d.queryPages(ctx, d.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return pages, nil
}

func (d *Driver) UpdatePage(ctx context.Context, page *workspace.Page) error {
	if page == nil {
		return errors.New("cannot store nil page")
	}

	query, args := d.builder().Update(pagesTable).
		Set("title", page.Title).
		Set("content", page.Content).
		Set("icon", page.Icon).
		Set("parent_id", page.ParentID).
		Set("updated_at", page.UpdatedAt.UnixNano()).
		Where(entsql.EQ("id", page.ID)).
		Query()

	n, err := d.exec(ctx, d.drv, query, args)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	if n == 0 {
		return storage.NotFoundError{Kind: storage.KindPage, ID: page.ID}
	}
	return nil
}

func (d *Driver) DeletePage(ctx context.Context, id string) error {
	return d.inTx(ctx, func(tx dialect.Tx) error {
		// Collect the subtree level by level, then delete it in one statement.
		// Stored parent links may form a cycle, so each id is visited once.
		ids := []any{id}
		frontier := []any{id}
		seen := map[string]bool{id: true}
		for len(frontier) > 0 {
			query, args := d.builder().Select("id").
				From(d.builder().Table(pagesTable)).
				Where(entsql.In("parent_id", frontier...)).
				Query()

			children, err := d.queryIDs(ctx, tx, query, args)
			if err != nil {
				return fmt.Errorf("failed to walk page tree: %w", err)
			}
			frontier = frontier[:0]
			for _, c := range children {
				if seen[c] {
					continue
				}
				seen[c] = true
				frontier = append(frontier, c)
				ids = append(ids, c)
			}
		}

		query, args := d.builder().Delete(pagesTable).
			Where(entsql.In("id", ids...)).
			Query()

		n, err := d.exec(ctx, tx, query, args)
		if err != nil {
			return fmt.Errorf("failed to delete pages: %w", err)
		}
		if n == 0 {
			return storage.NotFoundError{Kind: storage.KindPage, ID: id}
		}
		return nil
	})
}

func (d *Driver) queryPages(ctx context.Context, q dialect.ExecQuerier, query string, args []any) ([]*workspace.Page, error) {
	rows := &entsql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*workspace.Page{}
	for rows.Next() {
		var (
			p                workspace.Page
			created, updated int64
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.Icon, &p.ParentID, &created, &updated); err != nil {
			return nil, err
		}
		p.CreatedAt = fromNanos(created)
		p.UpdatedAt = fromNanos(updated)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (d *Driver) queryIDs(ctx context.Context, q dialect.ExecQuerier, query string, args []any) ([]string, error) {
	rows := &entsql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Tables

func (d *Driver) CreateTable(ctx context.Context, table *workspace.Table) error {
	if table == nil {
		return errors.New("cannot store nil table")
	}

	cols, rows, err := encodeTable(table)
	if err != nil {
		return err
	}

	query, args := d.builder().Insert(tablesTable).
		Columns(tableColumns...).
		Values(table.ID, table.Name, cols, rows,
			table.CreatedAt.UnixNano(), table.UpdatedAt.UnixNano()).
		Query()

	if err := d.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to insert table: %w", err)
	}
	return nil
}

func (d *Driver) GetTable(ctx context.Context, id string) (*workspace.Table, error) {
	return d.getTable(ctx, d.drv, id, false)
}

func (d *Driver) getTable(ctx context.Context, q dialect.ExecQuerier, id string, lock bool) (*workspace.Table, error) {
	sel := d.builder().Select(tableColumns...).
		From(d.builder().Table(tablesTable)).
		Where(entsql.EQ("id", id))
	if lock && d.dialect == dialect.Postgres {
		sel.ForUpdate()
	}
	query, args := sel.Query()

	tables, err := d.queryTables(ctx, q, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	if len(tables) == 0 {
		return nil, storage.NotFoundError{Kind: storage.KindTable, ID: id}
	}
	return tables[0], nil
}

func (d *Driver) ListTables(ctx context.Context) ([]*workspace.Table, error) {
	query, args := d.builder().Select(tableColumns...).
		From(d.builder().Table(tablesTable)).
		OrderBy(entsql.Desc("updated_at")).
		Query()

	tables, err := d.queryTables(ctx, d.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

func (d *Driver) UpdateTable(ctx context.Context, table *workspace.Table) error {
	if table == nil {
		return errors.New("cannot store nil table")
	}
	return d.updateTable(ctx, d.drv, table)
}

func (d *Driver) updateTable(ctx context.Context, ex dialect.ExecQuerier, table *workspace.Table) error {
	cols, rows, err := encodeTable(table)
	if err != nil {
		return err
	}

	query, args := d.builder().Update(tablesTable).
		Set("name", table.Name).
		Set("columns_json", cols).
		Set("rows_json", rows).
		Set("updated_at", table.UpdatedAt.UnixNano()).
		Where(entsql.EQ("id", table.ID)).
		Query()

	n, err := d.exec(ctx, ex, query, args)
	if err != nil {
		return fmt.Errorf("failed to update table: %w", err)
	}
	if n == 0 {
		return storage.NotFoundError{Kind: storage.KindTable, ID: table.ID}
	}
	return nil
}

func (d *Driver) DeleteTable(ctx context.Context, id string) error {
	query, args := d.builder().Delete(tablesTable).
		Where(entsql.EQ("id", id)).
		Query()

	n, err := d.exec(ctx, d.drv, query, args)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if n == 0 {
		return storage.NotFoundError{Kind: storage.KindTable, ID: id}
	}
	return nil
}

func (d *Driver) AppendRow(ctx context.Context, tableID string, row workspace.Row, updatedAt time.Time) error {
	return d.inTx(ctx, func(tx dialect.Tx) error {
		t, err := d.getTable(ctx, tx, tableID, true)
		if err != nil {
			return err
		}
		t.Rows = append(t.Rows, row)
		t.UpdatedAt = updatedAt
		return d.updateTable(ctx, tx, t)
	})
}

func (d *Driver) queryTables(ctx context.Context, q dialect.ExecQuerier, query string, args []any) ([]*workspace.Table, error) {
	rows := &entsql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*workspace.Table{}
	for rows.Next() {
		var (
			t                  workspace.Table
			colsJSON, rowsJSON string
			created, updated   int64
		)
		if err := rows.Scan(&t.ID, &t.Name, &colsJSON, &rowsJSON, &created, &updated); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(colsJSON), &t.Columns); err != nil {
			return nil, fmt.Errorf("decoding columns of table %s: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(rowsJSON), &t.Rows); err != nil {
			return nil, fmt.Errorf("decoding rows of table %s: %w", t.ID, err)
		}
		if t.Columns == nil {
			t.Columns = []workspace.Column{}
		}
		if t.Rows == nil {
			t.Rows = []workspace.Row{}
		}
		t.CreatedAt = fromNanos(created)
		t.UpdatedAt = fromNanos(updated)
		out = append(out, &t)
	}
	return out, rows.Err()
}

func encodeTable(t *workspace.Table) (cols, rows string, err error) {
	columns := t.Columns
	if columns == nil {
		columns = []workspace.Column{}
	}
	rowList := t.Rows
	if rowList == nil {
		rowList = []workspace.Row{}
	}

	c, err := json.Marshal(columns)
	if err != nil {
		return "", "", fmt.Errorf("encoding columns: %w", err)
	}
	r, err := json.Marshal(rowList)
	if err != nil {
		return "", "", fmt.Errorf("encoding rows: %w", err)
	}
	return string(c), string(r), nil
}

// Turns

func (d *Driver) SaveTurn(ctx context.Context, turn *storage.Turn) error {
	if turn == nil {
		return errors.New("cannot store nil turn")
	}

	msgs := turn.Messages
	if msgs == nil {
		msgs = []llm.ChatMessage{}
	}
	msgJSON, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encoding turn messages: %w", err)
	}

	query, args := d.builder().Insert(turnsTable).
		Columns(turnColumns...).
		Values(turn.ID, turn.Model, turn.Provider, string(msgJSON), turn.Response,
			turn.StartedAt.UnixNano(), turn.CompletedAt.UnixNano()).
		Query()

	if err := d.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

func (d *Driver) ListTurns(ctx context.Context, limit int) ([]*storage.Turn, error) {
	sel := d.builder().Select(turnColumns...).
		From(d.builder().Table(turnsTable)).
		OrderBy(entsql.Desc("completed_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := d.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	out := []*storage.Turn{}
	for rows.Next() {
		var (
			t                  storage.Turn
			msgJSON            string
			started, completed int64
		)
		if err := rows.Scan(&t.ID, &t.Model, &t.Provider, &msgJSON, &t.Response, &started, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(msgJSON), &t.Messages); err != nil {
			return nil, fmt.Errorf("decoding messages of turn %s: %w", t.ID, err)
		}
		t.StartedAt = fromNanos(started)
		t.CompletedAt = fromNanos(completed)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	return out, nil
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
