package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/quill/pkg/workspace"
)

const (
	msgTableNotFound     = "Table not found"
	msgFailedFetchTables = "Failed to fetch tables"
	msgFailedFetchTable  = "Failed to fetch table"
	msgFailedCreateTable = "Failed to create table"
	msgFailedUpdateTable = "Failed to update table"
	msgFailedDeleteTable = "Failed to delete table"
	msgFailedFetchRows   = "Failed to fetch rows"
	msgFailedAddRow      = "Failed to add row"
)

// TablesResponse is the body of GET /api/workspace/tables.
type TablesResponse struct {
	Tables []*workspace.Table `json:"tables"`
}

// TableResponse wraps a single table.
type TableResponse struct {
	Table *workspace.Table `json:"table"`
}

// RowsResponse is the body of GET /api/workspace/tables/:id/rows.
type RowsResponse struct {
	Rows []workspace.Row `json:"rows"`
}

// RowResponse wraps a single appended row.
type RowResponse struct {
	Row workspace.Row `json:"row"`
}

// AppendRowRequest is the body of POST /api/workspace/tables/:id/rows.
type AppendRowRequest struct {
	Cells map[string]any `json:"cells"`
}

// handleListTables returns every table, or a single one when ?id= is set.
func (s *Server) handleListTables(c *fiber.Ctx) error {
	if id := c.Query("id"); id != "" {
		return s.getTable(c, id)
	}

	tables, err := s.store.ListTables(c.Context())
	if err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedFetchTables)
	}
	if tables == nil {
		tables = []*workspace.Table{}
	}
	return c.JSON(TablesResponse{Tables: tables})
}

func (s *Server) handleGetTable(c *fiber.Ctx) error {
	return s.getTable(c, c.Params("id"))
}

func (s *Server) getTable(c *fiber.Ctx, id string) error {
	table, err := s.store.GetTable(c.Context(), id)
	if err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedFetchTable)
	}
	return c.JSON(TableResponse{Table: table})
}

func (s *Server) handleCreateTable(c *fiber.Ctx) error {
	var in workspace.TableInput
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	table, err := workspace.NewTable(in, time.Now().UTC())
	if err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedCreateTable)
	}

	if err := s.store.CreateTable(c.Context(), table); err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedCreateTable)
	}
	return c.Status(fiber.StatusCreated).JSON(TableResponse{Table: table})
}

// handleUpdateTable replaces the name, columns and rows present in the body.
func (s *Server) handleUpdateTable(c *fiber.Ctx) error {
	var patch workspace.TablePatch
	if err := c.BodyParser(&patch); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if id := c.Params("id"); id != "" {
		patch.ID = id
	}
	if patch.ID == "" {
		return errorJSON(c, fiber.StatusBadRequest, workspace.MsgTableIDRequired)
	}

	ctx := c.Context()
	current, err := s.store.GetTable(ctx, patch.ID)
	if err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedUpdateTable)
	}

	updated, err := patch.Apply(*current, time.Now().UTC())
	if err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedUpdateTable)
	}
	if err := s.store.UpdateTable(ctx, &updated); err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedUpdateTable)
	}
	return c.JSON(TableResponse{Table: &updated})
}

func (s *Server) handleDeleteTable(c *fiber.Ctx) error {
	id := idParam(c)
	if id == "" {
		return errorJSON(c, fiber.StatusBadRequest, workspace.MsgTableIDRequired)
	}

	if err := s.store.DeleteTable(c.Context(), id); err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedDeleteTable)
	}
	return c.JSON(SuccessResponse{Success: true})
}

func (s *Server) handleListRows(c *fiber.Ctx) error {
	table, err := s.store.GetTable(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedFetchRows)
	}

	rows := table.Rows
	if rows == nil {
		rows = []workspace.Row{}
	}
	return c.JSON(RowsResponse{Rows: rows})
}

// handleAppendRow adds a row with a fresh id and bumps the table's updatedAt.
func (s *Server) handleAppendRow(c *fiber.Ctx) error {
	var in AppendRowRequest
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	row := workspace.NewRow("", in.Cells)
	if err := s.store.AppendRow(c.Context(), c.Params("id"), row, time.Now().UTC()); err != nil {
		return s.fail(c, err, msgTableNotFound, msgFailedAddRow)
	}
	return c.Status(fiber.StatusCreated).JSON(RowResponse{Row: row})
}
