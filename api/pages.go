package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/workspace"
)

const (
	msgPageNotFound     = "Page not found"
	msgFailedFetchPages = "Failed to fetch pages"
	msgFailedFetchPage  = "Failed to fetch page"
	msgFailedCreatePage = "Failed to create page"
	msgFailedUpdatePage = "Failed to update page"
	msgFailedDeletePage = "Failed to delete page"
)

// PagesResponse is the body of GET /api/workspace/pages.
type PagesResponse struct {
	Pages []*workspace.Page `json:"pages"`
}

// PageResponse wraps a single page.
type PageResponse struct {
	Page *workspace.Page `json:"page"`
}

// handleListPages lists root pages, or the children of ?parentId=.
func (s *Server) handleListPages(c *fiber.Ctx) error {
	var parent *string
	if p := c.Query("parentId"); p != "" {
		parent = &p
	}

	pages, err := s.store.ListPages(c.Context(), parent)
	if err != nil {
		return s.fail(c, err, msgPageNotFound, msgFailedFetchPages)
	}
	if pages == nil {
		pages = []*workspace.Page{}
	}
	return c.JSON(PagesResponse{Pages: pages})
}

func (s *Server) handleGetPage(c *fiber.Ctx) error {
	page, err := s.store.GetPage(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err, msgPageNotFound, msgFailedFetchPage)
	}
	return c.JSON(PageResponse{Page: page})
}

func (s *Server) handleCreatePage(c *fiber.Ctx) error {
	var in workspace.PageInput
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	page, err := workspace.NewPage(in, time.Now().UTC())
	if err != nil {
		return s.fail(c, err, msgPageNotFound, msgFailedCreatePage)
	}

	if err := s.store.CreatePage(c.Context(), page); err != nil {
		return s.fail(c, err, msgPageNotFound, msgFailedCreatePage)
	}
	return c.Status(fiber.StatusCreated).JSON(PageResponse{Page: page})
}

// handleUpdatePage applies a partial update. The id comes from the path or,
// on the collection route, from the body.
func (s *Server) handleUpdatePage(c *fiber.Ctx) error {
	var patch workspace.PagePatch
	if err := c.BodyParser(&patch); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if id := c.Params("id"); id != "" {
		patch.ID = id
	}
	if patch.ID == "" {
		return errorJSON(c, fiber.StatusBadRequest, workspace.MsgPageIDRequired)
	}

	ctx := c.Context()
	current, err := s.store.GetPage(ctx, patch.ID)
	if err != nil {
		return s.fail(c, err, msgPageNotFound, msgFailedUpdatePage)
	}

	updated, err := patch.Apply(*current, time.Now().UTC())
	if err != nil {
		return s.fail(c, err, msgPageNotFound, msgFailedUpdatePage)
	}
	if patch.ParentID != nil {
		nested, err := s.isDescendant(ctx, updated.ParentID, updated.ID)
		if err != nil {
			return s.fail(c, err, msgPageNotFound, msgFailedUpdatePage)
		}
		if nested {
			return errorJSON(c, fiber.StatusBadRequest, workspace.MsgPageParentCycle)
		}
	}
	if err := s.store.UpdatePage(ctx, &updated); err != nil {
		return s.fail(c, err, msgPageNotFound, msgFailedUpdatePage)
	}
	return c.JSON(PageResponse{Page: &updated})
}

// isDescendant reports whether pageID is reached by walking up from id.
// A missing ancestor ends the walk.
func (s *Server) isDescendant(ctx context.Context, id, pageID string) (bool, error) {
	seen := map[string]bool{}
	for id != "" && !seen[id] {
		if id == pageID {
			return true, nil
		}
		seen[id] = true

		p, err := s.store.GetPage(ctx, id)
		if storage.IsNotFound(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		id = p.ParentID
	}
	return false, nil
}

// handleDeletePage removes a page and all of its descendants.
func (s *Server) handleDeletePage(c *fiber.Ctx) error {
	id := idParam(c)
	if id == "" {
		return errorJSON(c, fiber.StatusBadRequest, workspace.MsgPageIDRequired)
	}

	if err := s.store.DeletePage(c.Context(), id); err != nil {
		return s.fail(c, err, msgPageNotFound, msgFailedDeletePage)
	}
	return c.JSON(SuccessResponse{Success: true})
}
