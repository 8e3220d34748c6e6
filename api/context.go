package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/workspace"
)

// ContextRequest is the body of POST /api/workspace/context.
type ContextRequest struct {
	Items []workspace.ContextRef `json:"items"`
}

// ContextResponse carries the rendered context, ready for the relay.
type ContextResponse struct {
	Context string `json:"context"`
}

func (s *Server) handleBuildContext(c *fiber.Ctx) error {
	var req ContextRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	for _, ref := range req.Items {
		if ref.Type != workspace.RefPage && ref.Type != workspace.RefTable {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid context item type")
		}
	}

	items, err := storage.LoadContext(c.Context(), s.store, req.Items)
	if err != nil {
		var nf storage.NotFoundError
		if errors.As(err, &nf) && nf.Kind == storage.KindTable {
			return errorJSON(c, fiber.StatusNotFound, msgTableNotFound)
		}
		return s.fail(c, err, msgPageNotFound, "Failed to build context")
	}

	return c.JSON(ContextResponse{Context: workspace.RenderContext(items)})
}
