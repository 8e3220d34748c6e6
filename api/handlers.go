package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/workspace"
)

const msgInvalidBody = "Invalid request body"

// SuccessResponse is the body of a successful delete.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(llm.ErrorResponse{Error: msg})
}

// fail maps err onto a response: validation errors become 400 with their
// message, missing documents 404 with notFound, and anything else a logged
// 500 with failure.
func (s *Server) fail(c *fiber.Ctx, err error, notFound, failure string) error {
	var verr *workspace.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, verr.Message)
	case storage.IsNotFound(err):
		return errorJSON(c, fiber.StatusNotFound, notFound)
	default:
		s.logger.Error(failure,
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		return errorJSON(c, fiber.StatusInternalServerError, failure)
	}
}

// idParam returns the document id from the path, falling back to ?id=.
func idParam(c *fiber.Ctx) string {
	if id := c.Params("id"); id != "" {
		return id
	}
	return c.Query("id")
}
