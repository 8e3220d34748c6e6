package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/quill/pkg/storage"
)

const defaultTurnsLimit = 50

// TurnsResponse is the body of GET /api/chat/turns.
type TurnsResponse struct {
	Turns []*storage.Turn `json:"turns"`
}

// handleListTurns returns recorded relay turns, newest first. ?limit=0
// returns all of them.
func (s *Server) handleListTurns(c *fiber.Ctx) error {
	limit := defaultTurnsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}

	turns, err := s.store.ListTurns(c.Context(), limit)
	if err != nil {
		return s.fail(c, err, "Turn not found", "Failed to fetch turns")
	}
	if turns == nil {
		turns = []*storage.Turn{}
	}
	return c.JSON(TurnsResponse{Turns: turns})
}
