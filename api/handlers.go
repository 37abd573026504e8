package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/storage"
)

// ConversationResponse describes the live conversation window.
type ConversationResponse struct {
	Capacity int        `json:"capacity"`
	Length   int        `json:"length"`
	Turns    []llm.Turn `json:"turns"`
}

// TranscriptResponse lists recorded exchanges, newest first.
type TranscriptResponse struct {
	Count   int               `json:"count"`
	Records []*storage.Record `json:"records"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleGetConversation returns the turns currently in the window.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	store := s.pipe.Store()
	turns := store.Turns()

	return c.JSON(ConversationResponse{
		Capacity: store.Capacity(),
		Length:   len(turns),
		Turns:    turns,
	})
}

// handleClearConversation empties the window.
func (s *Server) handleClearConversation(c *fiber.Ctx) error {
	store := s.pipe.Store()
	n := store.Len()
	store.Clear()

	s.logger.Info("conversation cleared", zap.Int("turns", n))
	return c.JSON(map[string]any{
		"cleared": n,
	})
}

// handleListTranscript returns recent exchanges from the audit log.
func (s *Server) handleListTranscript(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "limit must not be negative"})
	}

	records, err := s.driver.List(c.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list transcript", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list transcript"})
	}

	return c.JSON(TranscriptResponse{
		Count:   len(records),
		Records: records,
	})
}

// handleGetTranscript returns a single recorded exchange by its ID.
func (s *Server) handleGetTranscript(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "id parameter required"})
	}

	rec, err := s.driver.Get(c.Context(), id)
	if err != nil {
		var notFound storage.ErrNotFound
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "record not found"})
		}
		s.logger.Error("failed to get transcript record", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get record"})
	}

	return c.JSON(rec)
}
