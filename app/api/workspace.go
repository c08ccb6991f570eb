package api

import (
	"context"

	"novachat/app/service/intent"

	"github.com/gofiber/fiber/v2"
)

type sendRequest struct {
	Text string `json:"text"`
}

type webSearchRequest struct {
	Enabled bool `json:"enabled"`
}

type pendingResponse struct {
	ThreadID string `json:"threadId"`
}

func (s *Server) state(c *fiber.Ctx) error {
	return c.JSON(s.workspace.Snapshot())
}

func (s *Server) backendHealth(c *fiber.Ctx) error {
	if err := s.backend.Health(c.UserContext()); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// sendMessage answers 202 right away; with ?wait=true it answers with the thread once the
// request settled.
func (s *Server) sendMessage(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid request body")
	}

	pending, err := s.workspace.Send(s.ctx, req.Text)
	if err != nil {
		return err
	}

	return s.respondPending(c, pending.ThreadID, pending.Wait)
}

func (s *Server) sendSuggestion(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid request body")
	}

	pending, err := s.workspace.SendSuggestion(s.ctx, req.Text)
	if err != nil {
		return err
	}

	return s.respondPending(c, pending.ThreadID, pending.Wait)
}

func (s *Server) regenerate(c *fiber.Ctx) error {
	pending, err := s.workspace.Regenerate(s.ctx, c.Params("messageId"))
	if err != nil {
		return err
	}

	return s.respondPending(c, pending.ThreadID, pending.Wait)
}

func (s *Server) respondPending(c *fiber.Ctx, threadID string, wait func(ctx context.Context) error) error {
	if !c.QueryBool("wait") {
		return c.Status(fiber.StatusAccepted).JSON(pendingResponse{ThreadID: threadID})
	}

	if err := wait(s.ctx); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "shutting down")
	}

	th, ok := s.workspace.Thread(threadID)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "thread was deleted")
	}

	return c.JSON(th)
}

func (s *Server) stop(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"stopped": s.workspace.Stop()})
}

func (s *Server) newThread(c *fiber.Ctx) error {
	if !s.workspace.NewThread() {
		return fiber.NewError(fiber.StatusConflict, "a new thread cannot be started now")
	}

	return c.JSON(s.workspace.Snapshot())
}

func (s *Server) selectThread(c *fiber.Ctx) error {
	if !s.workspace.SelectThread(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "thread not found")
	}

	return c.JSON(s.workspace.Snapshot())
}

func (s *Server) deleteThread(c *fiber.Ctx) error {
	if !s.workspace.DeleteThread(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "thread not found")
	}

	return c.JSON(s.workspace.Snapshot())
}

func (s *Server) copyMessage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"copied": s.workspace.Copy(c.Params("id"), c.Params("messageId"))})
}

func (s *Server) actions(c *fiber.Ctx) error {
	return c.JSON(intent.Catalog())
}

func (s *Server) toggleAction(c *fiber.Ctx) error {
	selected, err := s.workspace.ToggleAction(intent.Action(c.Params("key")))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"selectedAction": selected})
}

func (s *Server) clearAction(c *fiber.Ctx) error {
	s.workspace.ClearAction()

	return c.JSON(fiber.Map{"selectedAction": intent.ActionNone})
}

func (s *Server) setWebSearch(c *fiber.Ctx) error {
	var req webSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid request body")
	}

	s.workspace.SetWebSearch(req.Enabled)

	return c.JSON(fiber.Map{"webSearch": req.Enabled})
}

func (s *Server) toggleWebSearch(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"webSearch": s.workspace.ToggleWebSearch()})
}
