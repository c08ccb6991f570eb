package api

import (
	"novachat/app/client/answer"
	"novachat/app/service/assistant"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) ask(c *fiber.Ctx) error {
	req := answer.AskRequest{
		TopK: assistant.DefaultTopK,
		Mode: answer.ModeAuto,
	}

	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	resp, err := s.answerer.Ask(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}
