package api

import (
	"errors"
	"log/slog"

	"novachat/app/service/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// errorHandler renders every failure as {"detail": ...}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := statusOf(err)

	if code >= fiber.StatusInternalServerError {
		slog.Error("Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}

	return c.Status(code).JSON(errorResponse{Detail: err.Error()})
}

func statusOf(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch {
	case errors.Is(err, workspace.ErrEmptyMessage):
		return fiber.StatusBadRequest
	case errors.Is(err, workspace.ErrUnknownAction), errors.Is(err, workspace.ErrMessageNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, workspace.ErrBusy),
		errors.Is(err, workspace.ErrNoActiveThread),
		errors.Is(err, workspace.ErrNoUserMessage):
		return fiber.StatusConflict
	}

	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == "bad_request" {
		return fiber.StatusBadRequest
	}

	return fiber.StatusInternalServerError
}
