package controllers

import (
	"classdesk_go/csvimport"
	"classdesk_go/services"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors to status codes. Store rejections of a
// write carry their message to the caller. Anything unrecognised is logged
// and reported as a 500 without detail.
func respondError(c *fiber.Ctx, err error) error {
	var perr *csvimport.ParseError
	var werr *services.WriteError
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Record not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	case errors.Is(err, services.ErrNothingToUpdate),
		errors.Is(err, services.ErrInvalidDecision):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotSupported):
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &perr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": perr.Msg,
			"line":  perr.Line,
		})
	case errors.As(err, &werr):
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"request_id": c.Locals("request_id"),
		}).Warn("write rejected by store")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": werr.Error()})
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Locals("request_id"),
	}).Error("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
