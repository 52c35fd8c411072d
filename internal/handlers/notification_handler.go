package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	resp, err := h.notificationService.List(userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(resp)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	updated, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read", "updated": updated})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c, "notification")
	}

	if err := h.notificationService.MarkRead(userID, id); err != nil {
		return notificationError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c, "notification")
	}

	if err := h.notificationService.Delete(userID, id); err != nil {
		return notificationError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification deleted"})
}

func notificationError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotificationNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Notification not found",
		})
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
