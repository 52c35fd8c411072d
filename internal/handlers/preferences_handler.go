package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PreferencesHandler struct {
	preferencesService *services.PreferencesService
}

func NewPreferencesHandler(preferencesService *services.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferencesService: preferencesService}
}

func (h *PreferencesHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	prefs, err := h.preferencesService.Get(userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"preferences": prefs})
}

func (h *PreferencesHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.PreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	prefs, err := h.preferencesService.Update(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCurrency):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "Preferences updated", "preferences": prefs})
}
