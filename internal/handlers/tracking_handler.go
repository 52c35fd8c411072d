package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TrackingHandler struct {
	trackingService *services.TrackingService
}

func NewTrackingHandler(trackingService *services.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

func (h *TrackingHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.TrackFlightRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.trackingService.Create(userID, &req)
	if err != nil {
		return trackingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *TrackingHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	resp, err := h.trackingService.List(userID)
	if err != nil {
		return trackingError(c, err)
	}
	return c.JSON(resp)
}

func (h *TrackingHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c, "tracked flight")
	}

	resp, err := h.trackingService.Get(userID, id)
	if err != nil {
		return trackingError(c, err)
	}
	return c.JSON(fiber.Map{"tracked_flight": resp})
}

// Stop deactivates the subscription; its price history is kept.
func (h *TrackingHandler) Stop(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c, "tracked flight")
	}

	if err := h.trackingService.Stop(userID, id); err != nil {
		return trackingError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stopped tracking flight"})
}

func (h *TrackingHandler) Check(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c, "tracked flight")
	}

	result, err := h.trackingService.CheckNow(c.UserContext(), userID, id)
	if err != nil {
		return trackingError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Price check completed", "result": result})
}

func trackingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrTrackedFlightNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Tracked flight not found",
		})
	case errors.Is(err, services.ErrMissingTrackFields),
		errors.Is(err, services.ErrInvalidAirport),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidTime),
		errors.Is(err, services.ErrInvalidPrice):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func invalidID(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: "Invalid " + what + " ID",
	})
}
