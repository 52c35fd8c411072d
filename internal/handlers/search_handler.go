package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	searchService *services.SearchService
}

func NewSearchHandler(searchService *services.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search accepts origin, destination, date, returnDate (or return_date),
// adults, children, and infants as query parameters.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	returnDate := c.Query("returnDate")
	if returnDate == "" {
		returnDate = c.Query("return_date")
	}

	req := dto.SearchRequest{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
		Date:        c.Query("date"),
		ReturnDate:  returnDate,
		Adults:      c.QueryInt("adults", 1),
		Children:    c.QueryInt("children", 0),
		Infants:     c.QueryInt("infants", 0),
	}

	resp, err := h.searchService.Search(c.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSearchRouteRequired),
			errors.Is(err, services.ErrUnsupportedRoute),
			errors.Is(err, services.ErrInvalidPassengers),
			errors.Is(err, services.ErrInvalidDate):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(resp)
}
