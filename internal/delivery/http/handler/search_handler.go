package handler

import (
	"errors"

	"syllabus-gap/internal/delivery/http/dto"
	"syllabus-gap/internal/delivery/http/middleware"
	"syllabus-gap/internal/pkg/response"
	"syllabus-gap/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SearchHandler struct {
	uc usecase.SearchUsecase
}

func NewSearchHandler(uc usecase.SearchUsecase) *SearchHandler {
	return &SearchHandler{uc: uc}
}

func (h *SearchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/search", h.Search)
	r.Get("/conversations/:id", h.GetConversation)
}

func (h *SearchHandler) Search(c fiber.Ctx) error {
	var req dto.SearchRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid request body", nil, err)
	}

	res, err := h.uc.Search(c.Context(), usecase.SearchParams{
		Instruction:    req.Instruction,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return usecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *SearchHandler) GetConversation(c fiber.Ctx) error {
	detail, err := h.uc.GetConversation(c.Context(), c.Params("id"))
	if err != nil {
		return usecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, detail)
}

func usecaseError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, usecase.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "conversation not found", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, "", nil, err)
	}
}
