package handler

import (
	"net/http"

	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// public catalogue
type BookHandler struct {
	uc *usecase.BookUsecase
}

func NewBookHandler(uc *usecase.BookUsecase) *BookHandler {
	return &BookHandler{uc: uc}
}

func (h *BookHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/books", h.list)
	e.GET("/api/books/:id", h.detail)
}

func (h *BookHandler) list(c echo.Context) error {
	// page（default 1）
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}

	// limit（default 20）
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListBooksInput{
		Page:  page,
		Limit: limit,
		Q:     c.QueryParam("q"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BookHandler) detail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
