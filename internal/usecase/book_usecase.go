package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type BookUsecase struct {
	bookRepo repo.BookRepository
}

func NewBookUsecase(bookRepo repo.BookRepository) *BookUsecase {
	return &BookUsecase{bookRepo: bookRepo}
}

type ListBooksInput struct {
	Page  int
	Limit int
	Q     string
}

type BookListOutput struct {
	Items []model.Book `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *BookUsecase) List(ctx context.Context, in ListBooksInput) (BookListOutput, error) {
	if in.Page < 1 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	items, total, err := u.bookRepo.List(ctx, repo.BookListQuery{
		Page:  in.Page,
		Limit: in.Limit,
		Q:     strings.TrimSpace(in.Q),
	})
	if err != nil {
		return BookListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if items == nil {
		items = []model.Book{}
	}

	return BookListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *BookUsecase) Get(ctx context.Context, bookID int64) (model.Book, error) {
	if bookID <= 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	b, err := u.bookRepo.FindByID(ctx, bookID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Book{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return b, nil
}
