package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type BookListQuery struct {
	Page  int
	Limit int
	Q     string
}

// Read side of the catalog.
type BookRepository interface {
	FindByID(ctx context.Context, id int64) (model.Book, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Book, error)
	List(ctx context.Context, q BookListQuery) ([]model.Book, int64, error)
}
