package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (*model.User, error)
}
