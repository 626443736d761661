package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type SettingRepository interface {
	List(ctx context.Context) ([]model.Setting, error)
	Get(ctx context.Context, key string) (model.Setting, error)
	Upsert(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	// replaces every row with the given map
	ReplaceAll(ctx context.Context, values map[string]string) error
}
