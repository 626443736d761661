package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingGormRepository struct {
	db *gorm.DB
}

func NewSettingGormRepository(db *gorm.DB) *SettingGormRepository {
	return &SettingGormRepository{db: db}
}

func (r *SettingGormRepository) List(ctx context.Context) ([]model.Setting, error) {
	var items []model.Setting
	if err := r.db.WithContext(ctx).Order("key asc").Find(&items).Error; err != nil {
		return []model.Setting{}, err
	}
	return items, nil
}

func (r *SettingGormRepository) Get(ctx context.Context, key string) (model.Setting, error) {
	var s model.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Setting{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Setting{}, err
	}
	return s, nil
}

func (r *SettingGormRepository) Upsert(ctx context.Context, key string, value string) error {
	s := model.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&s).Error
}

func (r *SettingGormRepository) Delete(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Where("key = ?", key).Delete(&model.Setting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *SettingGormRepository) ReplaceAll(ctx context.Context, values map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//全件消してから入れ直す
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Setting{}).Error; err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}

		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		now := time.Now()
		rows := make([]model.Setting, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, model.Setting{Key: k, Value: values[k], UpdatedAt: now})
		}
		return tx.Create(&rows).Error
	})
}
