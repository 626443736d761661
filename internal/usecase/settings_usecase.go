package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

const maxSettingKeyLen = 100

// SettingsUsecase is the admin key/value store. Every write leaves an audit row.
type SettingsUsecase struct {
	settingRepo repo.SettingRepository
	auditRepo   repo.AuditLogRepository
	logger      *zap.Logger
}

func NewSettingsUsecase(settingRepo repo.SettingRepository, auditRepo repo.AuditLogRepository, logger *zap.Logger) *SettingsUsecase {
	return &SettingsUsecase{settingRepo: settingRepo, auditRepo: auditRepo, logger: logger}
}

func (u *SettingsUsecase) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := u.settingRepo.List(ctx)
	if err != nil {
		return map[string]string{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	out := make(map[string]string, len(rows))
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}

func (u *SettingsUsecase) Get(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", NewHTTPError(http.StatusBadRequest, "invalid key")
	}
	s, err := u.settingRepo.Get(ctx, key)
	if errors.Is(err, repo.ErrNotFound) {
		return "", NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s.Value, nil
}

// Merge upserts every given key and returns the full resulting map.
func (u *SettingsUsecase) Merge(ctx context.Context, actorUserID int64, values map[string]string) (map[string]string, error) {
	if len(values) == 0 {
		return map[string]string{}, NewHTTPError(http.StatusBadRequest, "no settings given")
	}
	for k := range values {
		if err := validateSettingKey(k); err != nil {
			return map[string]string{}, err
		}
	}

	for k, v := range values {
		if err := u.settingRepo.Upsert(ctx, strings.TrimSpace(k), v); err != nil {
			return map[string]string{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	u.audit(ctx, actorUserID, "*", nil, values)
	u.logger.Info("settings updated", zap.Int64("actor_user_id", actorUserID), zap.Int("keys", len(values)))
	return u.GetAll(ctx)
}

func (u *SettingsUsecase) Put(ctx context.Context, actorUserID int64, key string, value string) (string, error) {
	if err := validateSettingKey(key); err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)

	var before map[string]string
	if prev, err := u.settingRepo.Get(ctx, key); err == nil {
		before = map[string]string{key: prev.Value}
	}

	if err := u.settingRepo.Upsert(ctx, key, value); err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.audit(ctx, actorUserID, key, before, map[string]string{key: value})
	return value, nil
}

func (u *SettingsUsecase) Delete(ctx context.Context, actorUserID int64, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid key")
	}

	prev, err := u.settingRepo.Get(ctx, key)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.settingRepo.Delete(ctx, key); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.audit(ctx, actorUserID, key, map[string]string{key: prev.Value}, nil)
	return nil
}

// Reset drops every setting and restores the defaults.
func (u *SettingsUsecase) Reset(ctx context.Context, actorUserID int64) (map[string]string, error) {
	before, err := u.GetAll(ctx)
	if err != nil {
		return map[string]string{}, err
	}
	defaults := model.DefaultSettings()
	if err := u.settingRepo.ReplaceAll(ctx, defaults); err != nil {
		return map[string]string{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.audit(ctx, actorUserID, "*", before, defaults)
	u.logger.Info("settings reset to defaults", zap.Int64("actor_user_id", actorUserID))
	return defaults, nil
}

// NotificationsEnabled reads notifications.enabled. Unset or unreadable means on.
func (u *SettingsUsecase) NotificationsEnabled(ctx context.Context) bool {
	s, err := u.settingRepo.Get(ctx, model.SettingNotificationsEnabled)
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	if err != nil {
		u.logger.Warn("read notifications setting", zap.Error(err))
		return true
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(s.Value))
	if err != nil {
		return true
	}
	return enabled
}

func validateSettingKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > maxSettingKeyLen {
		return NewHTTPError(http.StatusBadRequest, "invalid key")
	}
	return nil
}

// audit failures are logged; the setting change itself already happened
func (u *SettingsUsecase) audit(ctx context.Context, actorUserID int64, key string, before, after map[string]string) {
	if actorUserID <= 0 {
		return
	}
	beforeJSON, _ := json.Marshal(before)
	afterJSON, _ := json.Marshal(after)
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionUpdateSetting,
		ResourceType: model.AuditResourceSetting,
		ResourceID:   key,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    time.Now(),
	}); err != nil {
		u.logger.Error("write settings audit log", zap.String("key", key), zap.Error(err))
	}
}
