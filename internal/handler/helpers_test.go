package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testCfg = config.Config{JWTSecret: "handler-secret"}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type mockBookRepo struct{ mock.Mock }

func (m *mockBookRepo) FindByID(ctx context.Context, id int64) (model.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Book), args.Error(1)
}

func (m *mockBookRepo) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Book, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).(map[int64]model.Book)
	return out, args.Error(1)
}

func (m *mockBookRepo) List(ctx context.Context, q repository.BookListQuery) ([]model.Book, int64, error) {
	args := m.Called(ctx, q)
	out, _ := args.Get(0).([]model.Book)
	return out, args.Get(1).(int64), args.Error(2)
}

type mockCartRepo struct{ mock.Mock }

func (m *mockCartRepo) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *mockCartRepo) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *mockCartRepo) Delete(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

type mockCartItemRepo struct{ mock.Mock }

func (m *mockCartItemRepo) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	out, _ := args.Get(0).([]model.CartItem)
	return out, args.Error(1)
}

func (m *mockCartItemRepo) AddQuantity(ctx context.Context, cartID int64, bookID int64, addQty int64) error {
	return m.Called(ctx, cartID, bookID, addQty).Error(0)
}

func (m *mockCartItemRepo) SetQuantity(ctx context.Context, cartID int64, bookID int64, qty int64) error {
	return m.Called(ctx, cartID, bookID, qty).Error(0)
}

func (m *mockCartItemRepo) DeleteByBook(ctx context.Context, cartID int64, bookID int64) error {
	return m.Called(ctx, cartID, bookID).Error(0)
}

func (m *mockCartItemRepo) DeleteByCartID(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

type mockPromoRepo struct{ mock.Mock }

func (m *mockPromoRepo) FindByCode(ctx context.Context, code string) (model.PromoCode, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.PromoCode), args.Error(1)
}

func (m *mockPromoRepo) IncrementUsage(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

type mockSettingRepo struct{ mock.Mock }

func (m *mockSettingRepo) List(ctx context.Context) ([]model.Setting, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]model.Setting)
	return out, args.Error(1)
}

func (m *mockSettingRepo) Get(ctx context.Context, key string) (model.Setting, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.Setting), args.Error(1)
}

func (m *mockSettingRepo) Upsert(ctx context.Context, key string, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockSettingRepo) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockSettingRepo) ReplaceAll(ctx context.Context, values map[string]string) error {
	return m.Called(ctx, values).Error(0)
}

type mockAuditRepo struct{ mock.Mock }

func (m *mockAuditRepo) Create(ctx context.Context, log model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *mockAuditRepo) ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID string, limit int) ([]model.AuditLog, error) {
	args := m.Called(ctx, resourceType, resourceID, limit)
	out, _ := args.Get(0).([]model.AuditLog)
	return out, args.Error(1)
}

// activeUsers answers FindByID for every given id with an active user at token version 0.
func activeUsers(ids ...int64) *mockUserRepo {
	repo := new(mockUserRepo)
	for _, id := range ids {
		repo.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, IsActive: true}, nil)
	}
	return repo
}

func bearer(t *testing.T, userID int64, role model.Role) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": userID, "role": string(role), "tv": 0, "exp": 9999999999}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testCfg.JWTSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(t *testing.T, e *echo.Echo, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[ErrorResponse](t, rec).Error
}

