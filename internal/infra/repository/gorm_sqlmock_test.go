package repository

import (
	"context"
	"regexp"
	"testing"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestPromoGorm_IncrementUsage_Success(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewPromoGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "promo_codes" SET "current_uses"=current_uses + $1 WHERE code = $2 AND current_uses < max_uses`)).
		WithArgs(1, "SAVE10").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := r.IncrementUsage(context.Background(), "SAVE10")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoGorm_IncrementUsage_CapReached(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewPromoGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "promo_codes" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "promo_codes" WHERE code = $1`)).
		WithArgs("SAVE10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := r.IncrementUsage(context.Background(), "SAVE10")
	assert.ErrorIs(t, err, repo.ErrConditionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoGorm_IncrementUsage_UnknownCode(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewPromoGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "promo_codes" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "promo_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := r.IncrementUsage(context.Background(), "NOPE")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestPromoGorm_FindByCode_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewPromoGormRepository(gdb)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "promo_codes" WHERE code = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}))

	_, err := r.FindByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestOrderGorm_UpdateStatus_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewOrderGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET "status"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := r.UpdateStatus(context.Background(), 42, model.OrderStatusPacked)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderGorm_FindByID(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewOrderGormRepository(gdb)

	rows := sqlmock.NewRows([]string{"id", "order_number", "user_id", "status", "total_amount"}).
		AddRow(7, "ORD-01J", 3, "PACKED", "25.00")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE id = $1`)).
		WillReturnRows(rows)

	o, err := r.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "ORD-01J", o.OrderNumber)
	assert.Equal(t, model.OrderStatusPacked, o.Status)
	assert.Equal(t, "25", o.TotalAmount.String())
}

func TestCartItemGorm_DeleteByBook_Missing(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewCartItemGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_items" WHERE cart_id = $1 AND book_id = $2`)).
		WithArgs(1, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := r.DeleteByBook(context.Background(), 1, 9)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestPaymentGorm_Create_DuplicateIntent(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewPaymentGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "payments"`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := r.Create(context.Background(), &model.Payment{IntentID: "pi_1", Currency: "gbp", Status: model.PaymentStatusOrphaned})
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(gorm.ErrRecordNotFound))
}

func TestAuditLogGorm_ListByResource(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewAuditLogGormRepository(gdb)

	rows := sqlmock.NewRows([]string{"id", "actor_user_id", "action", "resource_type", "resource_id"}).
		AddRow(int64(2), int64(9), "CANCEL_ORDER", "order", "50")
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE resource_type = \$1 AND resource_id = \$2 ORDER BY id DESC LIMIT`).
		WillReturnRows(rows)

	logs, err := r.ListByResource(context.Background(), model.AuditResourceOrder, "50", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(9), logs[0].ActorUserID)
	assert.Equal(t, model.AuditActionCancelOrder, logs[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}
