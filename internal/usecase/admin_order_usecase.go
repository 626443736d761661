package usecase

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	orders *OrderUsecase
}

func NewAdminOrderUsecase(tx repo.TransactionManager, orders *OrderUsecase) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders}
}

type AdminOrderList struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type AuditEntry struct {
	ID          int64     `json:"id"`
	ActorUserID int64     `json:"actorUserId"`
	Action      string    `json:"action"`
	Before      string    `json:"before"`
	After       string    `json:"after"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderList, error) {
	if f.Page < 1 {
		return AdminOrderList{Items: []OrderOutput{}}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderList{Items: []OrderOutput{}}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		status, err := model.ParseOrderStatus(s)
		if err != nil {
			return AdminOrderList{Items: []OrderOutput{}}, NewHTTPError(http.StatusBadRequest, err.Error())
		}
		f.Status = string(status)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AdminOrderList{Items: []OrderOutput{}}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	out := AdminOrderList{Items: []OrderOutput{}, Page: f.Page, Limit: f.Limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		out.Total = total
		return nil
	})
	if err != nil {
		return AdminOrderList{Items: []OrderOutput{}}, err
	}
	return out, nil
}

// UpdateStatus is the admin status change. The audit row shares the
// transaction with the update, so both land or neither does.
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, newStatus string) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	next, err := model.ParseOrderStatus(newStatus)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ch, err := u.orders.transition(ctx, orderID, next, statusHooks{
		updated: func(r repo.TxRepos, o model.Order, previous model.OrderStatus) error {
			return r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actorAdminUserID,
				Action:       model.AuditActionUpdateOrderStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   strconv.FormatInt(o.ID, 10),
				BeforeJSON:   statusJSON(previous, ""),
				AfterJSON:    statusJSON(o.Status, ""),
				CreatedAt:    u.orders.now(),
			})
		},
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(ch.order, ch.items), nil
}

const auditTrailLimit = 100

// AuditTrail lists status changes of one order, newest first.
func (u *AdminOrderUsecase) AuditTrail(ctx context.Context, orderID int64) ([]AuditEntry, error) {
	if orderID <= 0 {
		return []AuditEntry{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	out := []AuditEntry{}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		logs, err := r.AuditLogs().ListByResource(ctx, model.AuditResourceOrder, strconv.FormatInt(orderID, 10), auditTrailLimit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, l := range logs {
			out = append(out, AuditEntry{
				ID:          l.ID,
				ActorUserID: l.ActorUserID,
				Action:      string(l.Action),
				Before:      l.BeforeJSON,
				After:       l.AfterJSON,
				CreatedAt:   l.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return []AuditEntry{}, err
	}
	return out, nil
}
