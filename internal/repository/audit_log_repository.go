package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// newest first; limit is clamped to 1..200
	ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID string, limit int) ([]model.AuditLog, error)
}
