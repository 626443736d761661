package model

import "time"

type AuditAction string

const (
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionCancelOrder       AuditAction = "CANCEL_ORDER"
	AuditActionUpdateSetting     AuditAction = "UPDATE_SETTING"
)

type AuditResourceType string

const (
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceSetting AuditResourceType = "setting"
)

// Who changed what, with before/after JSON.
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   string            `gorm:"type:varchar(100);not null;index" json:"resource_id"`
	BeforeJSON   string            `gorm:"type:text" json:"before_json"`
	AfterJSON    string            `gorm:"type:text" json:"after_json"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}
