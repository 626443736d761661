package model

import "time"

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusSent    OutboxStatus = "SENT"
	OutboxStatusDead    OutboxStatus = "DEAD"
)

// Messages the broker refused. The relay retries them until sent or dead.
type OutboxEvent struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic       string       `gorm:"type:varchar(255);not null" json:"topic"`
	MessageKey  string       `gorm:"type:varchar(255);not null" json:"message_key"`
	Payload     []byte       `gorm:"type:bytea;not null" json:"payload"`
	Status      OutboxStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Attempts    int          `gorm:"not null;default:0" json:"attempts"`
	LastError   string       `gorm:"type:text" json:"last_error"`
	NextAttempt time.Time    `gorm:"not null;index" json:"next_attempt"`
	CreatedAt   time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
