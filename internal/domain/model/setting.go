package model

import "time"

type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

const (
	SettingSiteTitle            = "site.title"
	SettingLowStock             = "low.stock"
	SettingMaintenance          = "maintenance"
	SettingThemeDefault         = "theme.default"
	SettingNotificationsEnabled = "notifications.enabled"
)

func DefaultSettings() map[string]string {
	return map[string]string{
		SettingSiteTitle:            "Dream Books Library",
		SettingLowStock:             "5",
		SettingMaintenance:          "false",
		SettingThemeDefault:         "light",
		SettingNotificationsEnabled: "true",
	}
}
