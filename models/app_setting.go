package models

import "time"

// AppSetting represents the app_settings table: the key/value store behind
// the Redis-cached settings service.
type AppSetting struct {
	SettingID   int       `gorm:"primaryKey;column:setting_id" json:"setting_id"`
	SettingKey  string    `gorm:"column:setting_key;uniqueIndex" json:"setting_key"`
	Value       string    `gorm:"column:value;type:text" json:"value"`
	Description *string   `gorm:"column:description" json:"description"`
	CreateAt    time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    time.Time `gorm:"column:update_at" json:"update_at"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}
