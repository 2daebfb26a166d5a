package model

import "time"

// GlucoseLevel is a single glucose meter reading. Rows are never updated.
type GlucoseLevel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string    `gorm:"size:128;not null;index;index:idx_glucose_levels_user_ts,priority:1" json:"user_id"`
	Device       *string   `gorm:"size:256" json:"device"`
	SerialNumber *string   `gorm:"size:128" json:"serial_number"`
	Timestamp    time.Time `gorm:"not null;index:idx_glucose_levels_user_ts,priority:2" json:"timestamp"`
	GlucoseValue float64   `gorm:"not null" json:"glucose_value"`
}

// TableName overrides the table name used by GORM.
func (GlucoseLevel) TableName() string {
	return "glucose_levels"
}

// All returns every model for migration.
func All() []any {
	return []any{&GlucoseLevel{}}
}
