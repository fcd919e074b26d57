package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Entry records one terminal product form submission.
type Entry struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ViewID      string            `json:"view_id" gorm:"column:view_id;size:64;index"`
	RequestID   string            `json:"request_id,omitempty" gorm:"column:request_id;size:64"`
	Mode        string            `json:"mode" gorm:"size:16;not null"`
	Outcome     string            `json:"outcome" gorm:"size:32;not null;index"`
	ProductID   *int64            `json:"product_id,omitempty" gorm:"column:product_id"`
	SKU         string            `json:"sku" gorm:"column:sku;size:255"`
	Name        string            `json:"name" gorm:"size:255"`
	Message     string            `json:"message,omitempty" gorm:"type:text"`
	FieldErrors datatypes.JSONMap `json:"field_errors,omitempty" gorm:"column:field_errors"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;index"`
}

func (Entry) TableName() string { return "submission_journal" }
