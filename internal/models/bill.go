package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Bill struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SerialNo string    `gorm:"uniqueIndex;not null" json:"serialNo"`
	Date     time.Time `gorm:"index;not null" json:"date"`

	Patient Patient `gorm:"embedded;embeddedPrefix:patient_" json:"patient"`

	Items datatypes.JSONSlice[LineItem] `gorm:"not null" json:"items"`

	Totals `gorm:"embedded"`

	ModeOfPayment string    `json:"modeOfPayment"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
}
