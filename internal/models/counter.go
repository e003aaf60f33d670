package models

// Counter is the per-prefix serial sequence, e.g. key "05/24-" or "QT-05/24-".
type Counter struct {
	Key string `gorm:"column:key;primaryKey" json:"key"`
	Seq int64  `gorm:"not null;default:0" json:"seq"`
}
