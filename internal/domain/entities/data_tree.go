package entities

import "time"

// DataGroup - группа дерева результатов.
type DataGroup struct {
	Path      string    `gorm:"primaryKey" json:"path"`
	Parent    string    `gorm:"index;not null" json:"parent"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DataAttribute - атрибут группы. Value хранится в JSON, чтобы не терять тип.
type DataAttribute struct {
	GroupPath string    `gorm:"primaryKey" json:"group_path"`
	Name      string    `gorm:"primaryKey" json:"name"`
	Type      string    `gorm:"not null" json:"type"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Dataset - числовой набор данных группы.
type Dataset struct {
	GroupPath string    `gorm:"primaryKey" json:"group_path"`
	Name      string    `gorm:"primaryKey" json:"name"`
	Values    []float64 `gorm:"serializer:json;type:jsonb" json:"values"`
	Length    int       `json:"length"`
	CreatedAt time.Time `json:"created_at"`
}
