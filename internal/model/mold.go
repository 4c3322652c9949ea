package model

// Mold 模具，对应表 molds
// SortOrder 即注册表顺序，排产平局时按此顺序选择
type Mold struct {
	MoldID               string   `gorm:"column:id;type:varchar(64);primaryKey"        json:"mold_id"`
	Name                 string   `gorm:"type:varchar(128);not null;default:''"        json:"name"`
	Enabled              bool     `gorm:"not null;default:true"                        json:"enabled"`
	DailyCapacity        int      `gorm:"not null;default:0"                           json:"daily_capacity"`
	CompatibleCategories []string `gorm:"type:jsonb;not null;serializer:json"          json:"compatible_categories"`
	SortOrder            int      `gorm:"not null;default:0"                           json:"sort_order"`
	SoftDeleteModel
}

func (Mold) TableName() string { return "molds" }
