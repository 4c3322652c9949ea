package model

import "time"

// 排产运行状态
const (
	RunStatusDraft     = "draft"
	RunStatusPublished = "published"
	RunStatusDryRun    = "dry_run" // 仅存在于缓存，不落库
)

// LayupRun 排产运行，对应表 layup_runs
type LayupRun struct {
	RunID            string     `gorm:"column:id;type:uuid;primaryKey"             json:"run_id"`
	Status           string     `gorm:"type:varchar(16);not null;default:'draft'"  json:"status"` // draft | published
	StartDate        time.Time  `gorm:"type:date;not null"                         json:"start_date"`
	HorizonWeeks     int        `gorm:"not null"                                   json:"horizon_weeks"`
	Weekdays         IntArray   `gorm:"type:integer[];not null"                    json:"weekdays"`
	Days             []string   `gorm:"type:jsonb;not null;serializer:json"        json:"days"` // 可排产日 YYYY-MM-DD
	ScheduledCount   int        `gorm:"not null;default:0"                         json:"scheduled_count"`
	UnscheduledCount int        `gorm:"not null;default:0"                         json:"unscheduled_count"`
	Warnings         []string   `gorm:"type:jsonb;not null;serializer:json"        json:"warnings"`
	Version          int        `gorm:"not null;default:1"                         json:"version"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	BaseModel

	// 关联
	Assignments []LayupAssignment  `gorm:"foreignKey:RunID" json:"assignments,omitempty"`
	Unscheduled []LayupUnscheduled `gorm:"foreignKey:RunID" json:"unscheduled,omitempty"`
}

func (LayupRun) TableName() string { return "layup_runs" }

// LayupAssignment 排产明细，对应表 layup_assignments
type LayupAssignment struct {
	AssignmentID  string    `gorm:"column:id;type:uuid;primaryKey"  json:"assignment_id"`
	RunID         string    `gorm:"type:uuid;not null;index"        json:"run_id"`
	OrderID       string    `gorm:"type:varchar(64);not null"       json:"order_id"`
	MoldID        string    `gorm:"type:varchar(64);not null"       json:"mold_id"`
	CategoryID    string    `gorm:"type:varchar(64);not null"       json:"category_id"`
	ScheduledDate time.Time `gorm:"type:date;not null;index"        json:"scheduled_date"`
	Seq           int       `gorm:"not null;default:0"              json:"seq"` // 排名顺序
}

func (LayupAssignment) TableName() string { return "layup_assignments" }

// LayupUnscheduled 未排产记录，对应表 layup_unscheduled
type LayupUnscheduled struct {
	UnscheduledID string `gorm:"column:id;type:uuid;primaryKey"  json:"unscheduled_id"`
	RunID         string `gorm:"type:uuid;not null;index"        json:"run_id"`
	OrderID       string `gorm:"type:varchar(64);not null"       json:"order_id"`
	Reason        string `gorm:"type:varchar(32);not null"       json:"reason"`
	Seq           int    `gorm:"not null;default:0"              json:"seq"`
}

func (LayupUnscheduled) TableName() string { return "layup_unscheduled" }
