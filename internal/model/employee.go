package model

// Employee 员工，对应表 employees
type Employee struct {
	EmployeeID   string  `gorm:"column:id;type:varchar(64);primaryKey"  json:"employee_id"`
	Name         string  `gorm:"type:varchar(128);not null;default:''"  json:"name"`
	UnitsPerHour float64 `gorm:"not null;default:0"                     json:"units_per_hour"`
	HoursPerDay  float64 `gorm:"not null;default:0"                     json:"hours_per_day"`
	Active       bool    `gorm:"not null;default:true"                  json:"active"`
	SoftDeleteModel
}

func (Employee) TableName() string { return "employees" }
