package repository

import (
	"context"

	"gorm.io/gorm"

	"layup-scheduler/internal/model"
)

// EmployeeRepository 员工注册表（只读）
type EmployeeRepository interface {
	ListActive(ctx context.Context) ([]model.Employee, error)
}

type employeeRepo struct {
	db *gorm.DB
}

func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) ListActive(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&employees).Error
	return employees, err
}
