package repository

import (
	"context"

	"gorm.io/gorm"

	"layup-scheduler/internal/model"
)

// MoldRepository 模具注册表（只读）
type MoldRepository interface {
	ListAll(ctx context.Context) ([]model.Mold, error)
}

type moldRepo struct {
	db *gorm.DB
}

func NewMoldRepo(db *gorm.DB) MoldRepository {
	return &moldRepo{db: db}
}

// ListAll 按注册表顺序返回全部模具（含停用，由引擎过滤）
func (r *moldRepo) ListAll(ctx context.Context) ([]model.Mold, error) {
	var molds []model.Mold
	err := r.db.WithContext(ctx).
		Order("sort_order ASC, id ASC").
		Find(&molds).Error
	return molds, err
}
