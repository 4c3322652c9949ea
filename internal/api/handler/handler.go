package handler

import "layup-scheduler/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Layup      *LayupHandler
	Adjustment *AdjustmentHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Layup:      NewLayupHandler(svc.Layup),
		Adjustment: NewAdjustmentHandler(svc.Adjustment),
		Export:     NewExportHandler(svc.Export),
	}
}
