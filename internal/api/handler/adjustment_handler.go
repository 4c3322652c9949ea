package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"layup-scheduler/internal/dto"
	"layup-scheduler/internal/service"
	"layup-scheduler/pkg/response"
)

// AdjustmentHandler LOP 二次调整 HTTP 处理器
type AdjustmentHandler struct {
	adjustmentSvc service.AdjustmentService
}

// NewAdjustmentHandler 创建 AdjustmentHandler
func NewAdjustmentHandler(adjustmentSvc service.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{adjustmentSvc: adjustmentSvc}
}

// RunAdjustments 执行 LOP 调整；空请求体表示以服务器当天评估
// POST /api/v1/layup/adjustments
func (h *AdjustmentHandler) RunAdjustments(c *gin.Context) {
	var req dto.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	result, err := h.adjustmentSvc.Run(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDate):
			response.BadRequest(c, 21011, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}
