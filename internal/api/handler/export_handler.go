package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"layup-scheduler/internal/service"
	"layup-scheduler/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRun 导出排产运行为 Excel
// GET /api/v1/layup/runs/:id/export
func (h *ExportHandler) ExportRun(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		response.BadRequest(c, 21001, "运行ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportRun(c.Request.Context(), runID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 21002, "排产运行不存在")
	case errors.Is(err, service.ErrExportEmptyRun):
		response.BadRequest(c, 21101, "排产运行中无可导出的内容")
	default:
		response.InternalError(c)
	}
}
