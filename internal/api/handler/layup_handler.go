package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"layup-scheduler/internal/dto"
	"layup-scheduler/internal/service"
	pkgerrors "layup-scheduler/pkg/errors"
	"layup-scheduler/pkg/response"
)

// LayupHandler 排产模块 HTTP 处理器
type LayupHandler struct {
	layupSvc service.LayupService
}

// NewLayupHandler 创建 LayupHandler
func NewLayupHandler(layupSvc service.LayupService) *LayupHandler {
	return &LayupHandler{layupSvc: layupSvc}
}

// CreateRun 正式排产（保存为草稿）
// POST /api/v1/layup/runs
func (h *LayupHandler) CreateRun(c *gin.Context) {
	var req dto.LayupRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	run, err := h.layupSvc.Run(c.Request.Context(), &req)
	if err != nil {
		h.handleLayupError(c, err)
		return
	}

	response.Created(c, run)
}

// DryRun 试算（不落库）
// POST /api/v1/layup/runs/dry
func (h *LayupHandler) DryRun(c *gin.Context) {
	var req dto.LayupRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	run, err := h.layupSvc.DryRun(c.Request.Context(), &req)
	if err != nil {
		h.handleLayupError(c, err)
		return
	}

	response.OK(c, run)
}

// CompareScenarios 多场景对比
// POST /api/v1/layup/scenarios
func (h *LayupHandler) CompareScenarios(c *gin.Context) {
	var req dto.CompareScenariosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	result, err := h.layupSvc.CompareScenarios(c.Request.Context(), &req)
	if err != nil {
		h.handleLayupError(c, err)
		return
	}

	response.OK(c, result)
}

// GetRun 查询排产运行
// GET /api/v1/layup/runs/:id
func (h *LayupHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 21001, "运行ID不能为空")
		return
	}

	run, err := h.layupSvc.GetRun(c.Request.Context(), id)
	if err != nil {
		h.handleLayupError(c, err)
		return
	}

	response.OK(c, run)
}

// PublishRun 发布草稿运行
// POST /api/v1/layup/runs/:id/publish
func (h *LayupHandler) PublishRun(c *gin.Context) {
	id := c.Param("id")
	var req dto.PublishRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	run, err := h.layupSvc.Publish(c.Request.Context(), id, &req)
	if err != nil {
		h.handleLayupError(c, err)
		return
	}

	response.OK(c, run)
}

func (h *LayupHandler) handleLayupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 21002, "排产运行不存在")
	case errors.Is(err, service.ErrNoMolds):
		response.Unprocessable(c, 21003, "模具注册表为空，无法排产", "")
	case errors.Is(err, service.ErrScenarioLimit):
		response.BadRequest(c, 21004, err.Error())
	case errors.Is(err, service.ErrInvalidScheduleInput):
		response.Unprocessable(c, 21005, "排产输入不合法", err.Error())
	case errors.Is(err, service.ErrRunNotDraft):
		response.Conflict(c, 21006, "排产运行非草稿状态，不可发布")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 21007, "排产运行已被修改，请刷新后重试")
	case errors.Is(err, service.ErrRunInProgress):
		response.Conflict(c, 21008, "已有正式排产正在执行，请稍后重试")
	case errors.Is(err, service.ErrRunStale):
		response.Conflict(c, 21012, "排产运行中的订单已被其他运行排产，请重新排产")
	default:
		response.InternalError(c)
	}
}
