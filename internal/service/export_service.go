package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmptyRun     = errors.New("排产运行中无排产明细与未排产记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// 运行（正式 / 试算）通过 LayupService.GetRun 获取，缓存优先。
type ExportService interface {
	// ExportRun 导出排产运行为 Excel
	ExportRun(ctx context.Context, runID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	layup  LayupService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(layup LayupService, logger *zap.Logger) ExportService {
	return &exportService{layup: layup, logger: logger}
}

// 工作表名
const (
	sheetGrid        = "排产表"
	sheetDetail      = "排产明细"
	sheetUnscheduled = "未排产"
	sheetWarnings    = "告警"
)

var weekdayNames = [...]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// ═══════════════════════════════════════════════════════════
// ExportRun：导出排产运行为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "排产表"：行 = 模具，列 = 可排产日，单元格 = 订单号（同日多单以逗号分隔）
//   - Sheet "排产明细"：按排名顺序的 订单 / 模具 / 品类 / 日期
//   - Sheet "未排产"：订单 / 原因
//   - Sheet "告警"：仅在存在告警时生成
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportRun(ctx context.Context, runID string) (*bytes.Buffer, string, error) {
	run, err := s.layup.GetRun(ctx, runID)
	if err != nil {
		return nil, "", err
	}
	if len(run.Assignments) == 0 && len(run.Unscheduled) == 0 {
		return nil, "", ErrExportEmptyRun
	}

	// 1. 网格索引: "moldID|date" → 订单号列表
	grid := make(map[string][]string)
	moldSeen := make(map[string]bool)
	var molds []string
	for _, a := range run.Assignments {
		k := a.MoldID + "|" + a.Date
		grid[k] = append(grid[k], a.OrderID)
		if !moldSeen[a.MoldID] {
			moldSeen[a.MoldID] = true
			molds = append(molds, a.MoldID)
		}
	}
	sort.Strings(molds)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 2. 排产表
	idx, _ := f.NewSheet(sheetGrid)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetGrid, "A", "A", 14)
	for i := range run.Days {
		col := colName(1 + i)
		f.SetColWidth(sheetGrid, col, col, 18)
	}

	f.SetCellValue(sheetGrid, "A1", fmt.Sprintf("排产运行 %s（%s，起始 %s）", shortID(run.RunID), run.Status, run.StartDate))
	f.MergeCell(sheetGrid, "A1", cell(colName(len(run.Days)), 1))
	f.SetCellStyle(sheetGrid, "A1", "A1", headerStyle)

	row := 2
	f.SetCellValue(sheetGrid, cell("A", row), "模具")
	for i, d := range run.Days {
		f.SetCellValue(sheetGrid, cell(colName(1+i), row), dayHeader(d))
	}
	f.SetCellStyle(sheetGrid, cell("A", row), cell(colName(len(run.Days)), row), headerStyle)

	row = 3
	for _, m := range molds {
		f.SetCellValue(sheetGrid, cell("A", row), m)
		for i, d := range run.Days {
			text := "-"
			if ids, ok := grid[m+"|"+d]; ok {
				text = strings.Join(ids, ", ")
			}
			f.SetCellValue(sheetGrid, cell(colName(1+i), row), text)
		}
		row++
	}

	// 3. 排产明细
	f.NewSheet(sheetDetail)
	f.SetColWidth(sheetDetail, "A", "E", 16)
	for i, h := range []string{"序号", "订单", "模具", "品类", "日期"} {
		f.SetCellValue(sheetDetail, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetDetail, "A1", "E1", headerStyle)
	for i, a := range run.Assignments {
		r := i + 2
		f.SetCellValue(sheetDetail, cell("A", r), i+1)
		f.SetCellValue(sheetDetail, cell("B", r), a.OrderID)
		f.SetCellValue(sheetDetail, cell("C", r), a.MoldID)
		f.SetCellValue(sheetDetail, cell("D", r), a.CategoryID)
		f.SetCellValue(sheetDetail, cell("E", r), a.Date)
	}

	// 4. 未排产
	f.NewSheet(sheetUnscheduled)
	f.SetColWidth(sheetUnscheduled, "A", "B", 22)
	f.SetCellValue(sheetUnscheduled, "A1", "订单")
	f.SetCellValue(sheetUnscheduled, "B1", "原因")
	f.SetCellStyle(sheetUnscheduled, "A1", "B1", headerStyle)
	for i, u := range run.Unscheduled {
		f.SetCellValue(sheetUnscheduled, cell("A", i+2), u.OrderID)
		f.SetCellValue(sheetUnscheduled, cell("B", i+2), u.Reason)
	}

	// 5. 告警
	if len(run.Warnings) > 0 {
		f.NewSheet(sheetWarnings)
		f.SetColWidth(sheetWarnings, "A", "A", 80)
		f.SetCellValue(sheetWarnings, "A1", "告警")
		f.SetCellStyle(sheetWarnings, "A1", "A1", headerStyle)
		for i, w := range run.Warnings {
			f.SetCellValue(sheetWarnings, cell("A", i+2), w)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("run_id", runID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排产表_%s_%s.xlsx", run.StartDate, shortID(run.RunID))
	return buf, filename, nil
}

// ── 辅助函数 ──

// colName 0 起始列号 → 列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// dayHeader "2025-03-03" → "03-03 周一"
func dayHeader(d string) string {
	t, err := parseDate(d)
	if err != nil {
		return d
	}
	return fmt.Sprintf("%s %s", t.Format("01-02"), weekdayNames[t.Weekday()])
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
