package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tams/internal/repository"
	pkgerrors "tams/pkg/errors"
)

// ── 导出模块业务错误 ──

var ErrExportNoContracts = pkgerrors.New(pkgerrors.KindNotFound, "该课程暂无合同")

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出课程助教配置为 Excel (.xlsx)
//   - 以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet "合同"：每个助教一行；Sheet "待审核工时"：未审核申报明细
type ExportService interface {
	// ExportCourse 导出课程助教配置
	ExportCourse(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

const (
	sheetContracts = "合同"
	sheetOpenHours = "待审核工时"
)

// ═══════════════════════════════════════════════════════════
// ExportCourse 导出课程助教配置
// ═══════════════════════════════════════════════════════════
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportCourse(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	// 1. 查询合同
	contracts, err := s.repo.Contract.List(ctx, repository.ContractFilter{CourseID: courseID})
	if err != nil {
		s.logger.Error("查询合同失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}
	if len(contracts) == 0 {
		return nil, "", ErrExportNoContracts
	}

	// 2. 查询待审核工时
	open, err := s.repo.HourDeclaration.ListOpen(ctx, courseID, "")
	if err != nil {
		s.logger.Error("查询待审核工时失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(sheetContracts)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	f.NewSheet(sheetOpenHours)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 合同表
	contractHeaders := []string{"NetID", "最大工时", "实际工时", "已签署", "评分", "职责"}
	writeHeader(f, sheetContracts, contractHeaders, headerStyle)
	f.SetColWidth(sheetContracts, "A", "E", 14)
	f.SetColWidth(sheetContracts, "F", "F", 40)

	row := 2
	for _, c := range contracts {
		f.SetCellValue(sheetContracts, cell("A", row), c.NetID)
		f.SetCellValue(sheetContracts, cell("B", row), c.MaxHours)
		f.SetCellValue(sheetContracts, cell("C", row), c.ActualWorkedHours)
		f.SetCellValue(sheetContracts, cell("D", row), yesNo(c.Signed))
		if c.Rating != nil {
			f.SetCellValue(sheetContracts, cell("E", row), *c.Rating)
		} else {
			f.SetCellValue(sheetContracts, cell("E", row), "-")
		}
		f.SetCellValue(sheetContracts, cell("F", row), c.Duties)
		row++
	}

	// 待审核工时表
	hourHeaders := []string{"申报ID", "NetID", "日期", "工时", "说明"}
	writeHeader(f, sheetOpenHours, hourHeaders, headerStyle)
	f.SetColWidth(sheetOpenHours, "A", "A", 38)
	f.SetColWidth(sheetOpenHours, "B", "D", 12)
	f.SetColWidth(sheetOpenHours, "E", "E", 40)

	row = 2
	for _, d := range open {
		f.SetCellValue(sheetOpenHours, cell("A", row), d.DeclarationID)
		f.SetCellValue(sheetOpenHours, cell("B", row), d.NetID)
		f.SetCellValue(sheetOpenHours, cell("C", row), d.Date.Format(dateLayout))
		f.SetCellValue(sheetOpenHours, cell("D", row), d.WorkedTime)
		f.SetCellValue(sheetOpenHours, cell("E", row), d.Description)
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("助教配置_%s.xlsx", courseID)
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), style)
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
