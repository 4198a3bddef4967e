package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// OrderParser 订单明细解析器
//
// 表头只校验一次：缺少必填列时整体失败（*model.MissingColumnError），
// 之后逐行转换为 model.OrderRecord，坏行记入 ParseResult.Errors 并跳过。
type OrderParser struct {
	mapper     *FieldMapper
	recognizer *SheetRecognizer
}

// NewOrderParser 创建解析器
func NewOrderParser() *OrderParser {
	return &OrderParser{
		mapper:     NewFieldMapper(),
		recognizer: NewSheetRecognizer(),
	}
}

// DetectSourceType 按扩展名判断数据源格式
func DetectSourceType(path string) SourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return SourceCSV
	case ".xlsx", ".xlsm":
		return SourceXLSX
	default:
		return SourceUnknown
	}
}

// ParseFile 解析数据集文件；sheet 仅对 xlsx 生效，为空时自动识别
func (p *OrderParser) ParseFile(path, sheet string) (*ParseResult, error) {
	start := time.Now()

	var (
		res *ParseResult
		err error
	)
	switch DetectSourceType(path) {
	case SourceCSV:
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open dataset: %w", openErr)
		}
		defer f.Close()
		res, err = p.ParseCSV(f)
	case SourceXLSX:
		f, openErr := excelize.OpenFile(path)
		if openErr != nil {
			return nil, fmt.Errorf("open dataset: %w", openErr)
		}
		defer f.Close()
		res, err = p.ParseXLSX(f, sheet)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	res.Source = filepath.Base(path)
	res.Duration = time.Since(start)
	return res, nil
}

// ParseCSV 解析 CSV（首行为表头）
func (p *OrderParser) ParseCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read csv header: %w", model.ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	mappings := p.mapper.MapColumns(header)
	if err := p.mapper.Validate(mappings); err != nil {
		return nil, err
	}

	res := &ParseResult{SourceType: SourceCSV, Columns: header}
	rowNo := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNo++
		if err != nil {
			res.TotalRows++
			res.addError(RowError{Row: rowNo, Reason: err.Error()})
			continue
		}
		p.consume(res, row, mappings, rowNo, false)
	}
	return res, nil
}

// ParseXLSX 解析工作簿中的订单 Sheet
func (p *OrderParser) ParseXLSX(f *excelize.File, sheet string) (*ParseResult, error) {
	if sheet == "" {
		recognized, err := p.recognizeSheet(f)
		if err != nil {
			return nil, err
		}
		sheet = recognized
	}

	// 取原始值：日期以序列号形式给出，避免受单元格显示格式影响
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q: %w", sheet, model.ErrEmptyInput)
	}

	mappings := p.mapper.MapColumns(rows[0])
	if err := p.mapper.Validate(mappings); err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	res := &ParseResult{SourceType: SourceXLSX, SheetName: sheet, Columns: rows[0]}
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		p.consume(res, rows[rowIdx], mappings, rowIdx+1, true)
	}
	return res, nil
}

// recognizeSheet 读取各 Sheet 表头，选出订单明细所在的 Sheet
func (p *OrderParser) recognizeSheet(f *excelize.File) (string, error) {
	names := f.GetSheetList()
	headers := make(map[string][]string, len(names))
	for _, name := range names {
		rows, err := f.Rows(name)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		if rows.Next() {
			cols, err := rows.Columns()
			if err == nil {
				headers[name] = cols
			}
		}
		_ = rows.Close()
	}

	best, ok := p.recognizer.Best(headers, names)
	if !ok {
		// 没有任何 Sheet 命中：按第一个 Sheet 校验，给出缺失列
		if len(names) == 0 {
			return "", fmt.Errorf("workbook has no sheets: %w", model.ErrEmptyInput)
		}
		return "", p.mapper.Validate(p.mapper.MapColumns(headers[names[0]]))
	}
	return best.SheetName, nil
}

// consume 解析一行并累计到结果；整行为空时跳过（表尾空行）
func (p *OrderParser) consume(res *ParseResult, row []string, mappings map[Field]FieldMapping, rowNo int, allowSerial bool) {
	if isBlankRow(row) {
		return
	}
	res.TotalRows++
	record, rowErr := p.parseRow(row, mappings, rowNo, allowSerial)
	if rowErr != nil {
		res.addError(*rowErr)
		return
	}
	res.Records = append(res.Records, record)
	res.ImportedRows++
}

// parseRow 解析单行数据
func (p *OrderParser) parseRow(row []string, mappings map[Field]FieldMapping, rowNo int, allowSerial bool) (model.OrderRecord, *RowError) {
	get := func(f Field) string {
		m, ok := mappings[f]
		if !ok || m.ColumnIndex >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[m.ColumnIndex])
	}
	fail := func(f Field, err error) *RowError {
		return &RowError{Row: rowNo, Field: f, Reason: err.Error()}
	}

	record := model.OrderRecord{
		OrderID:          get(FieldOrderID),
		CustomerUniqueID: get(FieldCustomerUniqueID),
		PaymentType:      orUnknown(get(FieldPaymentType)),
		Category:         orUnknown(get(FieldCategory)),
		CustomerState:    orUnknown(strings.ToUpper(get(FieldCustomerState))),
	}

	// 验证必填字段
	if record.OrderID == "" {
		return record, fail(FieldOrderID, errors.New("empty value"))
	}
	if record.CustomerUniqueID == "" {
		return record, fail(FieldCustomerUniqueID, errors.New("empty value"))
	}

	approvedAt, err := ParseTimestamp(get(FieldApprovedAt), allowSerial)
	if err != nil {
		return record, fail(FieldApprovedAt, err)
	}
	record.ApprovedAt = approvedAt

	deliveredAt, err := parseOptionalTimestamp(get(FieldDeliveredAt), allowSerial)
	if err != nil {
		return record, fail(FieldDeliveredAt, err)
	}
	record.DeliveredAt = deliveredAt

	if record.Price, err = parseMoney(get(FieldPrice)); err != nil {
		return record, fail(FieldPrice, err)
	}
	if record.FreightValue, err = parseMoney(get(FieldFreightValue)); err != nil {
		return record, fail(FieldFreightValue, err)
	}

	score, err := parseOptionalFloat(get(FieldReviewScore))
	if err != nil {
		return record, fail(FieldReviewScore, err)
	}
	if score != nil && (*score < 1 || *score > 5) {
		return record, fail(FieldReviewScore, fmt.Errorf("score %v out of range 1-5", *score))
	}
	record.ReviewScore = score

	// 数据集自带配送时长则直接使用，否则用送达-审核时间推算
	duration, err := parseOptionalFloat(get(FieldDeliveryDuration))
	if err != nil {
		return record, fail(FieldDeliveryDuration, err)
	}
	if duration == nil {
		duration = model.ComputeDeliveryDuration(record.ApprovedAt, record.DeliveredAt)
	}
	record.DeliveryDuration = duration

	return record, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
