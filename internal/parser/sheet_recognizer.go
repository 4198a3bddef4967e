package parser

// SheetRecognizer 在工作簿中找出订单明细所在的 Sheet
type SheetRecognizer struct {
	mapper *FieldMapper
}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer() *SheetRecognizer {
	return &SheetRecognizer{mapper: NewFieldMapper()}
}

// Recognize 按必填列命中比例给出置信度
func (r *SheetRecognizer) Recognize(sheetName string, columnNames []string) SheetRecognitionResult {
	mappings := r.mapper.MapColumns(columnNames)

	matchCount := 0
	for _, f := range requiredFields {
		if _, ok := mappings[f]; ok {
			matchCount++
		}
	}
	return SheetRecognitionResult{
		SheetName:  sheetName,
		Confidence: float64(matchCount) / float64(len(requiredFields)),
	}
}

// Best 返回置信度最高的 Sheet；并列时取靠前者，均为 0 时 ok=false
func (r *SheetRecognizer) Best(headers map[string][]string, order []string) (SheetRecognitionResult, bool) {
	var best SheetRecognitionResult
	for _, name := range order {
		res := r.Recognize(name, headers[name])
		if res.Confidence > best.Confidence {
			best = res
		}
	}
	return best, best.Confidence > 0
}
