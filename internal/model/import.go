package model

import "time"

// ImportStatus 导入状态
type ImportStatus string

const (
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
	ImportFailed     ImportStatus = "failed"
)

// ImportLog 数据集导入记录（同一文件哈希只解析一次）
type ImportLog struct {
	ID           int64        `json:"id"`
	Filename     string       `json:"filename"`
	FilePath     string       `json:"filePath"`
	FileSize     int64        `json:"fileSize"`
	FileHash     string       `json:"fileHash"`
	SourceType   string       `json:"sourceType"`
	SheetName    string       `json:"sheetName,omitempty"`
	ColumnsJSON  string       `json:"-"`
	TotalRows    int          `json:"totalRows"`
	ImportedRows int          `json:"importedRows"`
	ErrorRows    int          `json:"errorRows"`
	Status       ImportStatus `json:"status"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
}
