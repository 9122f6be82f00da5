package model

import "time"

type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentReady      DocumentStatus = "ready"
	DocumentFailed     DocumentStatus = "failed"
)

// Document is an uploaded file and its processing state.
type Document struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	SessionID        string         `gorm:"size:64;not null;index" json:"session_id"`
	OriginalFilename string         `gorm:"size:255;not null" json:"original_filename"`
	StoredFilename   string         `gorm:"size:320;not null" json:"filename"`
	FilePath         string         `gorm:"size:500;not null" json:"-"`
	FileType         string         `gorm:"size:16;not null" json:"file_type"`
	SizeBytes        int64          `json:"size_bytes"`
	Status           DocumentStatus `gorm:"size:16;not null;index" json:"status"`
	Summary          string         `gorm:"type:text" json:"summary,omitempty"`
	FailureReason    string         `gorm:"type:text" json:"failure_reason,omitempty"`
	ChunkCount       int            `json:"chunk_count"`
	UploadedAt       time.Time      `gorm:"index" json:"upload_time"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (d *Document) Ready() bool {
	return d.Status == DocumentReady
}

// CanTransition reports whether the status machine allows moving from -> to.
// ready and failed are terminal.
func CanTransition(from, to DocumentStatus) bool {
	switch from {
	case DocumentPending:
		return to == DocumentProcessing || to == DocumentFailed
	case DocumentProcessing:
		return to == DocumentReady || to == DocumentFailed
	default:
		return false
	}
}
