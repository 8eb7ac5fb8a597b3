package ledger

import "time"

// Type distinguishes full backups from incremental ones.
type Type string

const (
	TypeFull        Type = "full"
	TypeIncremental Type = "incremental"
)

// Record is one completed backup. Records are immutable once appended;
// only retention removes them, together with the archive file.
type Record struct {
	Timestamp               time.Time `json:"timestamp"`
	ArchivePath             string    `json:"archivePath"`
	BackupType              Type      `json:"backupType"`
	FileCount               uint64    `json:"fileCount"`
	OriginalSizeBytes       uint64    `json:"originalSizeBytes"`
	CompressedSizeBytes     uint64    `json:"compressedSizeBytes"`
	CompressionRatioPercent float64   `json:"compressionRatioPercent"`
	ContentChecksum         string    `json:"contentChecksum"`
}

// RatioPercent computes the space saved by compression as a percentage,
// 0 when nothing was read.
func RatioPercent(originalBytes, compressedBytes uint64) float64 {
	if originalBytes == 0 {
		return 0
	}
	return (1 - float64(compressedBytes)/float64(originalBytes)) * 100
}
