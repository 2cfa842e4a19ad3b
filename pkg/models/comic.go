package models

import (
	"crypto/md5" //nolint:gosec // identity hash, not a security boundary
	"encoding/hex"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type Comic struct {
	bun.BaseModel `bun:"table:comics,alias:c"`

	ID           string    `bun:",pk" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Path         string    `bun:",nullzero" json:"path"`
	Filename     string    `bun:",nullzero" json:"filename"`
	Series       string    `bun:",nullzero" json:"series"`
	SeriesID     *int      `json:"series_id,omitempty"`
	Category     string    `bun:",nullzero" json:"category"`
	Subcategory  *string   `json:"subcategory,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	SizeStr      string    `bun:",nullzero" json:"size_str"`
	Mtime        int64     `json:"mtime"`
	Pages        *int      `json:"pages,omitempty"`
	Processed    bool      `json:"processed"`
	HasThumbnail bool      `json:"has_thumbnail"`
	ThumbnailExt *string   `json:"thumbnail_ext,omitempty"`
	FileHash     *string   `json:"file_hash,omitempty"`
	Volume       *float64  `json:"volume,omitempty"`
	Chapter      *float64  `json:"chapter,omitempty"`

	SeriesRel *Series `bun:"rel:belongs-to,join:series_id=id" json:"-"`
}

// ComicID derives a comic's stable identifier from its absolute path.
func ComicID(absPath string) string {
	sum := md5.Sum([]byte(absPath)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// HumanSize formats a byte count like "12.3 MB".
func HumanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
