package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ReadingProgress tracks the last page a reader reached in a comic. Rows are
// removed by the database when their comic is deleted.
type ReadingProgress struct {
	bun.BaseModel `bun:"table:reading_progress,alias:rp"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	ComicID   string    `bun:",nullzero" json:"comic_id"`
	Page      int       `json:"page"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Bookmark struct {
	bun.BaseModel `bun:"table:bookmarks,alias:bm"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	ComicID   string    `bun:",nullzero" json:"comic_id"`
	Page      int       `json:"page"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
