package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TagActionBlacklist = "blacklist"
	TagActionWhitelist = "whitelist"
	TagActionMerge     = "merge"
)

// TagModification is an admin rule applied to a normalized tag. Exactly one
// row exists per source norm; the action decides which of the optional
// columns is meaningful.
type TagModification struct {
	bun.BaseModel `bun:"table:tag_modifications,alias:tm"`

	SourceNorm  string    `bun:",pk" json:"source_norm"`
	Action      string    `bun:",nullzero" json:"action"`
	TargetNorm  *string   `json:"target_norm,omitempty"`
	DisplayName *string   `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
