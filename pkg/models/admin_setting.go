package models

import (
	"time"

	"github.com/uptrace/bun"
)

type AdminSetting struct {
	bun.BaseModel `bun:"table:admin_settings,alias:st"`

	Key       string    `bun:",pk" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
