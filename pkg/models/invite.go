package models

import "time"

type Invite struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	IsUsed    bool       `json:"is_used"`
	UsedBy    *int64     `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
