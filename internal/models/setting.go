package models

import "time"

// Well-known setting keys.
const (
	SettingDisplayName = "display_name"
	SettingBio         = "bio"
	SettingAvatarURL   = "avatar_url"
	SettingTheme       = "theme"
)

// FollowingMarkerPrefix namespaces the per-tenant "marked as following"
// settings written by the auto-boost flow.
const FollowingMarkerPrefix = "following:"

// Setting is a key-value row in a tenant store. Profile fields and flow
// markers share the table; the admin layer writes profile keys directly.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:128;uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
