package models

import "time"

// FollowingEntry is the domain-wide inverse index: local tenant slug →
// remote actor it follows. Kept on the domain store so shared-inbox fan-out
// answers "which tenants follow actor X" with one query. The composite
// unique index makes duplicate inserts collapse to no-ops.
type FollowingEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:64;not null;uniqueIndex:ux_following_slug_actor" json:"slug"`
	ActorURL  string    `gorm:"size:512;not null;uniqueIndex:ux_following_slug_actor" json:"actor_url"`
	CreatedAt time.Time `json:"created_at"`
}
