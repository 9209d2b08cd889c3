package models

import "time"

// Follower status values.
const (
	FollowerStatusAccepted = "accepted"
	FollowerStatusPending  = "pending"
)

// Follower records a remote actor following this tenant. The actor URI is
// the natural key: re-delivery of the same Follow upserts, never duplicates.
type Follower struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ActorURI    string    `gorm:"size:512;uniqueIndex;not null" json:"actor_uri"`
	Domain      string    `gorm:"size:255" json:"domain"`
	Inbox       string    `gorm:"size:512" json:"inbox"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	Avatar      string    `gorm:"size:512" json:"avatar"`
	Status      string    `gorm:"size:32" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
