package models

import "time"

// BadgeIssuer is a remote party whose badge assertions this tenant accepts.
type BadgeIssuer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorURI  string    `gorm:"size:512;uniqueIndex;not null" json:"actor_uri"`
	Name      string    `gorm:"size:255" json:"name"`
	URL       string    `gorm:"size:512" json:"url"`
	Avatar    string    `gorm:"size:512" json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReceivedBadge is a badge assertion extracted from a Create activity,
// keyed by the note URI so re-delivery updates instead of duplicating.
type ReceivedBadge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	NoteURI     string    `gorm:"size:512;uniqueIndex;not null" json:"note_uri"`
	IssuerID    uint      `gorm:"index" json:"issuer_id"`
	Name        string    `gorm:"size:255" json:"name"`
	Description string    `gorm:"size:1024" json:"description"`
	Image       string    `gorm:"size:512" json:"image"`
	Content     string    `gorm:"type:text" json:"content"`
	AwardedAt   string    `gorm:"size:64" json:"awarded_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
