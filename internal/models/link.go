package models

import "time"

// Link is a published profile link. AutoBoost marks links whose remote
// author's posts are relayed automatically; Hidden links are excluded from
// the actor document projection.
type Link struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	Category  string    `gorm:"size:64" json:"category"`
	Position  int       `json:"position"`
	Hidden    bool      `json:"hidden"`
	AutoBoost bool      `json:"auto_boost"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
