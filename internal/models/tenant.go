package models

import "time"

// Tenant is a row in the domain-level registry mapping a profile slug to its
// owner's external login identity.
type Tenant struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Slug             string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Domain           string    `gorm:"size:255;not null" json:"domain"`
	ExternalIdentity string    `gorm:"size:255;uniqueIndex" json:"external_identity"`
	DisplayName      string    `gorm:"size:255" json:"display_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
