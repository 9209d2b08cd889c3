package models

import "time"

// KeyMaterial is the single RSA keypair owned by a tenant, generated lazily
// on first initialization and never regenerated once present. The private
// half never leaves the tenant's store.
type KeyMaterial struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PrivateKeyPEM string    `gorm:"type:text;not null" json:"-"`
	PublicKeyPEM  string    `gorm:"type:text;not null" json:"public_key_pem"`
	CreatedAt     time.Time `json:"created_at"`
}
