package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault-backend/pkg/enums"
)

// User is a customer or administrator account.
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash  string         `gorm:"column:password_hash;not null"`
	FullName      string         `gorm:"column:full_name;not null"`
	Role          enums.UserRole `gorm:"column:role;type:user_role;not null;default:'customer'"`
	IPTVUsername  *string        `gorm:"column:iptv_username"`
	IPTVLineToken *string        `gorm:"column:iptv_line_token"`
	LastLoginAt   *time.Time     `gorm:"column:last_login_at"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
