package user

import (
	"time"

	"gorm.io/gorm"

	"github.com/gymmatch/manager-api/internal/rbac"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User is a dashboard account.
type User struct {
	gorm.Model
	Name         string     `json:"name" gorm:"size:120;not null"`
	Email        string     `json:"email" gorm:"unique;not null"`
	PasswordHash string     `json:"-"`
	Role         rbac.Role  `json:"role" gorm:"size:20;not null"`
	Status       Status     `json:"status" gorm:"size:20;not null;default:active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

func (u User) Active() bool { return u.Status == StatusActive }
