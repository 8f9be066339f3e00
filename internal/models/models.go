package models

import (
	"time"
)

const (
	RoleMember = "member"
	RoleCoach  = "coach"
	RoleAdmin  = "admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleCoach, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Salt         string    `gorm:"not null"                 json:"-"`
	FirstName    string    `gorm:"not null"                 json:"first_name"`
	LastName     string    `gorm:"not null"                 json:"last_name"`
	Address      string    `json:"address"`
	Bio          string    `json:"bio"`
	Role         string    `gorm:"not null;default:member"  json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	Token     string `gorm:"unique;not null"      json:"token"`
	JTI       string `gorm:"uniqueIndex;not null" json:"jti"`
	UserID    uint   `gorm:"index;not null"       json:"user_id"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
}

type Class struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Date        string `gorm:"not null"                 json:"date"`
	Time        string `gorm:"not null"                 json:"time"`
	TrainerName string `gorm:"not null"                 json:"trainer_name"`
	Capacity    uint   `gorm:"not null"                 json:"capacity"`
	Type        string `gorm:"not null"                 json:"type"`
	Location    string `gorm:"not null"                 json:"location"`
}

type Attendance struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                   json:"id"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_user_class"  json:"user_id"`
	ClassID   uint      `gorm:"index;not null;uniqueIndex:idx_user_class"  json:"class_id"`
	Date      time.Time `json:"date"`
	CheckedIn bool      `gorm:"default:false" json:"checked_in"`
}
