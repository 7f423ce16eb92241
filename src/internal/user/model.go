package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName           string             `json:"firstName" bson:"first_name"`
	LastName            string             `json:"lastName" bson:"last_name"`
	Email               string             `json:"email" bson:"email"`
	PasswordHash        string             `json:"-" bson:"password_hash"`
	Role                string             `json:"role" bson:"role"`
	Status              string             `json:"status" bson:"status"`
	LastLoginAt         *time.Time         `json:"lastLoginAt,omitempty" bson:"last_login_at,omitempty"`
	LastLoginIP         string             `json:"lastLoginIp,omitempty" bson:"last_login_ip,omitempty"`
	FailedLoginAttempts int                `json:"failedLoginAttempts" bson:"failed_login_attempts"`
	LastFailedLoginAt   *time.Time         `json:"lastFailedLoginAt,omitempty" bson:"last_failed_login_at,omitempty"`
	CreatedAt           time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updated_at"`
	DeletedAt           *time.Time         `json:"deletedAt,omitempty" bson:"deleted_at,omitempty"`
}

// Profile is the public view of a user returned after login.
type Profile struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Status constants
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

func (u *User) ToProfile() *Profile {
	return &Profile{
		ID:          u.ID.Hex(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
	}
}

// IsActive checks if user is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DeletedAt == nil
}
