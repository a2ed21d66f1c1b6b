package auth

import (
	"strings"
	"time"
)

// SessionTTL is how long a session stays valid after login.
const SessionTTL = 7 * 24 * time.Hour

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

type User struct {
	ID               string  `gorm:"primaryKey" json:"id"`
	Name             string  `gorm:"not null" json:"name"`
	Email            string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string  `gorm:"not null" json:"-"`
	Role             string  `gorm:"default:'user'" json:"role"`
	Phone            string  `json:"phone"`
	Address          string  `json:"address"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Bio              string  `json:"bio"`
	ProfileImagePath *string `json:"-"`
	IsActive         bool    `gorm:"default:true" json:"isActive"`

	// ONG accounts carry extra organization data and a verification flag.
	CNPJ             string     `gorm:"column:cnpj" json:"cnpj,omitempty"`
	Description      string     `json:"description,omitempty"`
	FoundingDate     *time.Time `json:"foundingDate,omitempty"`
	Website          string     `json:"website,omitempty"`
	SocialMedia      string     `json:"socialMedia,omitempty"`
	ResponsibleName  string     `json:"responsibleName,omitempty"`
	ResponsiblePhone string     `json:"responsiblePhone,omitempty"`
	PostalCode       string     `json:"postalCode,omitempty"`
	IsVerified       bool       `gorm:"default:false" json:"isVerified"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Session) TableName() string { return "user_sessions" }
func (User) TableName() string    { return "users" }

// Roles.
const (
	RoleUser  = "user"
	RoleONG   = "ong"
	RoleAdmin = "admin"
)

// Profile is the sanitized projection sent to clients: no password hash, and
// the raw image path replaced by a resolvable URL.
type Profile struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	Bio             string     `json:"bio"`
	ProfileImageURL *string    `json:"profileImageUrl"`
	IsActive        bool       `json:"isActive"`
	CNPJ            string     `json:"cnpj,omitempty"`
	Description     string     `json:"description,omitempty"`
	Website         string     `json:"website,omitempty"`
	ResponsibleName string     `json:"responsibleName,omitempty"`
	IsVerified      bool       `json:"isVerified"`
	CreatedAt       time.Time  `json:"createdAt"`
	FoundingDate    *time.Time `json:"foundingDate,omitempty"`
}

// Profile builds the sanitized projection, resolving the stored image path
// against the public API base URL.
func (u *User) Profile(apiBaseURL string) Profile {
	return Profile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Phone:           u.Phone,
		Address:         u.Address,
		City:            u.City,
		State:           u.State,
		Bio:             u.Bio,
		ProfileImageURL: u.ProfileImageURL(apiBaseURL),
		IsActive:        u.IsActive,
		CNPJ:            u.CNPJ,
		Description:     u.Description,
		Website:         u.Website,
		ResponsibleName: u.ResponsibleName,
		IsVerified:      u.IsVerified,
		CreatedAt:       u.CreatedAt,
		FoundingDate:    u.FoundingDate,
	}
}

// ProfileImageURL returns the absolute URL for the stored image path, nil
// when the user has no image. Paths that are already absolute URLs pass
// through untouched.
func (u *User) ProfileImageURL(apiBaseURL string) *string {
	if u.ProfileImagePath == nil || *u.ProfileImagePath == "" {
		return nil
	}
	path := *u.ProfileImagePath
	if strings.HasPrefix(path, "http") {
		return &path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := apiBaseURL + path
	return &url
}
