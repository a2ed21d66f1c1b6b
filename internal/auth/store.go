package auth

import (
	"time"

	"github.com/BichoSolto/BS-Backend/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store wraps the users and user_sessions tables. It implements both
// middleware.SessionFetcher and middleware.RoleFetcher, so the same value is
// passed to every module's route setup.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) FindSessionByID(id string) (utils.SessionData, error) {
	var session Session
	if err := s.DB.First(&session, "session_id = ?", id).Error; err != nil {
		return utils.SessionData{}, err
	}
	return utils.SessionData{
		SessionID: session.SessionID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// CreateSession issues a fresh session for the user. Concurrent logins each
// get their own session row.
func (s *Store) CreateSession(userID string) (Session, error) {
	session := Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return Session{}, err
	}
	return session, nil
}

func (s *Store) DeleteSession(id string) error {
	return s.DB.Delete(&Session{}, "session_id = ?", id).Error
}

// DeleteOtherSessions removes every session of the user except the one that
// made the request. Called after a password change.
func (s *Store) DeleteOtherSessions(userID, keepSessionID string) error {
	return s.DB.Delete(&Session{}, "user_id = ? AND session_id <> ?", userID, keepSessionID).Error
}

func (s *Store) FindUserByID(id string) (User, error) {
	var user User
	err := s.DB.First(&user, "id = ?", id).Error
	return user, err
}

func (s *Store) FindUserByEmail(email string) (User, error) {
	var user User
	err := s.DB.First(&user, "email = ?", email).Error
	return user, err
}

// ListActiveNGOs returns the active NGO accounts for the public directory.
func (s *Store) ListActiveNGOs() ([]User, error) {
	var ngos []User
	err := s.DB.
		Where("role = ? AND is_active = ?", RoleONG, true).
		Order("name ASC").
		Find(&ngos).Error
	return ngos, err
}

// ListAllUsers returns every account, for the admin listing.
func (s *Store) ListAllUsers() ([]User, error) {
	var users []User
	err := s.DB.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (s *Store) FindRoleByID(id string) (string, error) {
	var user User
	if err := s.DB.Select("role").First(&user, "id = ?", id).Error; err != nil {
		return "", err
	}
	return user.Role, nil
}
