package sessions

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library-app/pkg/models"
)

// DefaultTTL is how long a session stays valid without the server
// being configured otherwise.
const DefaultTTL = 24 * time.Hour

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Store issues and resolves opaque session tokens. The token carried in
// the cookie is an uuid with no embedded meaning; everything about the
// session lives in the database.
type Store struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{db: db, ttl: ttl, now: time.Now}
}

// Create opens a session for the user and returns its token.
func (s *Store) Create(userUid string) (string, error) {
	session := models.Session{
		Token:     uuid.New().String(),
		UserUid:   userUid,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return session.Token, nil
}

// Resolve maps a token back to the user uid it was issued for. Expired
// sessions are removed on sight.
func (s *Store) Resolve(token string) (string, error) {
	var session models.Session
	err := s.db.Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	if session.ExpiresAt.Before(s.now()) {
		s.db.Delete(&session)
		return "", ErrExpired
	}
	return session.UserUid, nil
}

// Revoke ends the session for the given token. Revoking an unknown
// token is not an error.
func (s *Store) Revoke(token string) error {
	err := s.db.Where("token = ?", token).Delete(&models.Session{}).Error
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
