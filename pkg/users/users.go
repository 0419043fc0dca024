package users

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"library-app/pkg/models"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Store registers and authenticates users.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Register creates a new member account with a bcrypt-hashed password.
func (s *Store) Register(email, password, name string) (*models.User, error) {
	if email == "" || password == "" || name == "" {
		return nil, errors.New("email, password and name are required")
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		UserUid:      uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         models.RoleMember,
	}
	if err := s.db.Create(&user).Error; err != nil {
		// The unique index catches a registration racing this one.
		return nil, ErrDuplicateEmail
	}
	return &user, nil
}

func (s *Store) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *Store) GetByUid(userUid string) (*models.User, error) {
	var user models.User
	err := s.db.Where("user_uid = ?", userUid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Verify checks the password for the given email and returns the user
// on success. A missing user and a wrong password are indistinguishable
// to the caller.
func (s *Store) Verify(email, password string) (*models.User, error) {
	user, err := s.FindByEmail(email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Promote grants the admin role to an existing account.
func (s *Store) Promote(email string) (*models.User, error) {
	user, err := s.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	user.Role = models.RoleAdmin
	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("promote user: %w", err)
	}
	return user, nil
}
