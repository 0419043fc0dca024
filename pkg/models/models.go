package models

import (
	"time"
)

// Book categories form a fixed, closed set. CategoryAll is the filter
// wildcard and is never stored on a book.
const (
	CategoryAll      = "All"
	CategoryChildren = "Children"
	CategoryTeens    = "Teens"
	CategoryAdult    = "Adult"
)

func ValidCategory(category string) bool {
	switch category {
	case CategoryChildren, CategoryTeens, CategoryAdult:
		return true
	}
	return false
}

// User roles. The role is stored on the user record rather than derived
// from a reserved email address.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

type Book struct {
	ID              uint     `gorm:"primaryKey"`
	BookUid         string   `gorm:"type:uuid;uniqueIndex;not null"`
	Title           string   `gorm:"not null"`
	Authors         []string `gorm:"serializer:json;not null"`
	Category        string   `gorm:"size:20;not null"`
	Genres          []string `gorm:"serializer:json"`
	Pages           int
	Description     string
	ImageFile       string `gorm:"size:255;default:'default_cover.jpg'"`
	ISBN            string `gorm:"size:20"`
	Publisher       string `gorm:"size:100"`
	PublicationYear int
	Copies          int `gorm:"not null;check:copies >= 0"`
	Available       int `gorm:"not null;check:available >= 0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type User struct {
	ID           uint   `gorm:"primaryKey"`
	UserUid      string `gorm:"type:uuid;uniqueIndex;not null"`
	Email        string `gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string `gorm:"size:80;not null"`
	Role         string `gorm:"size:20;not null;default:'MEMBER'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Loan references Book and User by uid only. A nil ReturnDate marks the
// loan as active; at most one active loan may exist per (book, user)
// pair.
type Loan struct {
	ID         uint   `gorm:"primaryKey"`
	LoanUid    string `gorm:"type:uuid;uniqueIndex;not null"`
	BookUid    string `gorm:"type:uuid;not null;index:idx_loans_book_user"`
	UserUid    string `gorm:"type:uuid;not null;index:idx_loans_book_user"`
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	RenewCount int `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (l *Loan) Active() bool {
	return l.ReturnDate == nil
}

type Session struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"type:uuid;uniqueIndex;not null"`
	UserUid   string `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time
	CreatedAt time.Time
}
