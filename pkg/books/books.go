package books

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library-app/pkg/models"
)

var (
	ErrNotFound    = errors.New("book not found")
	ErrUnavailable = errors.New("book is not available for loan")
	ErrInvalid     = errors.New("invalid book")
)

// Store provides catalogue lookup and the availability counter for
// books. It holds the shared database handle injected at startup.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// List returns books sorted by title, optionally filtered by category.
// CategoryAll (or an empty category) means no filter; matching is
// case-insensitive against the stored category.
func (s *Store) List(category string, page, size int) ([]models.Book, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	query := s.db.Model(&models.Book{})
	if category != "" && category != models.CategoryAll {
		query = query.Where("LOWER(category) = LOWER(?)", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	var result []models.Book
	offset := (page - 1) * size
	err := query.Order("title ASC").Offset(offset).Limit(size).Find(&result).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return result, total, nil
}

// Get returns a single book by its uid.
func (s *Store) Get(bookUid string) (*models.Book, error) {
	var book models.Book
	err := s.db.Where("book_uid = ?", bookUid).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// CreateParams carries the fields of the admin book-creation form.
type CreateParams struct {
	Title           string
	Authors         []string
	Category        string
	Genres          []string
	Pages           int
	Description     string
	ImageFile       string
	ISBN            string
	Publisher       string
	PublicationYear int
	Copies          int
	Available       int
}

// Create inserts a new catalogue entry. Only admins reach this through
// the HTTP surface; the CLI calls it directly.
func (s *Store) Create(p CreateParams) (*models.Book, error) {
	if p.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if len(p.Authors) == 0 {
		return nil, fmt.Errorf("%w: at least one author is required", ErrInvalid)
	}
	if !models.ValidCategory(p.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalid, p.Category)
	}
	if p.Copies < 1 {
		return nil, fmt.Errorf("%w: copies must be at least 1", ErrInvalid)
	}
	if p.Available < 0 || p.Available > p.Copies {
		return nil, fmt.Errorf("%w: available must be between 0 and copies", ErrInvalid)
	}
	if p.ImageFile == "" {
		p.ImageFile = "default_cover.jpg"
	}

	book := models.Book{
		BookUid:         uuid.New().String(),
		Title:           p.Title,
		Authors:         p.Authors,
		Category:        p.Category,
		Genres:          p.Genres,
		Pages:           p.Pages,
		Description:     p.Description,
		ImageFile:       p.ImageFile,
		ISBN:            p.ISBN,
		Publisher:       p.Publisher,
		PublicationYear: p.PublicationYear,
		Copies:          p.Copies,
		Available:       p.Available,
	}
	if err := s.db.Create(&book).Error; err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return &book, nil
}

// DecrementAvailable takes one copy of the book off the shelf. The
// availability check and the decrement are a single conditional UPDATE
// so two borrowers racing on the last copy cannot both succeed.
func (s *Store) DecrementAvailable(bookUid string) error {
	res := s.db.Model(&models.Book{}).
		Where("book_uid = ? AND available > 0", bookUid).
		Update("available", gorm.Expr("available - 1"))
	if res.Error != nil {
		return fmt.Errorf("decrease available count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(bookUid); err != nil {
			return err
		}
		return ErrUnavailable
	}
	return nil
}

// IncrementAvailable puts a copy back on the shelf. The update is
// clamped at the owned copy count; hitting the clamp means a return was
// recorded for a copy the counter never lent out, which is logged and
// otherwise ignored so the return itself still succeeds.
func (s *Store) IncrementAvailable(bookUid string) error {
	res := s.db.Model(&models.Book{}).
		Where("book_uid = ? AND available < copies", bookUid).
		Update("available", gorm.Expr("available + 1"))
	if res.Error != nil {
		return fmt.Errorf("increase available count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(bookUid); err != nil {
			return err
		}
		log.Printf("Book %s already has all copies available, not increasing", bookUid)
	}
	return nil
}
