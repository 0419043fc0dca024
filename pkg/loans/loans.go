package loans

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library-app/pkg/books"
	"library-app/pkg/models"
)

const (
	// LoanPeriod is the fixed length of a loan; the due date is always
	// the borrow date plus this period.
	LoanPeriod = 14 * 24 * time.Hour

	// MaxRenews caps how often a single loan can be renewed.
	MaxRenews = 2

	// maxEventDelay bounds the simulated processing delay applied to
	// renewal and return dates.
	maxEventDelay = 3 * 24 * time.Hour
)

var (
	ErrNotFound        = errors.New("loan not found")
	ErrDuplicateLoan   = errors.New("you already have an active loan for this book")
	ErrAlreadyReturned = errors.New("loan has already been returned")
	ErrRenewalLimit    = fmt.Errorf("renewal limit reached (%d), please return the book", MaxRenews)
	ErrLoanActive      = errors.New("cannot delete an active loan")
)

// Manager drives the loan lifecycle: create, renew, return, delete.
// It owns every mutation of the availability counter.
type Manager struct {
	db    *gorm.DB
	books *books.Store
	now   func() time.Time
	rng   *rand.Rand
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:    db,
		books: books.NewStore(db),
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create borrows a book for a user. A zero borrowDate means "now".
// The duplicate-loan check, the availability decrement and the loan
// insert run in one transaction, so a failed insert never leaves the
// counter decremented and a failed decrement never leaves a loan.
func (m *Manager) Create(bookUid, userUid string, borrowDate time.Time) (*models.Loan, error) {
	if borrowDate.IsZero() {
		borrowDate = m.now()
	}

	var loan models.Loan
	err := m.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Loan
		err := tx.Where("book_uid = ? AND user_uid = ? AND return_date IS NULL", bookUid, userUid).
			First(&existing).Error
		if err == nil {
			return ErrDuplicateLoan
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check active loan: %w", err)
		}

		if err := books.NewStore(tx).DecrementAvailable(bookUid); err != nil {
			return err
		}

		loan = models.Loan{
			LoanUid:    uuid.New().String(),
			BookUid:    bookUid,
			UserUid:    userUid,
			BorrowDate: borrowDate,
			DueDate:    borrowDate.Add(LoanPeriod),
			RenewCount: 0,
		}
		if err := tx.Create(&loan).Error; err != nil {
			return fmt.Errorf("create loan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Get returns a user's loan by uid. Loans of other users are not
// visible, they come back as not found.
func (m *Manager) Get(loanUid, userUid string) (*models.Loan, error) {
	var loan models.Loan
	err := m.db.Where("loan_uid = ? AND user_uid = ?", loanUid, userUid).First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return &loan, nil
}

// Renew pushes the borrow date forward by the capped random delay and
// recomputes the due date from it.
func (m *Manager) Renew(loanUid, userUid string) (*models.Loan, error) {
	loan, err := m.Get(loanUid, userUid)
	if err != nil {
		return nil, err
	}
	if !loan.Active() {
		return nil, ErrAlreadyReturned
	}
	if loan.RenewCount >= MaxRenews {
		return nil, ErrRenewalLimit
	}

	newBorrow := m.cappedEventDate(loan.BorrowDate)
	loan.BorrowDate = newBorrow
	loan.DueDate = newBorrow.Add(LoanPeriod)
	loan.RenewCount++
	if err := m.db.Save(loan).Error; err != nil {
		return nil, fmt.Errorf("renew loan: %w", err)
	}
	return loan, nil
}

// Return marks the loan returned and puts the copy back on the shelf.
// A failed counter update is logged but does not undo the return; from
// the borrower's point of view the book is back.
func (m *Manager) Return(loanUid, userUid string) (*models.Loan, error) {
	loan, err := m.Get(loanUid, userUid)
	if err != nil {
		return nil, err
	}
	if !loan.Active() {
		return nil, ErrAlreadyReturned
	}

	returnDate := m.cappedEventDate(loan.BorrowDate)
	loan.ReturnDate = &returnDate
	if err := m.db.Save(loan).Error; err != nil {
		return nil, fmt.Errorf("return loan: %w", err)
	}

	if err := m.books.IncrementAvailable(loan.BookUid); err != nil {
		log.Printf("Failed to update book count on return of loan %s: %v", loan.LoanUid, err)
	}
	return loan, nil
}

// Delete removes a loan record. Only returned loans can be deleted.
func (m *Manager) Delete(loanUid, userUid string) error {
	loan, err := m.Get(loanUid, userUid)
	if err != nil {
		return err
	}
	if loan.Active() {
		return ErrLoanActive
	}
	if err := m.db.Delete(loan).Error; err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return nil
}

// HasActiveLoan reports whether the user currently holds an unreturned
// loan for the book. The borrow UI uses it to disable the action; the
// hard guarantee lives in Create.
func (m *Manager) HasActiveLoan(bookUid, userUid string) (bool, error) {
	var count int64
	err := m.db.Model(&models.Loan{}).
		Where("book_uid = ? AND user_uid = ? AND return_date IS NULL", bookUid, userUid).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check active loan: %w", err)
	}
	return count > 0, nil
}

// UserLoan is a loan annotated with book display fields and the action
// flags the loan overview needs.
type UserLoan struct {
	models.Loan
	BookTitle string
	BookImage string
	IsOverdue bool
	CanRenew  bool
	CanReturn bool
	CanDelete bool
}

// ListForUser returns all of a user's loans, newest borrow first.
func (m *Manager) ListForUser(userUid string) ([]UserLoan, error) {
	var userLoans []models.Loan
	err := m.db.Where("user_uid = ?", userUid).Order("borrow_date DESC").Find(&userLoans).Error
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	now := m.now()
	result := make([]UserLoan, len(userLoans))
	for i, loan := range userLoans {
		item := UserLoan{Loan: loan}

		var book models.Book
		if err := m.db.Where("book_uid = ?", loan.BookUid).First(&book).Error; err == nil {
			item.BookTitle = book.Title
			item.BookImage = book.ImageFile
		} else {
			item.BookTitle = "Unknown Title"
			item.BookImage = "default_cover.jpg"
		}

		active := loan.Active()
		item.IsOverdue = active && loan.DueDate.Before(now)
		item.CanRenew = active && loan.RenewCount < MaxRenews
		item.CanReturn = active
		item.CanDelete = !active
		result[i] = item
	}
	return result, nil
}

// cappedEventDate simulates a realistic processing delay for demo data:
// a random instant between the anchor and at most three days later,
// never in the future. If the window collapses the current time is
// used.
func (m *Manager) cappedEventDate(anchor time.Time) time.Time {
	now := m.now()
	latest := anchor.Add(maxEventDelay)
	if now.Before(latest) {
		latest = now
	}
	if !latest.After(anchor) {
		return now
	}
	span := latest.Sub(anchor)
	return anchor.Add(time.Duration(m.rng.Int63n(int64(span) + 1)))
}
