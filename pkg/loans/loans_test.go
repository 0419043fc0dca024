package loans

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"library-app/pkg/books"
	"library-app/pkg/database"
	"library-app/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testManager(t *testing.T, db *gorm.DB, now time.Time) *Manager {
	m := NewManager(db)
	m.now = func() time.Time { return now }
	m.rng = rand.New(rand.NewSource(1))
	return m
}

func testBook(t *testing.T, db *gorm.DB, copies, available int) *models.Book {
	t.Helper()
	book, err := books.NewStore(db).Create(books.CreateParams{
		Title:     "Borders",
		Authors:   []string{"Thomas King"},
		Category:  models.CategoryTeens,
		Copies:    copies,
		Available: available,
	})
	require.NoError(t, err)
	return book
}

func availableCount(t *testing.T, db *gorm.DB, bookUid string) int {
	t.Helper()
	book, err := books.NewStore(db).Get(bookUid)
	require.NoError(t, err)
	return book.Available
}

func TestCreateLoan(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	m := testManager(t, db, now)
	book := testBook(t, db, 2, 2)

	loan, err := m.Create(book.BookUid, "user-1", time.Time{})
	require.NoError(t, err)
	assert.NotEmpty(t, loan.LoanUid)
	assert.Equal(t, now, loan.BorrowDate)
	assert.Equal(t, now.Add(LoanPeriod), loan.DueDate)
	assert.Equal(t, 0, loan.RenewCount)
	assert.True(t, loan.Active())
	assert.Equal(t, 1, availableCount(t, db, book.BookUid))
}

func TestCreateLoanSuppliedBorrowDate(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	m := testManager(t, db, now)
	book := testBook(t, db, 1, 1)

	borrow := now.AddDate(0, 0, -15)
	loan, err := m.Create(book.BookUid, "user-1", borrow)
	require.NoError(t, err)
	assert.Equal(t, borrow, loan.BorrowDate)
	assert.Equal(t, borrow.Add(LoanPeriod), loan.DueDate)
}

func TestCreateLoanDuplicate(t *testing.T) {
	db := setupTestDB(t)
	m := testManager(t, db, time.Now())
	book := testBook(t, db, 2, 2)

	_, err := m.Create(book.BookUid, "user-1", time.Time{})
	require.NoError(t, err)

	_, err = m.Create(book.BookUid, "user-1", time.Time{})
	assert.ErrorIs(t, err, ErrDuplicateLoan)
	assert.Equal(t, 1, availableCount(t, db, book.BookUid))

	// A different user may still borrow the remaining copy.
	_, err = m.Create(book.BookUid, "user-2", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, availableCount(t, db, book.BookUid))
}

func TestCreateLoanUnavailable(t *testing.T) {
	db := setupTestDB(t)
	m := testManager(t, db, time.Now())
	book := testBook(t, db, 2, 0)

	_, err := m.Create(book.BookUid, "user-1", time.Time{})
	assert.ErrorIs(t, err, books.ErrUnavailable)
	assert.Equal(t, 0, availableCount(t, db, book.BookUid))

	var count int64
	db.Model(&models.Loan{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateLoanBookNotFound(t *testing.T) {
	db := setupTestDB(t)
	m := testManager(t, db, time.Now())

	_, err := m.Create("no-such-book", "user-1", time.Time{})
	assert.ErrorIs(t, err, books.ErrNotFound)
}

func TestRenewLoan(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	m := testManager(t, db, now)
	book := testBook(t, db, 1, 1)

	borrow := now.AddDate(0, 0, -10)
	loan, err := m.Create(book.BookUid, "user-1", borrow)
	require.NoError(t, err)

	renewed, err := m.Renew(loan.LoanUid, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, renewed.RenewCount)
	assert.False(t, renewed.BorrowDate.Before(borrow))
	assert.False(t, renewed.BorrowDate.After(borrow.Add(maxEventDelay)))
	assert.Equal(t, renewed.BorrowDate.Add(LoanPeriod), renewed.DueDate)
}

func TestRenewLoanLimit(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	m := testManager(t, db, now)
	book := testBook(t, db, 1, 1)

	loan, err := m.Create(book.BookUid, "user-1", now.AddDate(0, 0, -10))
	require.NoError(t, err)

	for i := 1; i <= MaxRenews; i++ {
		renewed, err := m.Renew(loan.LoanUid, "user-1")
		require.NoError(t, err)
		assert.Equal(t, i, renewed.RenewCount)
	}

	_, err = m.Renew(loan.LoanUid, "user-1")
	assert.ErrorIs(t, err, ErrRenewalLimit)

	got, err := m.Get(loan.LoanUid, "user-1")
	require.NoError(t, err)
	assert.Equal(t, MaxRenews, got.RenewCount)
}

func TestRenewLoanErrors(t *testing.T) {
	db := setupTestDB(t)
	m := testManager(t, db, time.Now())
	book := testBook(t, db, 1, 1)

	_, err := m.Renew("no-such-loan", "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	loan, err := m.Create(book.BookUid, "user-1", time.Time{})
	require.NoError(t, err)

	// Another user's loan is invisible.
	_, err = m.Renew(loan.LoanUid, "user-2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Return(loan.LoanUid, "user-1")
	require.NoError(t, err)

	_, err = m.Renew(loan.LoanUid, "user-1")
	assert.ErrorIs(t, err, ErrAlreadyReturned)
}

func TestReturnLoan(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	m := testManager(t, db, now)
	book := testBook(t, db, 1, 1)

	borrow := now.AddDate(0, 0, -10)
	loan, err := m.Create(book.BookUid, "user-1", borrow)
	require.NoError(t, err)
	assert.Equal(t, 0, availableCount(t, db, book.BookUid))

	returned, err := m.Return(loan.LoanUid, "user-1")
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)
	assert.False(t, returned.ReturnDate.Before(borrow))
	assert.False(t, returned.ReturnDate.After(borrow.Add(maxEventDelay)))
	assert.False(t, returned.Active())
	assert.Equal(t, 1, availableCount(t, db, book.BookUid))

	_, err = m.Return(loan.LoanUid, "user-1")
	assert.ErrorIs(t, err, ErrAlreadyReturned)
	assert.Equal(t, 1, availableCount(t, db, book.BookUid))
}

func TestDeleteLoan(t *testing.T) {
	db := setupTestDB(t)
	m := testManager(t, db, time.Now())
	book := testBook(t, db, 1, 1)

	loan, err := m.Create(book.BookUid, "user-1", time.Time{})
	require.NoError(t, err)

	// Active loans cannot be deleted.
	err = m.Delete(loan.LoanUid, "user-1")
	assert.ErrorIs(t, err, ErrLoanActive)
	_, err = m.Get(loan.LoanUid, "user-1")
	require.NoError(t, err)

	_, err = m.Return(loan.LoanUid, "user-1")
	require.NoError(t, err)

	require.NoError(t, m.Delete(loan.LoanUid, "user-1"))
	_, err = m.Get(loan.LoanUid, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.Delete(loan.LoanUid, "user-1"), ErrNotFound)
}

func TestHasActiveLoan(t *testing.T) {
	db := setupTestDB(t)
	m := testManager(t, db, time.Now())
	book := testBook(t, db, 1, 1)

	has, err := m.HasActiveLoan(book.BookUid, "user-1")
	require.NoError(t, err)
	assert.False(t, has)

	loan, err := m.Create(book.BookUid, "user-1", time.Time{})
	require.NoError(t, err)

	has, err = m.HasActiveLoan(book.BookUid, "user-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = m.HasActiveLoan(book.BookUid, "user-2")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = m.Return(loan.LoanUid, "user-1")
	require.NoError(t, err)

	has, err = m.HasActiveLoan(book.BookUid, "user-1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestListForUser(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	m := testManager(t, db, now)
	bookStore := books.NewStore(db)

	first := testBook(t, db, 1, 1)
	second, err := bookStore.Create(books.CreateParams{
		Title:     "Atomic Habits",
		Authors:   []string{"James Clear"},
		Category:  models.CategoryAdult,
		ImageFile: "cover2.jpg",
		Copies:    1,
		Available: 1,
	})
	require.NoError(t, err)

	// An overdue active loan and a fresh one.
	overdue, err := m.Create(first.BookUid, "user-1", now.AddDate(0, 0, -20))
	require.NoError(t, err)
	_, err = m.Create(second.BookUid, "user-1", time.Time{})
	require.NoError(t, err)

	result, err := m.ListForUser("user-1")
	require.NoError(t, err)
	require.Len(t, result, 2)

	// Newest borrow first.
	assert.Equal(t, "Atomic Habits", result[0].BookTitle)
	assert.Equal(t, "cover2.jpg", result[0].BookImage)
	assert.False(t, result[0].IsOverdue)
	assert.True(t, result[0].CanRenew)
	assert.True(t, result[0].CanReturn)
	assert.False(t, result[0].CanDelete)

	assert.Equal(t, "Borders", result[1].BookTitle)
	assert.True(t, result[1].IsOverdue)

	_, err = m.Return(overdue.LoanUid, "user-1")
	require.NoError(t, err)

	result, err = m.ListForUser("user-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.False(t, result[1].CanReturn)
	assert.False(t, result[1].CanRenew)
	assert.True(t, result[1].CanDelete)

	other, err := m.ListForUser("user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCappedEventDate(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	m := testManager(t, db, now)

	// Window collapsed: anchor at or past the cap yields now.
	assert.Equal(t, now, m.cappedEventDate(now))
	assert.Equal(t, now, m.cappedEventDate(now.Add(time.Hour)))

	// Anchor far in the past: bounded by anchor+3d.
	anchor := now.AddDate(0, 0, -10)
	for i := 0; i < 100; i++ {
		got := m.cappedEventDate(anchor)
		assert.False(t, got.Before(anchor))
		assert.False(t, got.After(anchor.Add(maxEventDelay)))
	}

	// Recent anchor: bounded by now.
	anchor = now.Add(-36 * time.Hour)
	for i := 0; i < 100; i++ {
		got := m.cappedEventDate(anchor)
		assert.False(t, got.Before(anchor))
		assert.False(t, got.After(now))
	}
}

// Full lifecycle for a single-copy book: borrow, duplicate attempt,
// return, delete.
func TestLoanLifecycleSingleCopy(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	m := testManager(t, db, now)
	book := testBook(t, db, 1, 1)

	loan, err := m.Create(book.BookUid, "user-1", now.AddDate(0, 0, -5))
	require.NoError(t, err)
	assert.Equal(t, 0, availableCount(t, db, book.BookUid))

	_, err = m.Create(book.BookUid, "user-1", time.Time{})
	assert.ErrorIs(t, err, ErrDuplicateLoan)
	assert.Equal(t, 0, availableCount(t, db, book.BookUid))

	returned, err := m.Return(loan.LoanUid, "user-1")
	require.NoError(t, err)
	assert.False(t, returned.Active())
	assert.Equal(t, 1, availableCount(t, db, book.BookUid))

	require.NoError(t, m.Delete(loan.LoanUid, "user-1"))
	assert.Equal(t, 1, availableCount(t, db, book.BookUid))

	var count int64
	db.Model(&models.Loan{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
