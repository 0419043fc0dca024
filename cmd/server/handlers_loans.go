package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const loanDateFormat = "02 Jan 2006"

func formatLoanDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format(loanDateFormat)
}

func (s *server) listLoans(c *gin.Context) {
	user := actingUser(c)

	userLoans, err := s.loans.ListForUser(user.UserUid)
	if err != nil {
		s.renderError(c, err)
		return
	}

	items := make([]gin.H, len(userLoans))
	for i, loan := range userLoans {
		borrow := loan.BorrowDate
		due := loan.DueDate
		items[i] = gin.H{
			"loanUid":    loan.LoanUid,
			"bookUid":    loan.BookUid,
			"bookTitle":  loan.BookTitle,
			"bookImage":  loan.BookImage,
			"borrowDate": formatLoanDate(&borrow),
			"dueDate":    formatLoanDate(&due),
			"returnDate": formatLoanDate(loan.ReturnDate),
			"renewCount": loan.RenewCount,
			"isActive":   loan.Active(),
			"isOverdue":  loan.IsOverdue,
			"canRenew":   loan.CanRenew,
			"canReturn":  loan.CanReturn,
			"canDelete":  loan.CanDelete,
		}
	}
	c.JSON(http.StatusOK, items)
}

func (s *server) createLoan(c *gin.Context) {
	user := actingUser(c)

	var request struct {
		BookUid string `json:"bookUid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	loan, err := s.loans.Create(request.BookUid, user.UserUid, time.Time{})
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Loan created successfully!",
		"loanUid":    loan.LoanUid,
		"bookUid":    loan.BookUid,
		"borrowDate": loan.BorrowDate.Format(loanDateFormat),
		"dueDate":    loan.DueDate.Format(loanDateFormat),
	})
}

func (s *server) renewLoan(c *gin.Context) {
	user := actingUser(c)
	loanUid := c.Param("loanUid")

	loan, err := s.loans.Renew(loanUid, user.UserUid)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Loan successfully renewed. New due date: " + loan.DueDate.Format(loanDateFormat),
		"loanUid":    loan.LoanUid,
		"dueDate":    loan.DueDate.Format(loanDateFormat),
		"renewCount": loan.RenewCount,
	})
}

func (s *server) returnLoan(c *gin.Context) {
	user := actingUser(c)
	loanUid := c.Param("loanUid")

	loan, err := s.loans.Return(loanUid, user.UserUid)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Book successfully returned!",
		"loanUid":    loan.LoanUid,
		"returnDate": formatLoanDate(loan.ReturnDate),
	})
}

func (s *server) deleteLoan(c *gin.Context) {
	user := actingUser(c)
	loanUid := c.Param("loanUid")

	if err := s.loans.Delete(loanUid, user.UserUid); err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Loan record successfully deleted."})
}
