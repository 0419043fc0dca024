package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-app/pkg/books"
	"library-app/pkg/models"
)

func bookSummary(book models.Book) gin.H {
	return gin.H{
		"bookUid":   book.BookUid,
		"title":     book.Title,
		"authors":   book.Authors,
		"category":  book.Category,
		"genres":    book.Genres,
		"pages":     book.Pages,
		"imageFile": book.ImageFile,
		"copies":    book.Copies,
		"available": book.Available,
	}
}

func (s *server) listBooks(c *gin.Context) {
	category := c.DefaultQuery("category", models.CategoryAll)
	pageStr := c.DefaultQuery("page", "1")
	sizeStr := c.DefaultQuery("size", "10")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	if category != models.CategoryAll && !models.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	result, total, err := s.books.List(category, page, size)
	if err != nil {
		s.renderError(c, err)
		return
	}

	items := make([]gin.H, len(result))
	for i, book := range result {
		items[i] = bookSummary(book)
	}
	c.JSON(http.StatusOK, gin.H{
		"page":          page,
		"pageSize":      size,
		"totalElements": total,
		"category":      category,
		"items":         items,
	})
}

func (s *server) getBook(c *gin.Context) {
	bookUid := c.Param("bookUid")

	book, err := s.books.Get(bookUid)
	if err != nil {
		s.renderError(c, err)
		return
	}

	payload := bookSummary(*book)
	payload["description"] = book.Description
	payload["isbn"] = book.ISBN
	payload["publisher"] = book.Publisher
	payload["publicationYear"] = book.PublicationYear

	// The detail page disables the borrow action when the viewer
	// already holds this book.
	if user := s.currentUser(c); user != nil {
		hasLoan, err := s.loans.HasActiveLoan(book.BookUid, user.UserUid)
		if err != nil {
			s.renderError(c, err)
			return
		}
		payload["hasActiveLoan"] = hasLoan
	}

	c.JSON(http.StatusOK, payload)
}

type createBookRequest struct {
	Title           string   `json:"title" binding:"required"`
	Authors         []string `json:"authors" binding:"required,min=1"`
	Category        string   `json:"category" binding:"required"`
	Genres          []string `json:"genres"`
	Pages           int      `json:"pages" binding:"omitempty,min=1"`
	Description     string   `json:"description"`
	ImageFile       string   `json:"imageFile"`
	ISBN            string   `json:"isbn"`
	Publisher       string   `json:"publisher"`
	PublicationYear int      `json:"publicationYear" binding:"omitempty,min=1000,max=2100"`
	Copies          int      `json:"copies" binding:"required,min=1"`
	Available       int      `json:"available" binding:"min=0"`
}

func (s *server) createBook(c *gin.Context) {
	var request createBookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	book, err := s.books.Create(books.CreateParams{
		Title:           request.Title,
		Authors:         request.Authors,
		Category:        request.Category,
		Genres:          request.Genres,
		Pages:           request.Pages,
		Description:     request.Description,
		ImageFile:       request.ImageFile,
		ISBN:            request.ISBN,
		Publisher:       request.Publisher,
		PublicationYear: request.PublicationYear,
		Copies:          request.Copies,
		Available:       request.Available,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"bookUid": book.BookUid,
		"message": "Book '" + book.Title + "' added successfully",
	})
}
