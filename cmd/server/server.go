package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"library-app/pkg/books"
	"library-app/pkg/loans"
	"library-app/pkg/models"
	"library-app/pkg/sessions"
	"library-app/pkg/users"
)

const sessionCookie = "session"

type server struct {
	db       *gorm.DB
	books    *books.Store
	loans    *loans.Manager
	users    *users.Store
	sessions *sessions.Store
	ttl      time.Duration
}

func newServer(db *gorm.DB, sessionTTL time.Duration) *server {
	return &server{
		db:       db,
		books:    books.NewStore(db),
		loans:    loans.NewManager(db),
		users:    users.NewStore(db),
		sessions: sessions.NewStore(db, sessionTTL),
		ttl:      sessionTTL,
	}
}

func (s *server) router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api/v1")
	api.GET("/books", s.listBooks)
	api.GET("/books/:bookUid", s.getBook)
	api.POST("/books", s.requireAuth, s.requireAdmin, s.createBook)

	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)
	api.POST("/auth/logout", s.logout)

	authed := api.Group("/loans", s.requireAuth)
	authed.GET("", s.listLoans)
	authed.POST("", s.createLoan)
	authed.POST("/:loanUid/renew", s.renewLoan)
	authed.POST("/:loanUid/return", s.returnLoan)
	authed.DELETE("/:loanUid", s.deleteLoan)

	r.GET("/manage/health", s.healthCheck)
	return r
}

// currentUser resolves the session cookie to a user, or nil for
// anonymous requests.
func (s *server) currentUser(c *gin.Context) *models.User {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		return nil
	}
	userUid, err := s.sessions.Resolve(token)
	if err != nil {
		return nil
	}
	user, err := s.users.GetByUid(userUid)
	if err != nil {
		return nil
	}
	return user
}

func (s *server) requireAuth(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please log in to access this page"})
		return
	}
	c.Set("user", user)
	c.Next()
}

func (s *server) requireAdmin(c *gin.Context) {
	user := actingUser(c)
	if user == nil || !user.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "only administrators can use this function"})
		return
	}
	c.Next()
}

func actingUser(c *gin.Context) *models.User {
	value, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// renderError maps the domain error taxonomy onto HTTP statuses. The
// failing operation leaves no observable mutation behind, so the body
// is just the human-readable message.
func (s *server) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, books.ErrNotFound),
		errors.Is(err, loans.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, loans.ErrDuplicateLoan),
		errors.Is(err, users.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, books.ErrUnavailable),
		errors.Is(err, books.ErrInvalid),
		errors.Is(err, loans.ErrAlreadyReturned),
		errors.Is(err, loans.ErrRenewalLimit),
		errors.Is(err, loans.ErrLoanActive):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *server) healthCheck(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database connection failed",
			"error":   err.Error(),
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
