package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-app/pkg/models"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=5"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *server) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(sessionCookie, token, int(s.ttl.Seconds()), "/", "", false, true)
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"userUid": user.UserUid,
		"email":   user.Email,
		"name":    user.Name,
		"role":    user.Role,
	}
}

func (s *server) register(c *gin.Context) {
	var request registerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := s.users.Register(request.Email, request.Password, request.Name)
	if err != nil {
		s.renderError(c, err)
		return
	}

	token, err := s.sessions.Create(user.UserUid)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.setSessionCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful! Welcome, " + user.Name + ".",
		"user":    userPayload(user),
	})
}

func (s *server) login(c *gin.Context) {
	var request loginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := s.users.Verify(request.Email, request.Password)
	if err != nil {
		s.renderError(c, err)
		return
	}

	token, err := s.sessions.Create(user.UserUid)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful! Welcome back, " + user.Name + ".",
		"user":    userPayload(user),
	})
}

func (s *server) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		if err := s.sessions.Revoke(token); err != nil {
			s.renderError(c, err)
			return
		}
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out."})
}
