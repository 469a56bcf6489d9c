package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Controller serves the JSON auth endpoints.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
}

// NewController creates the auth controller.
func NewController(service *Service, sessionManager *SessionManager) *Controller {
	return &Controller{
		service:        service,
		sessionManager: sessionManager,
	}
}

// RegisterRoutes wires the auth endpoints under /api/auth.
func (ctrl *Controller) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/auth")
	group.POST("/register", ctrl.Register)
	group.POST("/login", ctrl.Login)
	group.POST("/logout", ctrl.Logout)
	group.GET("/me", ctrl.Me)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	BooksRead int    `json:"books_read"`
}

// Register creates an account and returns the user together with the API
// token. The token is shown only in this response.
func (ctrl *Controller) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := ctrl.service.Register(req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, ErrEmailInvalid),
			errors.Is(err, ErrPasswordTooShort),
			errors.Is(err, ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": userResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			BooksRead: user.BooksRead,
		},
		"token": user.Token,
	})
}

// Login checks credentials and starts a session.
func (ctrl *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := ctrl.service.Authenticate(req.Email, req.Password)
	if err != nil {
		// Same answer for unknown user and bad password
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if ctrl.sessionManager != nil {
		if err := ctrl.sessionManager.CreateSession(c.Request, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			BooksRead: user.BooksRead,
		},
	})
}

// Logout destroys the current session.
func (ctrl *Controller) Logout(c *gin.Context) {
	if ctrl.sessionManager != nil {
		if err := ctrl.sessionManager.DestroySession(c.Request); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
func (ctrl *Controller) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := ctrl.service.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			BooksRead: user.BooksRead,
		},
	})
}
