package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/wavelength-app/wavelength/internal/common"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *HTTPServer) registerUser(c *gin.Context) {

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors(err)})
		return
	}

	s.logger.Info(c.Request.Context(), "Registration request")

	_, err := s.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		s.logger.Error(c.Request.Context(), "registration failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "username", req.Username)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (s *HTTPServer) loginUser(c *gin.Context) {

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors(err)})
		return
	}

	token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// unknown email and wrong password are indistinguishable on the wire
		if errors.Is(err, common.ErrorUnauthorized) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
			return
		}
		s.logger.Error(c.Request.Context(), "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
}

func (s *HTTPServer) getProfile(c *gin.Context) {

	userID := c.GetString(userIDKey)

	profile, err := s.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		s.logger.Error(c.Request.Context(), "profile fetch failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (s *HTTPServer) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// fieldErrors turns a binding failure into a field→message map the form
// can render next to its inputs. Non-validator errors (malformed JSON)
// collapse into a single "body" entry.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = "invalid request body"
		return out
	}

	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = field + " is required"
		case "email":
			out[field] = "must be a valid email address"
		default:
			out[field] = "invalid value"
		}
	}
	return out
}
