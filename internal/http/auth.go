package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"health-assistant/internal/domain"
	"health-assistant/internal/service"
)

// signupRequest accepts "credential" as an alias of "password".
type signupRequest struct {
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Credential string   `json:"credential"`
	Name       string   `json:"name"`
	Age        int      `json:"age"`
	Gender     string   `json:"gender"`
	Goals      []string `json:"goals"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Credential string `json:"credential"`
}

type UserResponse struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name,omitempty"`
	Age       int      `json:"age,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Goals     []string `json:"goals,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	_, err := h.auth.Signup(c.Request.Context(), service.SignupRequest{
		Email:    req.Email,
		Password: firstNonEmpty(req.Password, req.Credential),
		Profile: domain.Profile{
			Name:   req.Name,
			Age:    req.Age,
			Gender: req.Gender,
			Goals:  req.Goals,
		},
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User registered"})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// login only answers 200, 401 or 500
		h.writeError(c, service.ErrInvalidCredentials)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), service.LoginRequest{
		Email:    req.Email,
		Password: firstNonEmpty(req.Password, req.Credential),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: res.Token,
		User:  userToResponse(res.User),
	})
}

func (h *Handler) me(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		h.writeError(c, service.ErrUnauthorized)
		return
	}

	user, err := h.auth.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Age:       user.Age,
		Gender:    user.Gender,
		Goals:     user.Goals,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
