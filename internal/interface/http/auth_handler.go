package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "authapi/internal/application"
	"authapi/internal/domain/entity"
	"authapi/internal/interface/middleware"
	"authapi/pkg/response"
	"authapi/pkg/validation"
)

const dateLayout = "2006-01-02"

type AuthHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *userapp.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	FullName  string `json:"fullName" binding:"required,min=3,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,pwd"`
	Gender    string `json:"gender" binding:"required,oneof=male female"`
	Phone     string `json:"phone" binding:"required,phonenum"`
	BirthDate string `json:"birthDate" binding:"required,datetime=2006-01-02"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	FullName  string `json:"fullName" binding:"omitempty,min=3,max=100"`
	Email     string `json:"email" binding:"omitempty,email"`
	Gender    string `json:"gender" binding:"omitempty,oneof=male female"`
	Phone     string `json:"phone" binding:"omitempty,phonenum"`
	BirthDate string `json:"birthDate" binding:"omitempty,datetime=2006-01-02"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,pwd"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	birth, _ := time.Parse(dateLayout, req.BirthDate)

	u, token, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		FullName:  req.FullName,
		Email:     req.Email,
		Password:  req.Password,
		Gender:    entity.Gender(req.Gender),
		Phone:     req.Phone,
		BirthDate: birth,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrEmailTaken) {
			response.Error[any](c, http.StatusBadRequest, "email already registered", nil)
			return
		}
		response.Error[any](c, http.StatusBadRequest, "failed to register user", err.Error())
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": u.Public(), "token": token}, "user registered successfully", nil)
}

// Login POST /api/auth/login
// The failure message is identical for an unknown email and a wrong
// password so responses carry no user-existence oracle.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "please provide email and password", validation.ToDetails(err))
		return
	}
	u, token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u.Public(), "token": token}, "login successful", nil)
}

// Me GET /api/auth/me
// The record was already resolved by the auth middleware; no extra store
// round-trip happens here.
func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "not authorized", nil)
		return
	}
	response.Success(c, http.StatusOK, u.Public(), "profile", nil)
}

// UpdateProfile PUT /api/auth/updateprofile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "not authorized", nil)
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	changes := entity.ProfileChanges{
		FullName: req.FullName,
		Email:    req.Email,
		Gender:   entity.Gender(req.Gender),
		Phone:    req.Phone,
	}
	if req.BirthDate != "" {
		changes.BirthDate, _ = time.Parse(dateLayout, req.BirthDate)
	}

	updated, err := h.Svc.UpdateProfile(c.Request.Context(), u.ID, changes)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, userapp.ErrEmailTaken):
			response.Error[any](c, http.StatusBadRequest, "email already registered", nil)
		default:
			response.Error[any](c, http.StatusBadRequest, "failed to update profile", err.Error())
		}
		return
	}
	response.Success(c, http.StatusOK, updated.Public(), "profile updated successfully", nil)
}

// ChangePassword PUT /api/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "not authorized", nil)
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, userapp.ErrInvalidCredentials):
			response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		default:
			response.Error[any](c, http.StatusBadRequest, "failed to change password", err.Error())
		}
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password updated", nil)
}

// ListUsers GET /api/auth/users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "failed to list users", err.Error())
		return
	}
	out := make([]entity.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	response.Success(c, http.StatusOK, out, "users", map[string]any{"count": len(out)})
}

// Search GET /api/auth/users/search?q=&size=
func (h *AuthHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "search failed", err.Error())
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

// UploadAvatar POST /api/auth/avatar (multipart field "avatar")
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "not authorized", nil)
		return
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "failed to read avatar file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	updated, err := h.Svc.UploadAvatar(c.Request.Context(), u.ID, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error[any](c, http.StatusBadRequest, "failed to upload avatar", err.Error())
		return
	}
	response.Success(c, http.StatusOK, updated.Public(), "avatar updated", nil)
}
