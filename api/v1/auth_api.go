package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studenthub/api/v1/request"
	"studenthub/internal/apperr"
	"studenthub/internal/metrics"
	"studenthub/middleware"
	"studenthub/service"
)

// AuthAPI exposes HTTP handlers for the signup/verify/login/profile flows.
// AuthAPI 聚合了所有与账号相关的 HTTP Handler。
type AuthAPI struct {
	service *service.AuthService
}

// NewAuthAPI wires the service layer into the HTTP handlers.
func NewAuthAPI(s *service.AuthService) *AuthAPI {
	return &AuthAPI{service: s}
}

// Signup starts a pending registration and mails the OTP.
func (a *AuthAPI) Signup(c *gin.Context) {
	var req request.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncSignup("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expiresAt, err := a.service.Signup(c.Request.Context(), req.Name, req.Bio, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrEmailTaken) {
			metrics.IncSignup("conflict")
		} else {
			metrics.IncSignup("error")
		}
		writeError(c, err)
		return
	}

	metrics.IncSignup("success")
	c.JSON(http.StatusOK, gin.H{
		"message":    "Signup successful. OTP sent to email.",
		"expires_at": expiresAt,
	})
}

// VerifyEmail consumes the OTP and commits the user.
func (a *AuthAPI) VerifyEmail(c *gin.Context) {
	var req request.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncVerify("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.service.VerifyEmail(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		metrics.IncVerify("failed")
		writeError(c, err)
		return
	}

	metrics.IncVerify("success")
	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
		"user":    user,
	})
}

// Login validates credentials and returns a bearer token plus a user summary.
func (a *AuthAPI) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncLogin("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := a.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		metrics.IncLogin("unauthorized")
		writeError(c, err)
		return
	}

	metrics.IncLogin("success")
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// GetProfile returns the authenticated user's profile.
func (a *AuthAPI) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// UpdateProfile applies a partial profile update from a multipart form:
// name / bio 为可选字段，file 为可选的 JPEG/PNG 头像。
func (a *AuthAPI) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)

	name := c.PostForm("name")
	bio := c.PostForm("bio")

	var image *service.ImageUpload
	if fileHeader, err := c.FormFile("file"); err == nil {
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
			return
		}
		defer f.Close()
		image = &service.ImageUpload{
			Data:        f,
			ContentType: fileHeader.Header.Get("Content-Type"),
		}
	}

	updated, err := a.service.UpdateProfile(c.Request.Context(), user, name, bio, image)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// RemoveProfilePicture unconditionally clears the picture field.
func (a *AuthAPI) RemoveProfilePicture(c *gin.Context) {
	user := middleware.CurrentUser(c)

	updated, err := a.service.RemoveProfilePicture(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// writeError 将领域错误映射为统一的 HTTP 错误响应
func writeError(c *gin.Context, err error) {
	httpErr := apperr.MapErrorToHTTP(err)
	c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}
