package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrEmailTaken is returned when a signup hits an existing or pending email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPendingNotFound is returned when no pending registration exists for an email.
	ErrPendingNotFound = errors.New("pending registration not found")
	// ErrInvalidOTP is returned when the supplied code does not match.
	ErrInvalidOTP = errors.New("invalid verification code")
	// ErrOTPExpired is returned when the pending registration window has elapsed.
	ErrOTPExpired = errors.New("verification code expired")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a token is missing, invalid or expired.
	ErrUnauthorized = errors.New("invalid or expired token")
	// ErrEmailNotVerified is returned when an unverified account tries to log in.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrForbidden is returned on ownership violations.
	ErrForbidden = errors.New("not authorized to perform this action")
	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrPostNotFound is returned when a post lookup misses.
	ErrPostNotFound = errors.New("post not found")
	// ErrCommentNotFound is returned when a comment lookup misses.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrUploadFailed is returned when the image host rejects an upload.
	ErrUploadFailed = errors.New("image upload failed")
	// ErrUnsupportedImage is returned before any network call for non JPEG/PNG uploads.
	ErrUnsupportedImage = errors.New("only JPEG or PNG images allowed")
)

// ErrorResponse 统一的错误响应体
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents a domain error mapped onto an HTTP status.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrPendingNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "PENDING_NOT_FOUND")
	case errors.Is(err, ErrInvalidOTP):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_OTP")
	case errors.Is(err, ErrOTPExpired):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "OTP_EXPIRED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrEmailNotVerified):
		return NewHTTPError(http.StatusForbidden, err.Error(), "EMAIL_NOT_VERIFIED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrPostNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "POST_NOT_FOUND")
	case errors.Is(err, ErrCommentNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "COMMENT_NOT_FOUND")
	case errors.Is(err, ErrUploadFailed):
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "UPLOAD_FAILED")
	case errors.Is(err, ErrUnsupportedImage):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "UNSUPPORTED_IMAGE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
