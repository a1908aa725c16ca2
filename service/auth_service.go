package service

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"studenthub/dao"
	"studenthub/internal/apperr"
	"studenthub/internal/auth"
	"studenthub/internal/mailer"
	"studenthub/internal/media"
	"studenthub/internal/metrics"
	"studenthub/internal/pending"
	"studenthub/model"
	"studenthub/utils"
)

// ImageUpload carries raw image bytes plus the declared content type.
type ImageUpload struct {
	Data        io.Reader
	ContentType string
}

// AuthService bundles the user store, the pending-registration table, the
// notifier and the image host behind the signup/login/profile operations.
type AuthService struct {
	users    dao.UserStore
	pending  *pending.Table
	notifier mailer.Notifier
	uploader media.Service
}

// NewAuthService 创建一个新的 AuthService 实例
func NewAuthService(users dao.UserStore, table *pending.Table, notifier mailer.Notifier, uploader media.Service) *AuthService {
	return &AuthService{
		users:    users,
		pending:  table,
		notifier: notifier,
		uploader: uploader,
	}
}

// Signup hashes the password, parks the draft in the pending table and
// enqueues the OTP mail. The mail is fire-and-forget: delivery failure never
// rolls back the pending registration. Returns the OTP expiry.
func (s *AuthService) Signup(ctx context.Context, name, bio, email, password string) (time.Time, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if existing != nil {
		return time.Time{}, apperr.ErrEmailTaken
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return time.Time{}, err
	}

	draft := model.User{
		Name:         name,
		Bio:          bio,
		Email:        email,
		PasswordHash: hashed,
	}
	otp, expiresAt, err := s.pending.Begin(email, draft)
	if err != nil {
		return time.Time{}, err
	}

	s.notifier.EnqueueOTP(email, otp)
	return expiresAt, nil
}

// VerifyEmail consumes the pending registration and commits the draft as a
// verified user. The pending entry is gone either way once the code matched;
// a racing duplicate insert surfaces as Conflict.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*model.User, error) {
	draft, err := s.pending.Verify(email, code)
	if err != nil {
		return nil, err
	}
	draft.IsVerified = true
	if err := s.users.Create(ctx, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// Login validates credentials and issues a bearer token (sub = email).
// 未验证邮箱的账号不允许登录；由于用户文档只在验证成功后才写入，
// 这里的 IsVerified 检查只是兜底。
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, apperr.ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, apperr.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", nil, apperr.ErrEmailNotVerified
	}

	token, err := auth.GenerateToken(user.Email)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to the committed user. Every protected
// endpoint goes through this exactly once per request (via the middleware).
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := auth.ParseToken(token)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrUnauthorized
	}
	return user, nil
}

// UpdateProfile applies a partial update: empty name/bio mean unchanged, a
// nil image leaves the picture alone. The image is uploaded before anything
// is persisted, so a failed upload commits nothing.
func (s *AuthService) UpdateProfile(ctx context.Context, user *model.User, name, bio string, image *ImageUpload) (*model.User, error) {
	fields := bson.M{}
	if name != "" {
		fields["name"] = name
		user.Name = name
	}
	if bio != "" {
		fields["bio"] = bio
		user.Bio = bio
	}

	if image != nil {
		url, err := uploadImage(ctx, s.uploader, "profile", image)
		if err != nil {
			return nil, err
		}
		fields["profilePic"] = url
		user.ProfilePic = &url
	}

	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, user.ID, fields); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// RemoveProfilePicture unconditionally clears the picture field.
func (s *AuthService) RemoveProfilePicture(ctx context.Context, user *model.User) (*model.User, error) {
	if err := s.users.UpdateFields(ctx, user.ID, bson.M{"profilePic": nil}); err != nil {
		return nil, err
	}
	user.ProfilePic = nil
	return user, nil
}

// uploadImage 校验内容类型后上传图片；校验失败不产生任何网络调用
func uploadImage(ctx context.Context, uploader media.Service, kind string, image *ImageUpload) (string, error) {
	if !media.AllowedContentType(image.ContentType) {
		return "", apperr.ErrUnsupportedImage
	}
	url, err := uploader.UploadImage(ctx, kind, image.Data, image.ContentType)
	if err != nil {
		metrics.IncImageUpload("error")
		return "", apperr.ErrUploadFailed
	}
	metrics.IncImageUpload("success")
	return url, nil
}
