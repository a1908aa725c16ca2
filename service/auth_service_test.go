package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"studenthub/config"
	"studenthub/internal/apperr"
	"studenthub/internal/pending"
	"studenthub/model"
	"studenthub/utils"
)

// MockUserStore is a mock implementation of dao.UserStore.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

// MockUploader is a mock implementation of media.Service.
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) UploadImage(ctx context.Context, kind string, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, kind, body, contentType)
	return args.String(0), args.Error(1)
}

// stubNotifier 记录最近一次入队的验证码，便于在流程测试中取用
type stubNotifier struct {
	email string
	otp   string
	calls int
}

func (s *stubNotifier) EnqueueOTP(email, otp string) {
	s.email = email
	s.otp = otp
	s.calls++
}

func setupConfig(t *testing.T) {
	t.Helper()
	config.GlobalConfig = &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", Expire: 604800},
		OTP: config.OTPConfig{TTL: 300, Digits: 6},
	}
}

func newAuthService(users *MockUserStore, notifier *stubNotifier, uploader *MockUploader) *AuthService {
	table := pending.NewTable(300*time.Second, 6)
	return NewAuthService(users, table, notifier, uploader)
}

func TestSignupNewEmail(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	notifier := &stubNotifier{}
	svc := newAuthService(users, notifier, new(MockUploader))

	users.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, nil)

	before := time.Now()
	expiresAt, err := svc.Signup(context.Background(), "Alice", "student", "a@x.com", "pw123456")
	require.NoError(t, err)

	assert.WithinDuration(t, before.Add(300*time.Second), expiresAt, time.Second)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "a@x.com", notifier.email)
	assert.Len(t, notifier.otp, 6)
	users.AssertExpectations(t)
}

func TestSignupEmailAlreadyCommitted(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	notifier := &stubNotifier{}
	svc := newAuthService(users, notifier, new(MockUploader))

	users.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{Email: "a@x.com"}, nil)

	_, err := svc.Signup(context.Background(), "Alice", "", "a@x.com", "pw123456")
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
	assert.Zero(t, notifier.calls)
}

func TestSignupEmailAlreadyPending(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	notifier := &stubNotifier{}
	svc := newAuthService(users, notifier, new(MockUploader))

	users.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, nil)

	_, err := svc.Signup(context.Background(), "Alice", "", "a@x.com", "pw123456")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "Alice", "", "a@x.com", "pw123456")
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
	assert.Equal(t, 1, notifier.calls)
}

// 完整场景：signup -> 错误验证码 -> 正确验证码 -> login -> authenticate
func TestSignupVerifyLoginFlow(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	notifier := &stubNotifier{}
	svc := newAuthService(users, notifier, new(MockUploader))

	users.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, nil).Once()

	_, err := svc.Signup(context.Background(), "Alice", "student", "a@x.com", "pw123456")
	require.NoError(t, err)

	// 错误验证码
	wrong := "000000"
	if notifier.otp == wrong {
		wrong = "000001"
	}
	_, err = svc.VerifyEmail(context.Background(), "a@x.com", wrong)
	assert.ErrorIs(t, err, apperr.ErrInvalidOTP)

	// 正确验证码：提交的用户必须已标记为已验证
	var committed *model.User
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Run(func(args mock.Arguments) {
		committed = args.Get(1).(*model.User)
		committed.ID = primitive.NewObjectID()
	}).Return(nil).Once()

	user, err := svc.VerifyEmail(context.Background(), "a@x.com", notifier.otp)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Equal(t, "Alice", user.Name)
	assert.True(t, utils.CheckPasswordHash("pw123456", user.PasswordHash))

	// 验证码只能消费一次
	_, err = svc.VerifyEmail(context.Background(), "a@x.com", notifier.otp)
	assert.ErrorIs(t, err, apperr.ErrPendingNotFound)

	// 登录拿 token，再用 token 反查用户
	users.On("FindByEmail", mock.Anything, "a@x.com").Return(committed, nil)

	token, loggedIn, err := svc.Login(context.Background(), "a@x.com", "pw123456")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, committed.ID, loggedIn.ID)

	authed, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", authed.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	svc := newAuthService(users, &stubNotifier{}, new(MockUploader))

	hash, err := utils.HashPassword("correct-pw")
	require.NoError(t, err)
	users.On("FindByEmail", mock.Anything, "a@x.com").
		Return(&model.User{Email: "a@x.com", PasswordHash: hash, IsVerified: true}, nil)

	_, _, err = svc.Login(context.Background(), "a@x.com", "wrong-pw")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	svc := newAuthService(users, &stubNotifier{}, new(MockUploader))

	users.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, nil)

	_, _, err := svc.Login(context.Background(), "nobody@x.com", "pw123456")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLoginUnverifiedUserRejected(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	svc := newAuthService(users, &stubNotifier{}, new(MockUploader))

	hash, err := utils.HashPassword("pw123456")
	require.NoError(t, err)
	users.On("FindByEmail", mock.Anything, "a@x.com").
		Return(&model.User{Email: "a@x.com", PasswordHash: hash, IsVerified: false}, nil)

	_, _, err = svc.Login(context.Background(), "a@x.com", "pw123456")
	assert.ErrorIs(t, err, apperr.ErrEmailNotVerified)
}

func TestAuthenticateGarbageToken(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	svc := newAuthService(users, &stubNotifier{}, new(MockUploader))

	_, err := svc.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestUpdateProfileRejectsBadContentType(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	uploader := new(MockUploader)
	svc := newAuthService(users, &stubNotifier{}, uploader)

	user := &model.User{ID: primitive.NewObjectID(), Name: "Alice"}
	image := &ImageUpload{Data: strings.NewReader("gif!"), ContentType: "image/gif"}

	_, err := svc.UpdateProfile(context.Background(), user, "", "", image)
	assert.ErrorIs(t, err, apperr.ErrUnsupportedImage)
	// 校验失败不应产生任何上传调用
	uploader.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfileUploadFailureCommitsNothing(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	uploader := new(MockUploader)
	svc := newAuthService(users, &stubNotifier{}, uploader)

	uploader.On("UploadImage", mock.Anything, "profile", mock.Anything, "image/png").
		Return("", errors.New("host down"))

	user := &model.User{ID: primitive.NewObjectID(), Name: "Alice"}
	image := &ImageUpload{Data: strings.NewReader("png"), ContentType: "image/png"}

	_, err := svc.UpdateProfile(context.Background(), user, "New Name", "", image)
	assert.ErrorIs(t, err, apperr.ErrUploadFailed)
	users.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfilePartial(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	uploader := new(MockUploader)
	svc := newAuthService(users, &stubNotifier{}, uploader)

	user := &model.User{ID: primitive.NewObjectID(), Name: "Alice", Bio: "old"}
	users.On("UpdateFields", mock.Anything, user.ID, bson.M{"bio": "new bio"}).Return(nil)

	updated, err := svc.UpdateProfile(context.Background(), user, "", "new bio", nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "new bio", updated.Bio)
	users.AssertExpectations(t)
}

func TestRemoveProfilePicture(t *testing.T) {
	setupConfig(t)
	users := new(MockUserStore)
	svc := newAuthService(users, &stubNotifier{}, new(MockUploader))

	pic := "https://cdn.example.com/p.jpg"
	user := &model.User{ID: primitive.NewObjectID(), ProfilePic: &pic}
	users.On("UpdateFields", mock.Anything, user.ID, bson.M{"profilePic": nil}).Return(nil)

	updated, err := svc.RemoveProfilePicture(context.Background(), user)
	require.NoError(t, err)
	assert.Nil(t, updated.ProfilePic)
}
