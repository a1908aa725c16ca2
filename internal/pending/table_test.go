package pending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthub/internal/apperr"
	"studenthub/model"
)

func draftUser(email string) model.User {
	return model.User{Name: "Alice", Bio: "student", Email: email, PasswordHash: "$2a$10$fake"}
}

func TestBeginTwiceConflicts(t *testing.T) {
	table := NewTable(5*time.Minute, 6)

	_, _, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	_, _, err = table.Begin("a@x.com", draftUser("a@x.com"))
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
}

func TestBeginReturnsExpiry(t *testing.T) {
	table := NewTable(300*time.Second, 6)

	before := time.Now()
	otp, expiresAt, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	assert.Len(t, otp, 6)
	assert.WithinDuration(t, before.Add(300*time.Second), expiresAt, time.Second)
}

func TestVerifySucceedsExactlyOnce(t *testing.T) {
	table := NewTable(5*time.Minute, 6)

	otp, _, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	user, err := table.Verify("a@x.com", otp)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "Alice", user.Name)

	_, err = table.Verify("a@x.com", otp)
	assert.ErrorIs(t, err, apperr.ErrPendingNotFound)
}

func TestVerifyWrongCodeKeepsEntry(t *testing.T) {
	table := NewTable(5*time.Minute, 6)

	otp, _, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	_, err = table.Verify("a@x.com", "000000x")
	assert.ErrorIs(t, err, apperr.ErrInvalidOTP)

	// 错误验证码不消耗条目，正确验证码仍然可用
	user, err := table.Verify("a@x.com", otp)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestVerifyAfterExpiryRemovesEntry(t *testing.T) {
	table := NewTable(5*time.Minute, 6)

	otp, _, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	// 拨快时钟到过期点之后，reaper 定时还未触发
	table.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	_, err = table.Verify("a@x.com", otp)
	assert.ErrorIs(t, err, apperr.ErrOTPExpired)

	// 条目已如同被 reaper 清除
	assert.False(t, table.Has("a@x.com"))
	_, err = table.Verify("a@x.com", otp)
	assert.ErrorIs(t, err, apperr.ErrPendingNotFound)
}

func TestReaperRemovesAfterTTL(t *testing.T) {
	table := NewTable(30*time.Millisecond, 6)

	otp, _, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return !table.Has("a@x.com") },
		time.Second, 5*time.Millisecond)

	_, err = table.Verify("a@x.com", otp)
	assert.ErrorIs(t, err, apperr.ErrPendingNotFound)
}

func TestBeginSupersedesExpiredEntry(t *testing.T) {
	table := NewTable(5*time.Minute, 6)

	_, _, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	// 第一条已过期：重新注册应当顶替而不是 Conflict
	table.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	_, _, err = table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)
}

func TestStaleReaperDoesNotClobberSupersedingBegin(t *testing.T) {
	table := NewTable(5*time.Minute, 6)

	_, _, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	// 第一代条目标记为已过期并被第二次 Begin 顶替
	table.mu.Lock()
	table.entries["a@x.com"].expiresAt = time.Now().Add(-time.Millisecond)
	table.mu.Unlock()

	otp2, _, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	// 模拟一次迟到的第一代清理：代际戳不匹配，新条目必须幸存
	table.reap("a@x.com", 1)
	assert.True(t, table.Has("a@x.com"))

	user, err := table.Verify("a@x.com", otp2)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestInvalidate(t *testing.T) {
	table := NewTable(5*time.Minute, 6)

	otp, _, err := table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)

	table.Invalidate("a@x.com")
	_, err = table.Verify("a@x.com", otp)
	assert.ErrorIs(t, err, apperr.ErrPendingNotFound)

	// 失效后允许重新注册
	_, _, err = table.Begin("a@x.com", draftUser("a@x.com"))
	require.NoError(t, err)
}
