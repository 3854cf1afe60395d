package services

import (
	"context"
	"testing"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Profile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, &RegisterInput{
		Email:    "wanjiru@example.com",
		Password: "correct-horse-battery",
	}, testNow)
	require.NoError(t, err)
	userID := resp.User.ID

	t.Run("phone is normalized", func(t *testing.T) {
		first := "Wanjiru"
		phone := "0712-345-678"
		profile, err := env.userSvc.UpdateProfile(ctx, userID, &UpdateProfileInput{FirstName: &first, PhoneNumber: &phone})
		require.NoError(t, err)
		assert.Equal(t, "Wanjiru", profile.FirstName)
		require.NotNil(t, profile.PhoneNumber)
		assert.Equal(t, "+254712345678", *profile.PhoneNumber)
	})

	t.Run("bad phone is rejected", func(t *testing.T) {
		phone := "12345"
		_, err := env.userSvc.UpdateProfile(ctx, userID, &UpdateProfileInput{PhoneNumber: &phone})
		assert.ErrorIs(t, err, domain.ErrInvalidPhoneNumber)
	})

	t.Run("empty phone clears it", func(t *testing.T) {
		phone := ""
		profile, err := env.userSvc.UpdateProfile(ctx, userID, &UpdateProfileInput{PhoneNumber: &phone})
		require.NoError(t, err)
		assert.Nil(t, profile.PhoneNumber)
	})

	t.Run("linked member is reported", func(t *testing.T) {
		m := env.member(t, "Wanjiru")
		require.NoError(t, env.db.Model(&models.Member{}).Where("id = ?", m.ID).Update("user_id", userID).Error)

		profile, err := env.userSvc.GetProfile(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, profile.MemberID)
		assert.Equal(t, m.ID, *profile.MemberID)
		assert.Equal(t, "MEMBER", profile.MemberRole)
	})
}

func TestUserService_AdminActions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.auth.Register(ctx, &RegisterInput{Email: "admin@example.com", Password: "correct-horse-battery"}, testNow)
	require.NoError(t, err)
	target, err := env.auth.Register(ctx, &RegisterInput{Email: "target@example.com", Password: "correct-horse-battery"}, testNow)
	require.NoError(t, err)

	adminID, targetID := admin.User.ID, target.User.ID

	t.Run("own flags are protected", func(t *testing.T) {
		off := false
		_, err := env.userSvc.UpdateUserByAdmin(ctx, adminID, adminID, &UpdateUserByAdminInput{IsActive: &off})
		assert.ErrorIs(t, err, ErrCannotChangeOwnAccess)
		assert.ErrorIs(t, env.userSvc.DeleteUser(ctx, adminID, adminID), ErrCannotDeleteSelf)
	})

	t.Run("flags update", func(t *testing.T) {
		on := true
		resp, err := env.userSvc.UpdateUserByAdmin(ctx, targetID, adminID, &UpdateUserByAdminInput{IsStaff: &on})
		require.NoError(t, err)
		assert.True(t, resp.IsStaff)
	})

	t.Run("list paginates", func(t *testing.T) {
		out, err := env.userSvc.ListUsers(ctx, &ListUsersInput{Page: 1, Limit: 1})
		require.NoError(t, err)
		assert.Len(t, out.Users, 1)
		assert.Equal(t, int64(2), out.Total)
		assert.Equal(t, 2, out.TotalPages)
	})

	t.Run("delete detaches linked members", func(t *testing.T) {
		m := env.member(t, "Target")
		require.NoError(t, env.db.Model(&models.Member{}).Where("id = ?", m.ID).Update("user_id", targetID).Error)

		require.NoError(t, env.userSvc.DeleteUser(ctx, targetID, adminID))

		reloaded, err := env.members.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.UserID)

		_, err = env.userSvc.GetUserByID(ctx, targetID)
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.ErrorIs(t, env.userSvc.DeleteUser(ctx, targetID, adminID), ErrUserNotFound)
	})
}
