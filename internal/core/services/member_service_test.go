package services

import (
	"context"
	"testing"

	"chamanexus/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m, err := env.memberSvc.Create(ctx, &CreateMemberInput{
		Name:        "  <b>Achieng</b> Otieno ",
		PhoneNumber: "0712 345-678",
	}, treasurer, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Achieng Otieno", m.Name)
	assert.Equal(t, "+254712345678", m.PhoneNumber)
	assert.Equal(t, string(domain.MemberRoleMember), m.Role)
	assert.Equal(t, string(domain.MemberStatusActive), m.Status)
	assert.True(t, m.DateJoined.Equal(testNow))

	_, err = env.memberSvc.Create(ctx, &CreateMemberInput{Name: "X", PhoneNumber: "254712345678", Role: "boss"}, treasurer, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = env.memberSvc.Create(ctx, &CreateMemberInput{Name: "X", PhoneNumber: "+1555"}, treasurer, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidPhoneNumber)

	_, err = env.memberSvc.Create(ctx, &CreateMemberInput{Name: "X", PhoneNumber: "0712345678"}, plainMember, testNow)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestMemberService_LinkUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := register(t, env, "link@example.com").User

	first := env.member(t, "First")
	second := env.member(t, "Second")

	linked, err := env.memberSvc.LinkUser(ctx, first.ID, &LinkUserInput{UserID: &user.ID}, treasurer)
	require.NoError(t, err)
	require.NotNil(t, linked.UserID)

	_, err = env.memberSvc.LinkUser(ctx, second.ID, &LinkUserInput{UserID: &user.ID}, treasurer)
	assert.ErrorIs(t, err, domain.ErrUserAlreadyLinked)

	// relinking the same member is a no-op
	_, err = env.memberSvc.LinkUser(ctx, first.ID, &LinkUserInput{UserID: &user.ID}, treasurer)
	require.NoError(t, err)

	unlinked, err := env.memberSvc.LinkUser(ctx, first.ID, &LinkUserInput{}, treasurer)
	require.NoError(t, err)
	assert.Nil(t, unlinked.UserID)
}

func TestMemberService_DeleteUserDetachesMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := register(t, env, "gone@example.com").User
	m := env.member(t, "Linked")

	_, err := env.memberSvc.LinkUser(ctx, m.ID, &LinkUserInput{UserID: &user.ID}, treasurer)
	require.NoError(t, err)

	assert.ErrorIs(t, env.userSvc.DeleteUser(ctx, user.ID, user.ID), ErrCannotDeleteSelf)
	require.NoError(t, env.userSvc.DeleteUser(ctx, user.ID, "admin"))
	assert.ErrorIs(t, env.userSvc.DeleteUser(ctx, user.ID, "admin"), ErrUserNotFound)

	got, err := env.memberSvc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
}

func TestMemberService_Statement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.member(t, "Statement")

	env.verified(t, &m.ID, domain.TxTypeContribution, "700", "STMT000001", testNow.AddDate(0, -1, 0))
	env.verified(t, &m.ID, domain.TxTypeFine, "25.50", "STMT000002", testNow)
	_, err := env.transactions.Submit(ctx, submitInput(&m.ID, domain.TxTypeContribution, "100", "STMT000003"), treasurer, testNow)
	require.NoError(t, err)

	out, err := env.memberSvc.Statement(ctx, m.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "674.50", out.Balance)
	require.Len(t, out.Transactions, 2)
	assert.Equal(t, "STMT000002", out.Transactions[0].MpesaCode)

	_, err = env.memberSvc.Statement(ctx, "missing", 1, 20)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}
