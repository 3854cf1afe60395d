package services

import (
	"context"
	"testing"

	"chamanexus/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupService_CreateAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("members cannot create groups", func(t *testing.T) {
		_, err := env.groupSvc.Create(ctx, &CreateGroupInput{
			Name:                "Umoja",
			MonthlyContribution: decimal.RequireFromString("1000"),
		}, plainMember)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("contribution must be positive", func(t *testing.T) {
		for _, amount := range []string{"0", "-10", "10.005"} {
			_, err := env.groupSvc.Create(ctx, &CreateGroupInput{
				Name:                "Umoja",
				MonthlyContribution: decimal.RequireFromString(amount),
			}, treasurer)
			assert.ErrorIs(t, err, domain.ErrInvalidAmount, amount)
		}
	})

	group, err := env.groupSvc.Create(ctx, &CreateGroupInput{
		Name:                "  Umoja  ",
		Description:         "Monthly savings",
		MonthlyContribution: decimal.RequireFromString("1000"),
	}, treasurer)
	require.NoError(t, err)
	assert.Equal(t, "Umoja", group.Name)

	blank := "   "
	_, err = env.groupSvc.Update(ctx, group.ID, &UpdateGroupInput{Name: &blank}, treasurer)
	ve, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "name", ve.Field)

	raised := decimal.RequireFromString("1500")
	updated, err := env.groupSvc.Update(ctx, group.ID, &UpdateGroupInput{MonthlyContribution: &raised}, treasurer)
	require.NoError(t, err)
	assert.Equal(t, "1500.00", updated.MonthlyContribution.StringFixed(2))

	_, err = env.groupSvc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	list, err := env.groupSvc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Groups, 1)
	assert.Equal(t, int64(1), list.Meta.Total)
}

func TestGroupService_Balance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	group := env.group(t, "1000")
	m := env.member(t, "Akinyi")

	env.verified(t, &m.ID, domain.TxTypeContribution, "1000", "AAAAAAAAA1", testNow)
	env.verified(t, &m.ID, domain.TxTypeFine, "100", "AAAAAAAAA2", testNow)
	env.verified(t, &m.ID, domain.TxTypePayout, "200", "AAAAAAAAA3", testNow)

	out, err := env.groupSvc.Balance(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "900.00", out.TotalBalance)
	assert.Equal(t, "100.00", out.TotalFines)
	assert.Equal(t, "200.00", out.TotalPayouts)
	assert.Equal(t, "0.00", out.TotalExpenses)
	assert.Equal(t, "1000.00", out.MonthlyContribution)
}
