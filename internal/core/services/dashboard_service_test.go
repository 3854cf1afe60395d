package services

import (
	"context"
	"testing"

	"chamanexus/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Treasurer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.group(t, "1000.00")

	paid := env.member(t, "Paid")
	short := env.member(t, "Short")
	none := env.member(t, "Nothing")
	retired := env.member(t, "Retired")
	retired.Status = string(domain.MemberStatusInactive)
	require.NoError(t, env.members.Update(ctx, retired))

	env.verified(t, &paid.ID, domain.TxTypeContribution, "1000", "DASH000001", testNow)
	env.verified(t, &short.ID, domain.TxTypeContribution, "400", "DASH000002", testNow.AddDate(0, 0, -10))
	env.verified(t, &short.ID, domain.TxTypeFine, "50", "DASH000003", testNow)
	_, err := env.transactions.Submit(ctx, submitInput(&none.ID, domain.TxTypeContribution, "10", "DASH000004"), treasurer, testNow)
	require.NoError(t, err)

	data, err := env.dashboard.GetTreasurerDashboard(ctx, treasurer, testNow)
	require.NoError(t, err)

	assert.Equal(t, "1450.00", data.GroupBalance)
	assert.Equal(t, "50.00", data.TotalFines)
	assert.Equal(t, "1000.00", data.CollectedToday)
	assert.Equal(t, int64(3), data.ActiveMembers)
	assert.Equal(t, int64(1), data.PendingCount)
	assert.Len(t, data.RecentTransactions, 4)

	require.Len(t, data.Defaulters, 2)
	byName := map[string]Defaulter{}
	for _, d := range data.Defaulters {
		byName[d.Name] = d
	}

	assert.Equal(t, domain.PaymentShort, byName["Short"].Status)
	assert.Equal(t, "600.00", byName["Short"].Outstanding)
	assert.Equal(t, 0, byName["Short"].DaysOverdue)
	require.NotNil(t, byName["Short"].LastContributionDate)

	assert.Equal(t, domain.PaymentOverdue, byName["Nothing"].Status)
	assert.Equal(t, "1000.00", byName["Nothing"].Outstanding)
	assert.Equal(t, testNow.Day()-domain.GracePeriodDays, byName["Nothing"].DaysOverdue)
	assert.Nil(t, byName["Nothing"].LastContributionDate)

	_, err = env.dashboard.GetTreasurerDashboard(ctx, plainMember, testNow)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestDashboardService_Summary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.group(t, "500.00")
	m := env.member(t, "Akinyi")

	env.verified(t, &m.ID, domain.TxTypeContribution, "300", "SUMM000001", testNow.AddDate(0, -1, 0))
	env.verified(t, &m.ID, domain.TxTypeContribution, "500", "SUMM000002", testNow)

	actor := domain.Actor{
		UserID: "u1",
		Member: &domain.ActorMember{ID: m.ID, Role: domain.MemberRoleMember, Status: domain.MemberStatusActive},
	}

	out, err := env.dashboard.Summary(ctx, actor, testNow)
	require.NoError(t, err)
	data, ok := out.(*MemberDashboardData)
	require.True(t, ok)

	assert.Equal(t, "800.00", data.PersonalBalance)
	assert.Equal(t, "800.00", data.GroupBalance)
	assert.Equal(t, "500.00", data.ContributionsMonth)
	assert.Equal(t, "800.00", data.ContributionsAllTime)
	assert.Equal(t, domain.PaymentPaid, data.PaymentStatus.Status)
	assert.Len(t, data.RecentTransactions, 2)
	require.NotNil(t, data.LastContributionDate)
	assert.True(t, data.LastContributionDate.Equal(testNow))

	_, err = env.dashboard.Summary(ctx, domain.Actor{UserID: "unlinked"}, testNow)
	assert.ErrorIs(t, err, domain.ErrMemberNotLinked)

	out, err = env.dashboard.Summary(ctx, domain.Actor{UserID: "root", IsSuperuser: true}, testNow)
	require.NoError(t, err)
	assert.IsType(t, &TreasurerDashboardData{}, out)
}
