package services

import (
	"context"
	"testing"
	"time"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/adapters/persistence/testdb"
	"chamanexus/internal/config"
	"chamanexus/internal/core/domain"
	"chamanexus/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	password.Cost = bcrypt.MinCost
}

// March 2024, past the grace period
var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

var treasurer = domain.Actor{
	UserID: "treasurer-user",
	Member: &domain.ActorMember{ID: "treasurer-member", Role: domain.MemberRoleTreasurer, Status: domain.MemberStatusActive},
}

var plainMember = domain.Actor{
	UserID: "plain-user",
	Member: &domain.ActorMember{ID: "plain-member", Role: domain.MemberRoleMember, Status: domain.MemberStatusActive},
}

type testEnv struct {
	db           *gorm.DB
	cfg          *config.Config
	users        repositories.UserRepository
	tokens       repositories.RefreshTokenRepository
	members      repositories.MemberRepository
	txs          repositories.TransactionRepository
	groups       repositories.GroupRepository
	balances     *BalanceService
	transactions *TransactionService
	memberSvc    *MemberService
	groupSvc     *GroupService
	dashboard    *DashboardService
	auth         *AuthService
	userSvc      *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testdb.Open(t)
	log := zap.NewNop()
	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "access-secret",
			RefreshSecret:    "refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Security: config.SecurityConfig{
			MaxLoginAttempts: 5,
			LockMinutes:      30,
			ResetTokenHours:  24,
		},
	}

	env := &testEnv{
		db:      db,
		cfg:     cfg,
		users:   repositories.NewUserRepository(db),
		tokens:  repositories.NewRefreshTokenRepository(db),
		members: repositories.NewMemberRepository(db),
		txs:     repositories.NewTransactionRepository(db),
		groups:  repositories.NewGroupRepository(db),
	}
	env.balances = NewBalanceService(env.txs, env.members, env.groups)
	env.transactions = NewTransactionService(env.txs, env.members, log)
	env.memberSvc = NewMemberService(env.members, env.users, env.txs, env.balances, log)
	env.groupSvc = NewGroupService(env.groups, env.balances, log)
	env.dashboard = NewDashboardService(env.txs, env.members, env.balances)
	env.auth = NewAuthService(env.users, env.tokens, env.members, cfg, log)
	env.userSvc = NewUserService(env.users, env.members, log)
	return env
}

func (e *testEnv) member(t *testing.T, name string) *models.Member {
	t.Helper()
	m := &models.Member{
		ID:          uuid.NewString(),
		Name:        name,
		PhoneNumber: "+254712345678",
		Role:        string(domain.MemberRoleMember),
		Status:      string(domain.MemberStatusActive),
		DateJoined:  testNow.AddDate(-1, 0, 0),
	}
	require.NoError(t, e.members.Create(context.Background(), m))
	return m
}

func (e *testEnv) group(t *testing.T, monthly string) *models.ChamaGroup {
	t.Helper()
	g := &models.ChamaGroup{
		ID:                  uuid.NewString(),
		Name:                "Umoja",
		MonthlyContribution: decimal.RequireFromString(monthly),
	}
	require.NoError(t, e.groups.Create(context.Background(), g))
	return g
}

// verified submits and verifies a transaction dated at date
func (e *testEnv) verified(t *testing.T, memberID *string, txType domain.TransactionType, amount, code string, date time.Time) *models.Transaction {
	t.Helper()
	ctx := context.Background()
	tx, err := e.transactions.Submit(ctx, &SubmitTransactionInput{
		MemberID:        memberID,
		Amount:          decimal.RequireFromString(amount),
		Date:            &date,
		TransactionType: string(txType),
		MpesaCode:       code,
	}, treasurer, date)
	require.NoError(t, err)

	tx, err = e.transactions.Verify(ctx, tx.ID, treasurer, date)
	require.NoError(t, err)
	return tx
}
