package services

import (
	"context"
	"errors"

	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ActorResolver builds the acting identity for a request from the user
// account and its linked member record.
type ActorResolver struct {
	userRepo   repositories.UserRepository
	memberRepo repositories.MemberRepository
}

// NewActorResolver creates a new actor resolver
func NewActorResolver(userRepo repositories.UserRepository, memberRepo repositories.MemberRepository) *ActorResolver {
	return &ActorResolver{
		userRepo:   userRepo,
		memberRepo: memberRepo,
	}
}

// Resolve loads the actor for userID
func (r *ActorResolver) Resolve(ctx context.Context, userID string) (domain.Actor, error) {
	user, err := r.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Actor{}, ErrUserNotFound
		}
		return domain.Actor{}, err
	}
	if !user.IsActive {
		return domain.Actor{}, ErrUserInactive
	}

	actor := domain.Actor{
		UserID:      user.ID,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	}

	member, err := r.memberRepo.GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		actor.Member = &domain.ActorMember{
			ID:     member.ID,
			Role:   domain.MemberRole(member.Role),
			Status: domain.MemberStatus(member.Status),
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return domain.Actor{}, err
	}

	return actor, nil
}

// requireManager fails with ErrNotAuthorized unless the actor may manage transactions
func requireManager(actor domain.Actor) error {
	if !domain.CanManageTransactions(actor) {
		return domain.ErrNotAuthorized
	}
	return nil
}

// money renders an amount with exactly two decimals
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
