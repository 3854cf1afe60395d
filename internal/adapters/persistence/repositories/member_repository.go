package repositories

import (
	"context"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/core/domain"

	"gorm.io/gorm"
)

// memberRepository implements MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Create creates a new member
func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// GetByID gets a member by ID
func (r *memberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByUserID gets the member linked to a user account
func (r *memberRepository) GetByUserID(ctx context.Context, userID string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_joined ASC").
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Update updates a member
func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// List lists members with filters and pagination
func (r *memberRepository) List(ctx context.Context, filter MemberFilter, offset, limit int) ([]*models.Member, int64, error) {
	var members []*models.Member
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Member{}).
		Scopes(memberFilterScope(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Scopes(memberFilterScope(filter)).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&members).Error; err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func memberFilterScope(filter MemberFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.Role != "" {
			db = db.Where("role = ?", filter.Role)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			db = db.Where("name LIKE ? OR phone_number LIKE ?", like, like)
		}
		return db
	}
}

// ListByStatus lists every member in a status, ordered by name
func (r *memberRepository) ListByStatus(ctx context.Context, status domain.MemberStatus) ([]*models.Member, error) {
	var members []*models.Member
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("name ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// CountByStatus counts members in a status
func (r *memberRepository) CountByStatus(ctx context.Context, status domain.MemberStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	return count, err
}

// ExistsByUserID checks whether a user is linked to a member other than excludeMemberID
func (r *memberRepository) ExistsByUserID(ctx context.Context, userID, excludeMemberID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Member{}).Where("user_id = ?", userID)
	if excludeMemberID != "" {
		query = query.Where("id <> ?", excludeMemberID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}
