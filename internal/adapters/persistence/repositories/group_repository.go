package repositories

import (
	"context"

	"chamanexus/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// groupRepository implements GroupRepository interface
type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new chama group repository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// Create creates a new group
func (r *groupRepository) Create(ctx context.Context, group *models.ChamaGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// GetByID gets a group by ID
func (r *groupRepository) GetByID(ctx context.Context, id string) (*models.ChamaGroup, error) {
	var group models.ChamaGroup
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetFirst gets the earliest created group
func (r *groupRepository) GetFirst(ctx context.Context) (*models.ChamaGroup, error) {
	var group models.ChamaGroup
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Update updates a group
func (r *groupRepository) Update(ctx context.Context, group *models.ChamaGroup) error {
	return r.db.WithContext(ctx).Save(group).Error
}

// List lists groups with pagination
func (r *groupRepository) List(ctx context.Context, offset, limit int) ([]*models.ChamaGroup, int64, error) {
	var groups []*models.ChamaGroup
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.ChamaGroup{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Order("created_at ASC").Offset(offset).Limit(limit).Find(&groups).Error; err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}
