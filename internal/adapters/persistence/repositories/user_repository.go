package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"nyumbakumi/internal/adapters/persistence/models"
)

// userRepository implements UserRepository interface
type userRepository struct {
	base
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, timeout time.Duration) UserRepository {
	return &userRepository{base: newBase(db, timeout)}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(user).Error)
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ExistsByEmail checks if email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, translate(err)
}

// Update updates a user
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Save(user).Error)
}

// ListByRole lists users with the given role
func (r *userRepository) ListByRole(ctx context.Context, role string, opts ListOptions) ([]*models.User, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := func() *gorm.DB {
		return db.Model(&models.User{}).Where("role = ?", role)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q, err := page(query(), UserSortFields, opts)
	if err != nil {
		return nil, 0, err
	}
	var users []*models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, translate(err)
	}
	return users, total, nil
}
