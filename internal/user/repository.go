package user

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gymmatch/manager-api/internal/rbac"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	FindByID(ctx context.Context, db *gorm.DB, id uint) (*User, error)
	List(ctx context.Context, db *gorm.DB) ([]User, error)
	Create(ctx context.Context, db *gorm.DB, u *User) error
	UpdateRole(ctx context.Context, db *gorm.DB, id uint, role rbac.Role) error
	TouchLastLogin(ctx context.Context, db *gorm.DB, id uint, at time.Time) error
	Update(ctx context.Context, db *gorm.DB, id uint, changes map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (r *repositoryImpl) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error) {
	var u User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id uint) (*User, error) {
	var u User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *repositoryImpl) List(ctx context.Context, db *gorm.DB) ([]User, error) {
	var users []User
	err := db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

func (r *repositoryImpl) Create(ctx context.Context, db *gorm.DB, u *User) error {
	return db.WithContext(ctx).Create(u).Error
}

func (r *repositoryImpl) UpdateRole(ctx context.Context, db *gorm.DB, id uint, role rbac.Role) error {
	res := db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repositoryImpl) TouchLastLogin(ctx context.Context, db *gorm.DB, id uint, at time.Time) error {
	return db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (r *repositoryImpl) Update(ctx context.Context, db *gorm.DB, id uint, changes map[string]any) error {
	res := db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete soft-deletes the account; lookups stop returning it.
func (r *repositoryImpl) Delete(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
