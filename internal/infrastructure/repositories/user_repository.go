package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/you/companionsvc/domain"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID                uint   `gorm:"primaryKey"`
	UserID            string `gorm:"uniqueIndex;size:64;not null"`
	FullName          string `gorm:"size:255"`
	Email             string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash      string `gorm:"column:password;not null"`
	IsVerified        bool   `gorm:"index"`
	ResetOTP          string `gorm:"size:16"`
	ResetOTPCreatedAt *time.Time
	ResetOTPAttempts  int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		if isDuplicateKey(err) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByEmail implements domain.UserRepository
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepositoryImpl) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where(query, arg).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// UpdatePassword implements domain.UserRepository. Reset fields are cleared
// in the same statement.
func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.updateByUserID(ctx, userID, map[string]interface{}{
		"password":             passwordHash,
		"reset_otp":            "",
		"reset_otp_created_at": nil,
		"reset_otp_attempts":   0,
	})
}

// SetVerified implements domain.UserRepository
func (r *UserRepositoryImpl) SetVerified(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Model(&DBUser{}).Where("email = ?", email).Update("is_verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetResetOTP implements domain.UserRepository
func (r *UserRepositoryImpl) SetResetOTP(ctx context.Context, userID, otp string, createdAt time.Time) error {
	return r.updateByUserID(ctx, userID, map[string]interface{}{
		"reset_otp":            otp,
		"reset_otp_created_at": createdAt,
		"reset_otp_attempts":   0,
	})
}

// IncrementResetAttempts implements domain.UserRepository
func (r *UserRepositoryImpl) IncrementResetAttempts(ctx context.Context, userID string) (int, error) {
	var attempts []int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&DBUser{}).Where("user_id = ?", userID).
			Update("reset_otp_attempts", gorm.Expr("reset_otp_attempts + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return tx.Model(&DBUser{}).Where("user_id = ?", userID).
			Pluck("reset_otp_attempts", &attempts).Error
	})
	if err != nil {
		return 0, err
	}
	if len(attempts) == 0 {
		return 0, domain.ErrUserNotFound
	}
	return attempts[0], nil
}

// ClearResetOTP implements domain.UserRepository
func (r *UserRepositoryImpl) ClearResetOTP(ctx context.Context, userID string) error {
	return r.updateByUserID(ctx, userID, map[string]interface{}{
		"reset_otp":            "",
		"reset_otp_created_at": nil,
		"reset_otp_attempts":   0,
	})
}

func (r *UserRepositoryImpl) updateByUserID(ctx context.Context, userID string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&DBUser{}).Where("user_id = ?", userID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// domainToDB converts domain user to database user
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:                user.ID,
		UserID:            user.UserID,
		FullName:          user.FullName,
		Email:             user.Email,
		PasswordHash:      user.PasswordHash,
		IsVerified:        user.IsVerified,
		ResetOTP:          user.ResetOTP,
		ResetOTPCreatedAt: user.ResetOTPCreatedAt,
		ResetOTPAttempts:  user.ResetOTPAttempts,
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:                dbUser.ID,
		UserID:            dbUser.UserID,
		FullName:          dbUser.FullName,
		Email:             dbUser.Email,
		PasswordHash:      dbUser.PasswordHash,
		IsVerified:        dbUser.IsVerified,
		ResetOTP:          dbUser.ResetOTP,
		ResetOTPCreatedAt: dbUser.ResetOTPCreatedAt,
		ResetOTPAttempts:  dbUser.ResetOTPAttempts,
		CreatedAt:         dbUser.CreatedAt,
		UpdatedAt:         dbUser.UpdatedAt,
	}
}
