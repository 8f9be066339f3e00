package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ironloft/gymapp/internal/models"
)

// RegisterAttendance creates an attendance record for a user inside a
// transaction. The class row is locked for the duration so the capacity
// check and the insert see the same state; sqlite has no row locks, its
// single-writer model covers this there.
func (r *GormRepo) RegisterAttendance(ctx context.Context, userID, classID uint) (*models.Attendance, error) {
	var att models.Attendance
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
		}
		var class models.Class
		if err := q.First(&class, classID).Error; err != nil {
			return err
		}

		var existing models.Attendance
		err := tx.Where("user_id = ? AND class_id = ?", userID, classID).First(&existing).Error
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&models.Attendance{}).
			Where("class_id = ?", classID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(class.Capacity) {
			return ErrClassFull
		}

		att = models.Attendance{
			UserID:  userID,
			ClassID: classID,
			Date:    time.Now(),
		}
		if err := tx.Create(&att).Error; err != nil {
			// the unique (user_id, class_id) index is the backstop when two
			// registrations race past the existence check
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *GormRepo) CheckIn(ctx context.Context, userID, classID uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Attendance{}).
		Where("user_id = ? AND class_id = ?", userID, classID).
		Update("checked_in", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) UsersForClass(ctx context.Context, classID uint) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN attendances ON attendances.user_id = users.id").
		Where("attendances.class_id = ?", classID).
		Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) ClassesForUser(ctx context.Context, userID uint) ([]models.Class, error) {
	var classes []models.Class
	err := r.DB.WithContext(ctx).Model(&models.Class{}).
		Joins("JOIN attendances ON attendances.class_id = classes.id").
		Where("attendances.user_id = ?", userID).
		Order("classes.id ASC").
		Find(&classes).Error
	if err != nil {
		return nil, err
	}
	return classes, nil
}
