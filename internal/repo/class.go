package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/ironloft/gymapp/internal/models"
)

func (r *GormRepo) Classes(ctx context.Context, offset, limit int) (int64, []models.Class, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Class{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Class
	if err := r.DB.WithContext(ctx).Model(&models.Class{}).
		Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ClassByID(ctx context.Context, id uint) (*models.Class, error) {
	var class models.Class
	if err := r.DB.WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *GormRepo) CreateClass(ctx context.Context, class *models.Class) error {
	return r.DB.WithContext(ctx).Create(class).Error
}

func (r *GormRepo) UpdateClass(ctx context.Context, id uint, class *models.Class) (*models.Class, error) {
	var stored models.Class
	if err := r.DB.WithContext(ctx).First(&stored, id).Error; err != nil {
		return nil, err
	}

	stored.Date = class.Date
	stored.Time = class.Time
	stored.TrainerName = class.TrainerName
	stored.Capacity = class.Capacity
	stored.Type = class.Type
	stored.Location = class.Location

	if err := r.DB.WithContext(ctx).Save(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *GormRepo) DeleteClass(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Class{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
