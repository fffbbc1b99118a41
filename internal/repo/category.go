package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/finance_tracker/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	items := make([]models.Category, 0)
	if err := r.DB.WithContext(ctx).Order("position ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

const maxAppendAttempts = 5

// AddCategory appends c after the last category. Positions are unique, so a
// concurrent append that took the same slot makes this one retry.
func (r *GormRepo) AddCategory(ctx context.Context, c *models.Category) error {
	var err error
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return appendCategory(tx, c)
		})
		if !isUniqueViolation(err) {
			return err
		}
	}
	return err
}

func appendCategory(tx *gorm.DB, c *models.Category) error {
	var last struct{ Max *int64 }
	if err := tx.Model(&models.Category{}).Select("MAX(position) AS max").Scan(&last).Error; err != nil {
		return err
	}
	c.Position = 1
	if last.Max != nil {
		c.Position = *last.Max + 1
	}
	return tx.Create(c).Error
}

func (r *GormRepo) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id string) (bool, error) {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SeedCategories inserts defaults in order when the registry is empty and
// reports whether it did.
func (r *GormRepo) SeedCategories(ctx context.Context, defaults []models.Category) (bool, error) {
	seeded := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for i := range defaults {
			c := defaults[i]
			if err := appendCategory(tx, &c); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}
