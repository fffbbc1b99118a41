package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/finance_tracker/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListTransactions returns the user's transactions matching every non-empty
// filter, newest date first. Dates compare as strings.
//
// sqlite's LOWER folds ASCII only, so on sqlite the description search runs
// here after the query, followed by paging.
func (r *GormRepo) ListTransactions(ctx context.Context, userID string, f models.TransactionFilter) ([]models.Transaction, error) {
	q := r.DB.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	searchInGo := f.Search != "" && r.DB.Dialector.Name() == "sqlite"

	if f.Start != "" {
		q = q.Where("date >= ?", f.Start)
	}
	if f.End != "" {
		q = q.Where("date <= ?", f.End)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Search != "" && !searchInGo {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
		q = q.Where(`LOWER(description) LIKE ? ESCAPE '\'`, pattern)
	}

	q = q.Order("date DESC").Order("created_at DESC")
	if f.Limit > 0 && !searchInGo {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	items := make([]models.Transaction, 0)
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	if searchInGo {
		items = pageOf(matchDescription(items, f.Search), f.Offset, f.Limit)
	}
	return items, nil
}

func matchDescription(items []models.Transaction, search string) []models.Transaction {
	needle := strings.ToLower(search)
	out := items[:0]
	for _, t := range items {
		if strings.Contains(strings.ToLower(t.Description), needle) {
			out = append(out, t)
		}
	}
	return out
}

func pageOf(items []models.Transaction, offset, limit int) []models.Transaction {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return items[:0]
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (r *GormRepo) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// UpdateTransaction loads the owned record, lets apply mutate it and saves the
// result in one transaction. An error from apply aborts without writing.
func (r *GormRepo) UpdateTransaction(ctx context.Context, userID, id string, apply func(*models.Transaction) error) (*models.Transaction, error) {
	var t models.Transaction
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&t).Error; err != nil {
			return notFound(err)
		}
		if err := apply(&t); err != nil {
			return err
		}
		// owner and id are fixed whatever apply did
		t.ID = id
		t.UserID = userID
		return tx.Save(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) DeleteTransaction(ctx context.Context, userID, id string) (bool, error) {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Transaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
