package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_tracker/internal/events"
	"github.com/Skotchmaster/finance_tracker/internal/logging"
	"github.com/Skotchmaster/finance_tracker/internal/models"
	"github.com/Skotchmaster/finance_tracker/internal/repo"
	"github.com/Skotchmaster/finance_tracker/internal/search"
)

const (
	DefaultCategory = "Uncategorized"
	DefaultCurrency = "USD"
	maxCurrencyLen  = 8
)

// TransactionInput is a create request or a sparse patch. Nil fields are
// absent.
type TransactionInput struct {
	Type        *string
	Amount      *string
	Currency    *string
	Category    *string
	Description *string
	Date        *string
}

type MonthlySummary struct {
	Month        string `json:"month"`
	IncomeMinor  int64  `json:"incomeMinor"`
	ExpenseMinor int64  `json:"expenseMinor"`
	NetMinor     int64  `json:"netMinor"`
}

type LedgerService struct {
	Store  TransactionStore
	Events events.Publisher
	Index  search.Indexer
	Now    func() time.Time
}

func (s *LedgerService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *LedgerService) List(ctx context.Context, userID string, f models.TransactionFilter) ([]models.Transaction, error) {
	items, err := s.Store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

func (s *LedgerService) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	t, err := s.Store.GetTransaction(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *LedgerService) Create(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	l := logging.FromContext(ctx).With("svc", "ledger.create", "user_id", userID)

	if in.Type == nil || !models.ValidType(*in.Type) {
		return nil, invalid("type must be expense or income")
	}
	if in.Amount == nil {
		return nil, invalid("amount is required")
	}
	amount, err := ParseAmountMinor(*in.Amount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        *in.Type,
		AmountMinor: amount,
		Currency:    DefaultCurrency,
		Category:    DefaultCategory,
		Date:        models.FormatDate(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := applyOptional(t, in); err != nil {
		return nil, err
	}

	if err := s.Store.CreateTransaction(ctx, t); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	l.Info("transaction created", "id", t.ID, "type", t.Type, "amount_minor", t.AmountMinor)
	s.afterWrite(ctx, events.TransactionCreated, t)
	return t, nil
}

// Update merges the provided fields into the owned transaction. Fields are
// validated like on create.
func (s *LedgerService) Update(ctx context.Context, userID, id string, patch TransactionInput) (*models.Transaction, error) {
	l := logging.FromContext(ctx).With("svc", "ledger.update", "user_id", userID, "id", id)

	var (
		amount    int64
		hasAmount bool
	)
	if patch.Type != nil && !models.ValidType(*patch.Type) {
		return nil, invalid("type must be expense or income")
	}
	if patch.Amount != nil {
		v, err := ParseAmountMinor(*patch.Amount)
		if err != nil {
			return nil, err
		}
		amount, hasAmount = v, true
	}
	// dry run so a bad optional field fails before touching the store
	if err := applyOptional(&models.Transaction{}, patch); err != nil {
		return nil, err
	}

	now := s.now()
	t, err := s.Store.UpdateTransaction(ctx, userID, id, func(t *models.Transaction) error {
		if patch.Type != nil {
			t.Type = *patch.Type
		}
		if hasAmount {
			t.AmountMinor = amount
		}
		if err := applyOptional(t, patch); err != nil {
			return err
		}
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	l.Info("transaction updated")
	s.afterWrite(ctx, events.TransactionUpdated, t)
	return t, nil
}

// Delete reports whether an owned transaction was removed.
func (s *LedgerService) Delete(ctx context.Context, userID, id string) (bool, error) {
	ok, err := s.Store.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	if !ok {
		return false, nil
	}

	logging.FromContext(ctx).Info("transaction deleted", "svc", "ledger.delete", "user_id", userID, "id", id)
	s.afterWrite(ctx, events.TransactionDeleted, &models.Transaction{ID: id, UserID: userID})
	return true, nil
}

// MonthlySummary totals the user's transactions dated from the first day of
// the current UTC month.
func (s *LedgerService) MonthlySummary(ctx context.Context, userID string) (*MonthlySummary, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	items, err := s.List(ctx, userID, models.TransactionFilter{Start: models.FormatDate(monthStart)})
	if err != nil {
		return nil, err
	}

	sum := &MonthlySummary{Month: now.Format("2006-01")}
	for _, t := range items {
		switch t.Type {
		case models.TypeIncome:
			sum.IncomeMinor += t.AmountMinor
		case models.TypeExpense:
			sum.ExpenseMinor += t.AmountMinor
		}
	}
	sum.NetMinor = sum.IncomeMinor - sum.ExpenseMinor
	return sum, nil
}

func (s *LedgerService) afterWrite(ctx context.Context, typ string, t *models.Transaction) {
	l := logging.FromContext(ctx)

	if s.Index != nil {
		var err error
		if typ == events.TransactionDeleted {
			err = s.Index.DeleteTransaction(ctx, t.ID)
		} else {
			err = s.Index.IndexTransaction(ctx, t)
		}
		if err != nil {
			l.Warn("search index update failed", "event", typ, "id", t.ID, "error", err)
		}
	}

	if s.Events != nil {
		ev := events.Event{Type: typ, UserID: t.UserID, OccurredAt: s.now(), Payload: t}
		if typ == events.TransactionDeleted {
			ev.Payload = map[string]string{"id": t.ID}
		}
		if err := s.Events.Publish(ctx, ev); err != nil {
			l.Warn("publish event failed", "event", typ, "error", err)
		}
	}
}

// applyOptional sets currency, category, description and date from in.
// Empty currency and category fall back to their defaults.
func applyOptional(t *models.Transaction, in TransactionInput) error {
	if in.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if c == "" {
			c = DefaultCurrency
		}
		if len(c) > maxCurrencyLen {
			return invalid("currency must be at most %d characters", maxCurrencyLen)
		}
		t.Currency = c
	}
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if c == "" {
			c = DefaultCategory
		}
		t.Category = c
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Date != nil && strings.TrimSpace(*in.Date) != "" {
		d, err := NormalizeDate(*in.Date)
		if err != nil {
			return err
		}
		t.Date = d
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeDate parses an ISO-8601 date or instant and renders it in the
// stored UTC form. Values without a zone are taken as UTC.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.FormatDate(t), nil
		}
	}
	return "", invalid("date must be an ISO-8601 date or timestamp")
}
