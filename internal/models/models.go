package models

import "time"

const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// DateLayout is fixed width so that stored dates sort lexicographically in
// chronological order.
const DateLayout = "2006-01-02T15:04:05.000Z"

type User struct {
	ID           string    `gorm:"primaryKey;size:36"             json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:255"  json:"username"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false"  json:"createdAt"`
}

type RefreshToken struct {
	TokenHash string    `gorm:"primaryKey;size:64"          json:"-"`
	UserID    string    `gorm:"index;not null;size:36"      json:"userId"`
	ExpiresAt time.Time `gorm:"index;not null"              json:"expiresAt"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"        json:"createdAt"`
}

type Transaction struct {
	ID          string    `gorm:"primaryKey;size:36"                    json:"id"`
	UserID      string    `gorm:"index:idx_txn_user_date;not null;size:36" json:"userId"`
	Type        string    `gorm:"not null;size:16"                      json:"type"`
	AmountMinor int64     `gorm:"not null"                              json:"amountMinor"`
	Currency    string    `gorm:"not null;size:8"                       json:"currency"`
	Category    string    `gorm:"not null"                              json:"category"`
	Description string    `gorm:"not null"                              json:"description"`
	Date        string    `gorm:"index:idx_txn_user_date;not null;size:24" json:"date"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"                  json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"                  json:"updatedAt"`
}

type Category struct {
	ID       string `gorm:"primaryKey;size:36"   json:"id"`
	Name     string `gorm:"not null"             json:"name"`
	Type     string `gorm:"not null;size:16"     json:"type"`
	Color    string `gorm:"size:16"              json:"color"`
	Position int64  `gorm:"uniqueIndex;not null" json:"-"`
}

// TransactionFilter holds the optional, conjunctive filters of a ledger query.
// Empty fields do not filter. Limit 0 returns every match.
type TransactionFilter struct {
	Start    string
	End      string
	Category string
	Type     string
	Search   string

	Limit  int
	Offset int
}

func ValidType(t string) bool {
	return t == TypeExpense || t == TypeIncome
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
