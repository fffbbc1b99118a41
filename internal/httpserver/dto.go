package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/Skotchmaster/finance_tracker/internal/models"
	"github.com/Skotchmaster/finance_tracker/internal/service"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

func newSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, User: s.User}
}

type userResponse struct {
	User *models.User `json:"user"`
}

// Amount accepts a JSON number or a numeric string and keeps the literal
// text, so rounding works on the digits the client sent.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errors.New("amount: empty value")
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*a = Amount(n.String())
		return nil
	default:
		return errors.New("amount must be a number or numeric string")
	}
}

type transactionRequest struct {
	Type        *string `json:"type"        validate:"omitempty,oneof=expense income"`
	Amount      *Amount `json:"amount"`
	Currency    *string `json:"currency"    validate:"omitempty,max=8"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

func (r *transactionRequest) input() service.TransactionInput {
	in := service.TransactionInput{
		Type:        r.Type,
		Currency:    r.Currency,
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date,
	}
	if r.Amount != nil {
		s := string(*r.Amount)
		in.Amount = &s
	}
	return in
}

type categoryRequest struct {
	Name  string `json:"name"  validate:"required"`
	Type  string `json:"type"  validate:"required,oneof=expense income"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
