package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finance_tracker/internal/logging"
	"github.com/Skotchmaster/finance_tracker/internal/models"
	"github.com/Skotchmaster/finance_tracker/internal/service"
)

type LedgerHTTP struct {
	Svc *service.LedgerService
}

func (h *LedgerHTTP) List(c echo.Context) error {
	f := models.TransactionFilter{
		Start:    c.QueryParam("start"),
		End:      c.QueryParam("end"),
		Category: c.QueryParam("category"),
		Type:     c.QueryParam("type"),
		Search:   c.QueryParam("search"),
	}
	if c.QueryParam("page") != "" || c.QueryParam("size") != "" {
		page, _ := strconv.Atoi(c.QueryParam("page"))
		size, _ := strconv.Atoi(c.QueryParam("size"))
		f.Offset, f.Limit = pageBounds(page, size)
	}

	items, err := h.Svc.List(c.Request().Context(), userID(c), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *LedgerHTTP) Get(c echo.Context) error {
	t, err := h.Svc.Get(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *LedgerHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transaction_create")

	var req transactionRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	t, err := h.Svc.Create(ctx, userID(c), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *LedgerHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transaction_update")

	var req transactionRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	t, err := h.Svc.Update(ctx, userID(c), c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *LedgerHTTP) Delete(c echo.Context) error {
	ok, err := h.Svc.Delete(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		return service.ErrNotFound
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LedgerHTTP) MonthlySummary(c echo.Context) error {
	sum, err := h.Svc.MonthlySummary(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}
