package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	errx "github.com/Chative-support-router/server/internal/core/error"
	"github.com/Chative-support-router/server/internal/store"
)

type retryInput struct {
	CustomerID      int64 `json:"customer_id" validate:"required,gt=0"`
	OrderID         int64 `json:"order_id" validate:"required,gt=0"`
	CooldownMinutes *int  `json:"cooldown_minutes" validate:"omitempty,min=0"`
}

type retryStepsInput struct {
	CustomerID      int64  `json:"customer_id" validate:"required,gt=0"`
	OrderID         int64  `json:"order_id" validate:"required,gt=0"`
	PreferredMethod string `json:"preferred_method"`
}

type paymentView struct {
	OrderID       int64   `json:"order_id"`
	Method        string  `json:"method"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	LastAttempt   string  `json:"last_attempt"`
	FailureCode   string  `json:"failure_code,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
	OrderDate     string  `json:"order_date,omitempty"`
}

func viewPayment(p store.Payment) paymentView {
	return paymentView{
		OrderID:       p.OrderID,
		Method:        p.Method,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        p.Status,
		LastAttempt:   isoTime(p.LastAttempt),
		FailureCode:   p.FailureCode,
		FailureReason: p.FailureReason,
	}
}

func (c *catalog) getMyPayments(ctx context.Context, in *customerInput) (any, error) {
	rows, err := c.Store.CustomerPayments(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	out := make([]paymentView, 0, len(rows))
	for _, r := range rows {
		v := viewPayment(r.Payment)
		v.OrderDate = isoTime(r.OrderDate)
		out = append(out, v)
	}
	return payload{"customer_id": in.CustomerID, "payments": out, "count": len(out)}, nil
}

// lastPayment returns the latest payment of an owned order. The payload is
// non-nil when the caller should answer with it directly.
func (c *catalog) lastPayment(ctx context.Context, customerID, orderID int64) (*store.Payment, payload, error) {
	_, ok, err := c.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, notOwned(orderID), nil
	}
	p, err := c.Store.LatestPayment(ctx, orderID)
	if errx.IsKind(err, errx.KindNotFound) {
		return nil, payload{"found": false, "order_id": orderID, "message": "По заказу нет платежей"}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return p, nil, nil
}

func (c *catalog) getPaymentStatus(ctx context.Context, in *orderInput) (any, error) {
	p, early, err := c.lastPayment(ctx, in.CustomerID, in.OrderID)
	if err != nil || early != nil {
		return early, err
	}
	return payload{"found": true, "payment": viewPayment(*p)}, nil
}

func (c *catalog) canRetryPayment(ctx context.Context, in *retryInput) (any, error) {
	p, early, err := c.lastPayment(ctx, in.CustomerID, in.OrderID)
	if err != nil {
		return nil, err
	}
	if early != nil {
		early["allowed"] = false
		return early, nil
	}

	if !strings.EqualFold(p.Status, "failed") {
		return payload{
			"allowed":  false,
			"order_id": in.OrderID,
			"reason":   fmt.Sprintf("Статус платежа %q, повтор нужен только для Failed", p.Status),
		}, nil
	}

	cooldown := DefaultRetryCooldownMinutes
	if in.CooldownMinutes != nil {
		cooldown = *in.CooldownMinutes
	}
	next := p.LastAttempt.Add(time.Duration(cooldown) * time.Minute)
	allowed := !c.Now().Before(next)
	reason := "Время ожидания прошло"
	if !allowed {
		reason = "Время ожидания еще не прошло"
	}
	return payload{
		"allowed":          allowed,
		"order_id":         in.OrderID,
		"reason":           reason,
		"next_retry_after": isoTime(next),
	}, nil
}

func (c *catalog) paymentRetrySteps(ctx context.Context, in *retryStepsInput) (any, error) {
	p, early, err := c.lastPayment(ctx, in.CustomerID, in.OrderID)
	if err != nil {
		return nil, err
	}
	if early != nil {
		early["ok"] = false
		return early, nil
	}
	if !strings.EqualFold(p.Status, "failed") {
		return payload{"ok": false, "order_id": in.OrderID, "message": "Платеж не в статусе Failed"}, nil
	}

	method := in.PreferredMethod
	if method == "" {
		method = "рекомендуется: CreditCard"
	}
	return payload{
		"ok":       true,
		"order_id": in.OrderID,
		"steps": []string{
			"Откройте страницу заказа.",
			"Нажмите «Повторить платёж».",
			fmt.Sprintf("Выберите метод оплаты (%s).", method),
			"Подтвердите оплату.",
		},
		"last_attempt":   isoTime(p.LastAttempt),
		"failure_code":   p.FailureCode,
		"failure_reason": p.FailureReason,
	}, nil
}
