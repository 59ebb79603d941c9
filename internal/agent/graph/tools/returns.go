package tools

import (
	"context"

	errx "github.com/Chative-support-router/server/internal/core/error"
	"github.com/Chative-support-router/server/internal/store"
)

type eligibilityInput struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
	OrderID    int64 `json:"order_id" validate:"required,gt=0"`
	PolicyDays *int  `json:"policy_days" validate:"omitempty,min=1"`
}

type labelInput struct {
	CustomerID int64  `json:"customer_id" validate:"required,gt=0"`
	OrderID    int64  `json:"order_id" validate:"required,gt=0"`
	Email      string `json:"email" validate:"required,email"`
}

type returnView struct {
	OrderID      int64    `json:"order_id"`
	Status       string   `json:"status"`
	RequestDate  string   `json:"request_date"`
	Approved     bool     `json:"approved"`
	RefundAmount *float64 `json:"refund_amount,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	ProductTitle string   `json:"product_title,omitempty"`
}

func viewReturn(r store.ReturnView) returnView {
	return returnView{
		OrderID:      r.OrderID,
		Status:       r.Status,
		RequestDate:  isoDate(&r.RequestDate),
		Approved:     r.Approved,
		RefundAmount: r.RefundAmount,
		Currency:     r.Currency,
		Notes:        r.Notes,
		ProductTitle: r.ProductTitle,
	}
}

func (c *catalog) getMyReturns(ctx context.Context, in *customerInput) (any, error) {
	rows, err := c.Store.CustomerReturns(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	out := make([]returnView, 0, len(rows))
	for _, r := range rows {
		out = append(out, viewReturn(r))
	}
	return payload{"customer_id": in.CustomerID, "returns": out, "count": len(out)}, nil
}

func (c *catalog) getReturnStatus(ctx context.Context, in *orderInput) (any, error) {
	_, ok, err := c.ownedOrder(ctx, in.CustomerID, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return notOwned(in.OrderID), nil
	}
	r, err := c.Store.LatestReturn(ctx, in.OrderID)
	if errx.IsKind(err, errx.KindNotFound) {
		return payload{"found": false, "order_id": in.OrderID, "message": "По заказу нет заявок на возврат"}, nil
	}
	if err != nil {
		return nil, err
	}
	return payload{"found": true, "return": viewReturn(*r)}, nil
}

func (c *catalog) checkReturnEligibility(ctx context.Context, in *eligibilityInput) (any, error) {
	return c.eligibility(ctx, in.CustomerID, in.OrderID, in.PolicyDays)
}

func (c *catalog) eligibility(ctx context.Context, customerID, orderID int64, policy *int) (payload, error) {
	days := DefaultReturnPolicyDays
	if policy != nil {
		days = *policy
	}

	_, ok, err := c.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		out := notOwned(orderID)
		out["eligible"] = false
		return out, nil
	}

	delivered, err := c.Store.DeliveredAt(ctx, orderID)
	if errx.IsKind(err, errx.KindNotFound) {
		return payload{
			"eligible":     false,
			"order_id":     orderID,
			"policy_days":  days,
			"reason":       "Заказ еще не доставлен",
			"delivered_at": nil,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	since := int(c.Now().UTC().Sub(delivered.UTC()).Hours() / 24)
	return payload{
		"eligible":            since <= days,
		"order_id":            orderID,
		"policy_days":         days,
		"delivered_at":        isoTime(delivered),
		"days_since_delivery": since,
	}, nil
}

// requestReturnLabel issues a label reference for an eligible order. It
// writes nothing; label delivery is outside this service.
func (c *catalog) requestReturnLabel(ctx context.Context, in *labelInput) (any, error) {
	elig, err := c.eligibility(ctx, in.CustomerID, in.OrderID, nil)
	if err != nil {
		return nil, err
	}
	if ok, _ := elig["eligible"].(bool); !ok {
		elig["created"] = false
		return elig, nil
	}
	return payload{
		"created":   true,
		"order_id":  in.OrderID,
		"email":     in.Email,
		"label_ref": c.NewLabelRef(),
	}, nil
}
