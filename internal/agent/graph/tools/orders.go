package tools

import (
	"context"

	errx "github.com/Chative-support-router/server/internal/core/error"
	"github.com/Chative-support-router/server/internal/store"
)

type customerInput struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
}

type orderInput struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
	OrderID    int64 `json:"order_id" validate:"required,gt=0"`
}

type trackingInput struct {
	CustomerID int64  `json:"customer_id" validate:"required,gt=0"`
	TrackingNo string `json:"tracking_no" validate:"required"`
}

type orderSummary struct {
	OrderID     int64   `json:"order_id"`
	Status      string  `json:"status"`
	OrderDate   string  `json:"order_date"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
	TrackingNo  string  `json:"tracking_no,omitempty"`
	Carrier     string  `json:"carrier,omitempty"`
	EtaDate     string  `json:"eta_date,omitempty"`
}

type eventView struct {
	Status    string `json:"status"`
	Location  string `json:"location,omitempty"`
	EventTime string `json:"event_time"`
	Details   string `json:"details,omitempty"`
}

func summarize(o store.Order) orderSummary {
	return orderSummary{
		OrderID:     o.ID,
		Status:      o.Status,
		OrderDate:   isoTime(o.OrderDate),
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		TrackingNo:  o.TrackingNo,
		Carrier:     o.Carrier,
		EtaDate:     isoDate(o.EtaDate),
	}
}

func viewEvent(ev *store.ShipmentEvent) *eventView {
	if ev == nil {
		return nil
	}
	return &eventView{Status: ev.Status, Location: ev.Location, EventTime: isoTime(ev.EventTime), Details: ev.Details}
}

func (c *catalog) getMyOrders(ctx context.Context, in *customerInput) (any, error) {
	orders, err := c.Store.CustomerOrders(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	out := make([]orderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, summarize(o))
	}
	return payload{"customer_id": in.CustomerID, "orders": out, "count": len(out)}, nil
}

func (c *catalog) getOrderStatus(ctx context.Context, in *orderInput) (any, error) {
	o, ok, err := c.ownedOrder(ctx, in.CustomerID, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return notOwned(in.OrderID), nil
	}

	latest, err := c.latestEvent(ctx, o.TrackingNo)
	if err != nil {
		return nil, err
	}
	return payload{
		"found":             true,
		"customer_id":       in.CustomerID,
		"order":             summarize(*o),
		"status":            o.Status,
		"status_updated_at": isoTime(o.StatusUpdatedAt),
		"tracking_no":       o.TrackingNo,
		"eta_date":          isoDate(o.EtaDate),
		"latest_tracking":   viewEvent(latest),
	}, nil
}

func (c *catalog) trackShipment(ctx context.Context, in *trackingInput) (any, error) {
	o, err := c.Store.CustomerOrderByTracking(ctx, in.CustomerID, in.TrackingNo)
	if errx.IsKind(err, errx.KindNotFound) {
		return payload{"found": false, "tracking_no": in.TrackingNo, "message": "Отправление не найдено или не принадлежит вам"}, nil
	}
	if err != nil {
		return nil, err
	}

	events, err := c.Store.ShipmentEvents(ctx, o.TrackingNo)
	if err != nil {
		return nil, err
	}
	history := make([]eventView, 0, len(events))
	for i := range events {
		history = append(history, *viewEvent(&events[i]))
	}
	var last *eventView
	if len(history) > 0 {
		last = &history[len(history)-1]
	}
	return payload{
		"found":       true,
		"tracking_no": o.TrackingNo,
		"order_id":    o.ID,
		"status":      o.Status,
		"carrier":     o.Carrier,
		"eta_date":    isoDate(o.EtaDate),
		"last_event":  last,
		"events":      history,
	}, nil
}

func (c *catalog) latestEvent(ctx context.Context, trackingNo string) (*store.ShipmentEvent, error) {
	if trackingNo == "" {
		return nil, nil
	}
	ev, err := c.Store.LatestShipmentEvent(ctx, trackingNo)
	if errx.IsKind(err, errx.KindNotFound) {
		return nil, nil
	}
	return ev, err
}
