package store

import (
	"context"
	"strings"
	"time"

	errx "github.com/Chative-support-router/server/internal/core/error"
)

func (s *Store) Customer(ctx context.Context, customerID int64) (*Customer, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var c Customer
	if err := s.db.WithContext(ctx).First(&c, "id = ?", customerID).Error; err != nil {
		return nil, errx.WrapDB(err, "customer")
	}
	return &c, nil
}

// CustomerOrders lists the customer's orders, newest first.
func (s *Store) CustomerOrders(ctx context.Context, customerID int64) ([]Order, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var orders []Order
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("order_date DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errx.WrapDB(err, "orders")
	}
	return orders, nil
}

// CustomerOrder returns the order only when it belongs to the customer.
func (s *Store) CustomerOrder(ctx context.Context, customerID, orderID int64) (*Order, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var o Order
	err := s.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&o).Error
	if err != nil {
		return nil, errx.WrapDB(err, "order")
	}
	return &o, nil
}

// CustomerOrderByTracking resolves a tracking number within the customer's orders.
func (s *Store) CustomerOrderByTracking(ctx context.Context, customerID int64, trackingNo string) (*Order, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var o Order
	err := s.db.WithContext(ctx).
		Where("tracking_no = ? AND customer_id = ?", strings.TrimSpace(trackingNo), customerID).
		First(&o).Error
	if err != nil {
		return nil, errx.WrapDB(err, "order")
	}
	return &o, nil
}

// ShipmentEvents returns the tracking history in chronological order.
func (s *Store) ShipmentEvents(ctx context.Context, trackingNo string) ([]ShipmentEvent, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var events []ShipmentEvent
	err := s.db.WithContext(ctx).
		Where("tracking_no = ?", trackingNo).
		Order("event_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, errx.WrapDB(err, "shipment events")
	}
	return events, nil
}

func (s *Store) LatestShipmentEvent(ctx context.Context, trackingNo string) (*ShipmentEvent, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var ev ShipmentEvent
	err := s.db.WithContext(ctx).
		Where("tracking_no = ?", trackingNo).
		Order("event_time DESC").
		First(&ev).Error
	if err != nil {
		return nil, errx.WrapDB(err, "shipment event")
	}
	return &ev, nil
}

// DeliveredAt returns when the order's shipment was delivered, or a
// not-found error when no delivery event exists.
func (s *Store) DeliveredAt(ctx context.Context, orderID int64) (time.Time, error) {
	if s == nil || s.db == nil {
		return time.Time{}, errNotInitialized
	}
	var ev ShipmentEvent
	err := s.db.WithContext(ctx).
		Table("shipment_events AS e").
		Select("e.*").
		Joins("JOIN orders AS o ON o.tracking_no = e.tracking_no").
		Where("o.id = ? AND e.status LIKE ?", orderID, "Delivered%").
		Order("e.event_time DESC").
		Take(&ev).Error
	if err != nil {
		return time.Time{}, errx.WrapDB(err, "delivery event")
	}
	return ev.EventTime, nil
}

// CustomerPayments lists the payments on the customer's orders, newest order first.
func (s *Store) CustomerPayments(ctx context.Context, customerID int64) ([]PaymentView, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var views []PaymentView
	err := s.db.WithContext(ctx).
		Table("payments AS p").
		Select("p.*, o.order_date AS order_date").
		Joins("JOIN orders AS o ON o.id = p.order_id").
		Where("o.customer_id = ?", customerID).
		Order("o.order_date DESC, p.last_attempt DESC").
		Scan(&views).Error
	if err != nil {
		return nil, errx.WrapDB(err, "payments")
	}
	return views, nil
}

// LatestPayment returns the most recent payment attempt for an order.
func (s *Store) LatestPayment(ctx context.Context, orderID int64) (*Payment, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var p Payment
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("last_attempt DESC").
		First(&p).Error
	if err != nil {
		return nil, errx.WrapDB(err, "payment")
	}
	return &p, nil
}

func (s *Store) CustomerReturns(ctx context.Context, customerID int64) ([]ReturnView, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var views []ReturnView
	err := s.db.WithContext(ctx).
		Table("returns AS r").
		Select("r.*, pr.title AS product_title").
		Joins("JOIN orders AS o ON o.id = r.order_id").
		Joins("LEFT JOIN products AS pr ON pr.id = r.product_id").
		Where("o.customer_id = ?", customerID).
		Order("r.request_date DESC").
		Scan(&views).Error
	if err != nil {
		return nil, errx.WrapDB(err, "returns")
	}
	return views, nil
}

func (s *Store) LatestReturn(ctx context.Context, orderID int64) (*ReturnView, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var views []ReturnView
	err := s.db.WithContext(ctx).
		Table("returns AS r").
		Select("r.*, pr.title AS product_title").
		Joins("LEFT JOIN products AS pr ON pr.id = r.product_id").
		Where("r.order_id = ?", orderID).
		Order("r.request_date DESC").
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, errx.WrapDB(err, "return")
	}
	if len(views) == 0 {
		return nil, errx.Newf(errx.KindNotFound, "return not found")
	}
	return &views[0], nil
}

// ShippingOptions lists the methods available in a region plus worldwide
// ones, cheapest first.
func (s *Store) ShippingOptions(ctx context.Context, region string) ([]ShippingMethod, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	var methods []ShippingMethod
	err := s.db.WithContext(ctx).
		Where("UPPER(region) IN (?, 'WORLD')", strings.ToUpper(strings.TrimSpace(region))).
		Order("cost ASC, est_days_min ASC").
		Find(&methods).Error
	if err != nil {
		return nil, errx.WrapDB(err, "shipping methods")
	}
	return methods, nil
}
