package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Seed loads the demo dataset into an empty store. It reports false without
// writing anything when customers already exist.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	if s == nil || s.db == nil {
		return false, errNotInitialized
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Customer{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count customers: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rows := range seedRows() {
			if err := tx.Create(rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	return true, nil
}

func seedRows() []any {
	return []any{
		&[]Customer{
			{ID: 501, Name: "Alice Johnson", Email: "alice@example.com", Country: "US", City: "New York"},
			{ID: 502, Name: "Bob Smith", Email: "bob@example.com", Country: "US", City: "San Francisco"},
			{ID: 503, Name: "Carlos Diaz", Email: "carlos@example.com", Country: "ES", City: "Madrid"},
			{ID: 504, Name: "Diana Lee", Email: "diana@example.com", Country: "CA", City: "Toronto"},
			{ID: 505, Name: "Eva Nowak", Email: "eva@example.com", Country: "PL", City: "Warsaw"},
		},
		&[]ShippingMethod{
			{ID: 1, Name: "Standard", Region: "US", Carrier: "UPS", Cost: 5.00, EstDaysMin: 3, EstDaysMax: 5, Description: "Ground shipping"},
			{ID: 2, Name: "Express", Region: "US", Carrier: "UPS", Cost: 15.00, EstDaysMin: 1, EstDaysMax: 2, Description: "Expedited shipping"},
			{ID: 3, Name: "International", Region: "World", Carrier: "DHL", Cost: 25.00, EstDaysMin: 7, EstDaysMax: 12, Description: "Worldwide delivery"},
		},
		&[]Product{
			{ID: 101, SKU: "NC-HEADPHONES", Title: "Noise-Cancelling Headphones"},
			{ID: 102, SKU: "USB-C-65W", Title: "USB-C Charger 65W"},
			{ID: 103, SKU: "RUN-SHOES", Title: "Running Shoes"},
		},
		&[]Order{
			{
				ID: 1001, CustomerID: 501,
				OrderDate: at("2025-07-30 10:00"), Status: "Shipped", StatusUpdatedAt: at("2025-08-01 14:30"),
				ShippedDate: atPtr("2025-08-01 14:30"), EtaDate: atPtr("2025-08-05 00:00"),
				TrackingNo: "TRK1001", Carrier: "UPS", ShippingMethodID: idPtr(1),
				DestinationCountry: "US", DestinationCity: "New York", TotalAmount: 59.99, Currency: "USD",
			},
			{
				ID: 1002, CustomerID: 502,
				OrderDate: at("2025-08-01 13:55"), Status: "PendingPayment", StatusUpdatedAt: at("2025-08-01 14:00"),
				ShippingMethodID: idPtr(2),
				DestinationCountry: "US", DestinationCity: "San Francisco", TotalAmount: 120.00, Currency: "USD",
			},
			{
				ID: 1003, CustomerID: 503,
				OrderDate: at("2025-07-18 09:20"), Status: "Delivered", StatusUpdatedAt: at("2025-07-20 18:45"),
				ShippedDate: atPtr("2025-07-18 16:00"), EtaDate: atPtr("2025-07-20 00:00"),
				TrackingNo: "TRK1003", Carrier: "DHL", ShippingMethodID: idPtr(3),
				DestinationCountry: "ES", DestinationCity: "Madrid", TotalAmount: 89.00, Currency: "EUR",
			},
			{
				ID: 1004, CustomerID: 504,
				OrderDate: at("2025-07-31 11:10"), Status: "Shipped", StatusUpdatedAt: at("2025-08-02 09:00"),
				ShippedDate: atPtr("2025-08-01 17:00"), EtaDate: atPtr("2025-08-08 00:00"),
				TrackingNo: "TRK1004", Carrier: "DHL", ShippingMethodID: idPtr(3),
				DestinationCountry: "CA", DestinationCity: "Toronto", TotalAmount: 149.00, Currency: "CAD",
			},
			{
				ID: 1005, CustomerID: 505,
				OrderDate: at("2025-07-25 15:40"), Status: "Canceled", StatusUpdatedAt: at("2025-07-26 09:00"),
				ShippingMethodID: idPtr(3),
				DestinationCountry: "PL", DestinationCity: "Warsaw", TotalAmount: 45.50, Currency: "PLN",
			},
		},
		&[]OrderItem{
			{OrderID: 1001, ProductID: 101, Qty: 1, Price: 59.99},
			{OrderID: 1002, ProductID: 102, Qty: 2, Price: 60.00},
			{OrderID: 1003, ProductID: 103, Qty: 1, Price: 89.00},
			{OrderID: 1004, ProductID: 101, Qty: 1, Price: 149.00},
			{OrderID: 1005, ProductID: 102, Qty: 1, Price: 45.50},
		},
		&[]Payment{
			{OrderID: 1001, Method: "CreditCard", Amount: 59.99, Currency: "USD", Status: "Completed", LastAttempt: at("2025-07-30 10:01")},
			{
				OrderID: 1002, Method: "CreditCard", Amount: 120.00, Currency: "USD", Status: "Failed",
				LastAttempt: at("2025-08-01 14:00"), FailureCode: "card_declined", FailureReason: "Issuer declined the transaction",
			},
			{OrderID: 1003, Method: "PayPal", Amount: 89.00, Currency: "EUR", Status: "Completed", LastAttempt: at("2025-07-18 09:21")},
			{OrderID: 1004, Method: "CreditCard", Amount: 149.00, Currency: "CAD", Status: "Completed", LastAttempt: at("2025-07-31 11:11")},
			{
				OrderID: 1005, Method: "CreditCard", Amount: 45.50, Currency: "PLN", Status: "Refunded",
				LastAttempt: at("2025-07-26 09:00"), FailureReason: "Order canceled and refunded",
			},
		},
		&[]Return{
			{OrderID: 1003, ProductID: idPtr(103), RequestDate: at("2025-08-05 12:00"), Status: "Pending", Currency: "EUR", Notes: "Customer requested size exchange"},
		},
		&[]ShipmentEvent{
			{TrackingNo: "TRK1001", EventTime: at("2025-08-01 15:00"), Status: "Shipment picked up", Location: "New York, NY"},
			{TrackingNo: "TRK1001", EventTime: at("2025-08-02 08:10"), Status: "In Transit", Location: "Harrisburg, PA"},
			{TrackingNo: "TRK1001", EventTime: at("2025-08-03 07:30"), Status: "In Transit", Location: "Newark, NJ"},
			{TrackingNo: "TRK1003", EventTime: at("2025-07-19 07:50"), Status: "Out for Delivery", Location: "Madrid, ES"},
			{TrackingNo: "TRK1003", EventTime: at("2025-07-20 18:45"), Status: "Delivered", Location: "Madrid, ES"},
			{TrackingNo: "TRK1004", EventTime: at("2025-08-02 09:00"), Status: "In Transit", Location: "Montreal, QC"},
			{
				TrackingNo: "TRK1004", EventTime: at("2025-08-03 10:00"), Status: "Shipment on Hold", Location: "Toronto, ON",
				Details: "Clearance delay - awaiting documentation",
			},
		},
	}
}

func at(v string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", v, time.UTC)
	if err != nil {
		panic(fmt.Sprintf("seed time %q: %v", v, err))
	}
	return t
}

func atPtr(v string) *time.Time {
	t := at(v)
	return &t
}

func idPtr(v int64) *int64 {
	return &v
}
