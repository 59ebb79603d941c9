package store

import "time"

// Customer is a shop customer. IDs are assigned by the shop, not the database.
type Customer struct {
	ID      int64  `gorm:"primaryKey;autoIncrement:false" json:"customer_id"`
	Name    string `gorm:"size:100;not null" json:"name"`
	Email   string `gorm:"size:120;not null" json:"email"`
	Country string `gorm:"size:2;not null" json:"country"`
	City    string `gorm:"size:80;not null" json:"city"`
}

// ShippingMethod is a delivery option; Region "World" applies everywhere.
type ShippingMethod struct {
	ID          int64   `gorm:"primaryKey" json:"-"`
	Name        string  `gorm:"size:60;not null" json:"name"`
	Region      string  `gorm:"size:32;not null;index" json:"region"`
	Carrier     string  `gorm:"size:40;not null" json:"carrier"`
	Cost        float64 `gorm:"not null" json:"cost"`
	EstDaysMin  int     `gorm:"not null" json:"est_days_min"`
	EstDaysMax  int     `gorm:"not null" json:"est_days_max"`
	Description string  `json:"description,omitempty"`
}

type Product struct {
	ID    int64  `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	SKU   string `gorm:"size:40;uniqueIndex" json:"sku"`
	Title string `gorm:"size:160;not null" json:"title"`
}

type Order struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	CustomerID         int64      `gorm:"not null;index" json:"-"`
	OrderDate          time.Time  `gorm:"not null" json:"order_date"`
	Status             string     `gorm:"size:32;not null" json:"status"`
	StatusUpdatedAt    time.Time  `gorm:"not null" json:"status_updated_at"`
	ShippedDate        *time.Time `json:"shipped_date,omitempty"`
	EtaDate            *time.Time `json:"eta_date,omitempty"`
	TrackingNo         string     `gorm:"size:40;index" json:"tracking_no,omitempty"`
	Carrier            string     `gorm:"size:40" json:"carrier,omitempty"`
	ShippingMethodID   *int64     `json:"-"`
	DestinationCountry string     `gorm:"size:2;not null" json:"destination_country"`
	DestinationCity    string     `gorm:"size:80;not null" json:"destination_city"`
	TotalAmount        float64    `gorm:"not null" json:"total_amount"`
	Currency           string     `gorm:"size:3;not null" json:"currency"`
}

type OrderItem struct {
	OrderID   int64   `gorm:"primaryKey;autoIncrement:false"`
	ProductID int64   `gorm:"primaryKey;autoIncrement:false"`
	Qty       int     `gorm:"not null"`
	Price     float64 `gorm:"not null"`
}

// Payment is one payment attempt; the latest attempt per order is current.
type Payment struct {
	ID            int64     `gorm:"primaryKey" json:"-"`
	OrderID       int64     `gorm:"not null;index" json:"order_id"`
	Method        string    `gorm:"size:32;not null" json:"method"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Currency      string    `gorm:"size:3;not null" json:"currency"`
	Status        string    `gorm:"size:20;not null" json:"status"`
	LastAttempt   time.Time `gorm:"not null" json:"last_attempt"`
	FailureCode   string    `gorm:"size:64" json:"failure_code,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

type Return struct {
	ID           int64     `gorm:"primaryKey" json:"-"`
	OrderID      int64     `gorm:"not null;index" json:"order_id"`
	ProductID    *int64    `json:"product_id,omitempty"`
	RequestDate  time.Time `gorm:"not null" json:"request_date"`
	Status       string    `gorm:"size:20;not null" json:"status"`
	Approved     bool      `json:"approved"`
	RefundAmount *float64  `json:"refund_amount,omitempty"`
	Currency     string    `gorm:"size:3" json:"currency,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

type ShipmentEvent struct {
	ID         int64     `gorm:"primaryKey" json:"-"`
	TrackingNo string    `gorm:"size:40;not null;index" json:"tracking_no"`
	EventTime  time.Time `gorm:"not null" json:"event_time"`
	Status     string    `gorm:"size:60;not null" json:"status"`
	Location   string    `gorm:"size:120" json:"location,omitempty"`
	Details    string    `json:"details,omitempty"`
}

// PaymentView is a payment joined with its order date.
type PaymentView struct {
	Payment
	OrderDate time.Time `json:"order_date"`
}

// ReturnView is a return joined with the returned product's title.
type ReturnView struct {
	Return
	ProductTitle string `json:"product_title,omitempty"`
}

func allModels() []any {
	return []any{
		&Customer{},
		&ShippingMethod{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&Return{},
		&ShipmentEvent{},
	}
}
