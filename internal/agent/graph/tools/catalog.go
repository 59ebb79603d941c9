package tools

import (
	"context"
	"strings"
	"time"

	errx "github.com/Chative-support-router/server/internal/core/error"
	"github.com/Chative-support-router/server/internal/retrieval"
	"github.com/Chative-support-router/server/internal/store"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

const (
	ToolSearchKnowledgeBase    = "search_knowledge_base"
	ToolDeliveryOptions        = "delivery_options"
	ToolCheapestDelivery       = "cheapest_delivery"
	ToolEstimateDeliveryCost   = "estimate_delivery_cost"
	ToolGetMyOrders            = "get_my_orders"
	ToolGetOrderStatus         = "get_order_status"
	ToolTrackShipment          = "track_shipment"
	ToolGetMyPayments          = "get_my_payments"
	ToolGetPaymentStatus       = "get_payment_status"
	ToolCanRetryPayment        = "can_retry_payment"
	ToolPaymentRetrySteps      = "payment_retry_steps"
	ToolGetMyReturns           = "get_my_returns"
	ToolGetReturnStatus        = "get_return_status"
	ToolCheckReturnEligibility = "check_return_eligibility"
	ToolRequestReturnLabel     = "request_return_label"
)

const (
	DefaultRetryCooldownMinutes = 30
	DefaultReturnPolicyDays     = 30
	DefaultSearchTopK           = 3

	msgOrderNotOwned = "Заказ не найден или не принадлежит вам"
)

// DataStore is the read-only data access the tools need.
type DataStore interface {
	CustomerOrders(ctx context.Context, customerID int64) ([]store.Order, error)
	CustomerOrder(ctx context.Context, customerID, orderID int64) (*store.Order, error)
	CustomerOrderByTracking(ctx context.Context, customerID int64, trackingNo string) (*store.Order, error)
	ShipmentEvents(ctx context.Context, trackingNo string) ([]store.ShipmentEvent, error)
	LatestShipmentEvent(ctx context.Context, trackingNo string) (*store.ShipmentEvent, error)
	DeliveredAt(ctx context.Context, orderID int64) (time.Time, error)
	CustomerPayments(ctx context.Context, customerID int64) ([]store.PaymentView, error)
	LatestPayment(ctx context.Context, orderID int64) (*store.Payment, error)
	CustomerReturns(ctx context.Context, customerID int64) ([]store.ReturnView, error)
	LatestReturn(ctx context.Context, orderID int64) (*store.ReturnView, error)
	ShippingOptions(ctx context.Context, region string) ([]store.ShippingMethod, error)
}

// NeighborSource expands a hit with the adjacent chunks of its document.
type NeighborSource interface {
	Neighbors(sourceID string) []retrieval.Chunk
}

type Deps struct {
	Store    DataStore
	Searcher retrieval.Searcher
	TopK     int
	// Now and NewLabelRef are replaceable for tests.
	Now         func() time.Time
	NewLabelRef func() string
}

type catalog struct {
	Deps
}

type payload = map[string]any

// Catalog builds the full tool set over deps.
func Catalog(deps Deps) []Spec {
	if deps.TopK <= 0 {
		deps.TopK = DefaultSearchTopK
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewLabelRef == nil {
		deps.NewLabelRef = func() string {
			return "RL-" + strings.ToUpper(uuid.NewString()[:8])
		}
	}
	c := &catalog{Deps: deps}

	customer := Param{Name: CustomerIDParam, Type: schema.Integer, Desc: "Bound customer id", Required: true}
	orderID := Param{Name: "order_id", Type: schema.Integer, Desc: "Order number, e.g. 1001", Required: true}
	region := Param{Name: "region", Type: schema.String, Desc: "Destination region code, e.g. US, ES, CA", Required: true}

	return []Spec{
		{
			Name:   ToolSearchKnowledgeBase,
			Desc:   "Search the support knowledge base (returns, shipping, payments, order policies). Returns relevant passages with context.",
			Params: []Param{{Name: "query", Type: schema.String, Desc: "Search query in the customer's language", Required: true}},
			Exec:   Typed(c.searchKnowledgeBase),
		},
		{
			Name:   ToolDeliveryOptions,
			Desc:   "List shipping methods available for a region, including worldwide ones, cheapest first.",
			Params: []Param{region},
			Exec:   Typed(c.deliveryOptions),
		},
		{
			Name: ToolCheapestDelivery,
			Desc: "Find the cheapest shipping method for a region, optionally within a maximum number of delivery days.",
			Params: []Param{region,
				{Name: "max_days", Type: schema.Integer, Desc: "Maximum acceptable delivery days"}},
			Exec: Typed(c.cheapestDelivery),
		},
		{
			Name: ToolEstimateDeliveryCost,
			Desc: "Estimate delivery cost and days for a region, for a named method or the cheapest one.",
			Params: []Param{region,
				{Name: "method_name", Type: schema.String, Desc: "Shipping method name", Enum: []string{"Standard", "Express", "International"}}},
			Exec: Typed(c.estimateDeliveryCost),
		},
		{
			Name:           ToolGetMyOrders,
			Desc:           "List all orders of the current customer with status, totals and tracking.",
			Params:         []Param{customer},
			CustomerScoped: true,
			Exec:           Typed(c.getMyOrders),
		},
		{
			Name:           ToolGetOrderStatus,
			Desc:           "Get status, ETA, tracking number and the latest shipment event of one of the customer's orders.",
			Params:         []Param{customer, orderID},
			CustomerScoped: true,
			Exec:           Typed(c.getOrderStatus),
		},
		{
			Name:           ToolTrackShipment,
			Desc:           "Track a shipment of the customer by tracking number; returns the order and the event history.",
			Params:         []Param{customer, {Name: "tracking_no", Type: schema.String, Desc: "Tracking number, e.g. TRK1001", Required: true}},
			CustomerScoped: true,
			Exec:           Typed(c.trackShipment),
		},
		{
			Name:           ToolGetMyPayments,
			Desc:           "List payments for all orders of the current customer, including failure details.",
			Params:         []Param{customer},
			CustomerScoped: true,
			Exec:           Typed(c.getMyPayments),
		},
		{
			Name:           ToolGetPaymentStatus,
			Desc:           "Get the latest payment attempt of one of the customer's orders.",
			Params:         []Param{customer, orderID},
			CustomerScoped: true,
			Exec:           Typed(c.getPaymentStatus),
		},
		{
			Name: ToolCanRetryPayment,
			Desc: "Check whether a failed payment of the customer's order can be retried now, given a cooldown.",
			Params: []Param{customer, orderID,
				{Name: "cooldown_minutes", Type: schema.Integer, Desc: "Cooldown after the last attempt, default 30"}},
			CustomerScoped: true,
			Exec:           Typed(c.canRetryPayment),
		},
		{
			Name: ToolPaymentRetrySteps,
			Desc: "Return step-by-step instructions to retry a failed payment of the customer's order.",
			Params: []Param{customer, orderID,
				{Name: "preferred_method", Type: schema.String, Desc: "Preferred payment method, e.g. CreditCard or PayPal"}},
			CustomerScoped: true,
			Exec:           Typed(c.paymentRetrySteps),
		},
		{
			Name:           ToolGetMyReturns,
			Desc:           "List return requests for all orders of the current customer.",
			Params:         []Param{customer},
			CustomerScoped: true,
			Exec:           Typed(c.getMyReturns),
		},
		{
			Name:           ToolGetReturnStatus,
			Desc:           "Get the latest return request of one of the customer's orders with the product title.",
			Params:         []Param{customer, orderID},
			CustomerScoped: true,
			Exec:           Typed(c.getReturnStatus),
		},
		{
			Name: ToolCheckReturnEligibility,
			Desc: "Check whether one of the customer's orders is still within the return window since delivery.",
			Params: []Param{customer, orderID,
				{Name: "policy_days", Type: schema.Integer, Desc: "Return window in days, default 30"}},
			CustomerScoped: true,
			Exec:           Typed(c.checkReturnEligibility),
		},
		{
			Name: ToolRequestReturnLabel,
			Desc: "Request a return shipping label for an eligible order of the customer; the label is sent to the email.",
			Params: []Param{customer, orderID,
				{Name: "email", Type: schema.String, Desc: "Email to send the label to", Required: true}},
			CustomerScoped: true,
			Exec:           Typed(c.requestReturnLabel),
		},
	}
}

// ownedOrder resolves an order of the customer; ok is false when it does not
// exist or belongs to someone else.
func (c *catalog) ownedOrder(ctx context.Context, customerID, orderID int64) (*store.Order, bool, error) {
	o, err := c.Store.CustomerOrder(ctx, customerID, orderID)
	if errx.IsKind(err, errx.KindNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return o, true, nil
}

func notOwned(orderID int64) payload {
	return payload{"found": false, "order_id": orderID, "message": msgOrderNotOwned}
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
