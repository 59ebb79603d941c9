package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	errx "github.com/Chative-support-router/server/internal/core/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "support.db")
	s, err := Open(context.Background(), Config{Path: dbPath, BusyTimeout: time.Second})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	seeded, err := s.Seed(context.Background())
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if !seeded {
		t.Fatalf("expected fresh store to be seeded")
	}
	return s
}

func TestSeedIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	seeded, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)

	var n int64
	require.NoError(t, s.DB().Model(&Order{}).Count(&n).Error)
	assert.Equal(t, int64(5), n)
}

func TestResetEmptiesTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Reset(ctx))
	var n int64
	require.NoError(t, s.DB().Model(&Customer{}).Count(&n).Error)
	assert.Zero(t, n)

	seeded, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
}

func TestCustomerOrderIsScoped(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	o, err := s.CustomerOrder(ctx, 501, 1001)
	require.NoError(t, err)
	assert.Equal(t, "Shipped", o.Status)
	assert.Equal(t, "TRK1001", o.TrackingNo)
	require.NotNil(t, o.EtaDate)
	assert.Equal(t, "2025-08-05", o.EtaDate.Format("2006-01-02"))

	_, err = s.CustomerOrder(ctx, 502, 1001)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestCustomerOrders(t *testing.T) {
	s := openTestStore(t)

	orders, err := s.CustomerOrders(context.Background(), 501)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1001), orders[0].ID)

	none, err := s.CustomerOrders(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestShipmentEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	events, err := s.ShipmentEvents(ctx, "TRK1001")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Shipment picked up", events[0].Status)
	assert.Equal(t, "Newark, NJ", events[2].Location)

	latest, err := s.LatestShipmentEvent(ctx, "TRK1004")
	require.NoError(t, err)
	assert.Equal(t, "Shipment on Hold", latest.Status)
	assert.Contains(t, latest.Details, "Clearance delay")

	_, err = s.LatestShipmentEvent(ctx, "TRK0000")
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestCustomerOrderByTracking(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	o, err := s.CustomerOrderByTracking(ctx, 504, " TRK1004 ")
	require.NoError(t, err)
	assert.Equal(t, int64(1004), o.ID)

	_, err = s.CustomerOrderByTracking(ctx, 501, "TRK1004")
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestDeliveredAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	when, err := s.DeliveredAt(ctx, 1003)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 20, 18, 45, 0, 0, time.UTC), when.UTC())

	_, err = s.DeliveredAt(ctx, 1001)
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestPayments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p, err := s.LatestPayment(ctx, 1002)
	require.NoError(t, err)
	assert.Equal(t, "Failed", p.Status)
	assert.Equal(t, "card_declined", p.FailureCode)

	views, err := s.CustomerPayments(ctx, 502)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(1002), views[0].OrderID)
	assert.Equal(t, 120.0, views[0].Amount)
}

func TestReturns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r, err := s.LatestReturn(ctx, 1003)
	require.NoError(t, err)
	assert.Equal(t, "Pending", r.Status)
	assert.Equal(t, "Running Shoes", r.ProductTitle)

	_, err = s.LatestReturn(ctx, 1001)
	assert.True(t, errx.IsKind(err, errx.KindNotFound))

	list, err := s.CustomerReturns(ctx, 503)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Customer requested size exchange", list[0].Notes)
}

func TestShippingOptions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	us, err := s.ShippingOptions(ctx, "us")
	require.NoError(t, err)
	require.Len(t, us, 3)
	assert.Equal(t, "Standard", us[0].Name)
	assert.Equal(t, "International", us[2].Name)

	es, err := s.ShippingOptions(ctx, "ES")
	require.NoError(t, err)
	require.Len(t, es, 1)
	assert.Equal(t, "DHL", es[0].Carrier)
}

func TestConcurrentReads(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CustomerOrder(ctx, 501, 1001); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent read failed: %v", err)
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
	_, err := s.CustomerOrder(context.Background(), 1, 1)
	assert.Error(t, err)
}

func TestDSNRequiresPath(t *testing.T) {
	_, err := dsnFromConfig(Config{})
	assert.Error(t, err)

	dsn, err := dsnFromConfig(Config{InMemory: true})
	require.NoError(t, err)
	assert.Contains(t, dsn, "mode=memory")
}
