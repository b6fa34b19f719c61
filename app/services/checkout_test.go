package services_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/app/services"
)

var buyer = services.Buyer{UserID: userA, ChatID: 5005, Name: "Алёна", Handle: "alena"}

// ─── Delivery validation ─────────────────────────────────────────────────────

func TestSetPhoneNormalizes(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.checkout.SetPhone(userA, "+7 (912) 345-67-89"))
	assert.Equal(t, "+79123456789", f.checkout.Delivery(userA).Phone)

	for _, bad := range []string{"12345", "", "abc", "1234567890123456"} {
		err := f.checkout.SetPhone(userA, bad)
		_, ok := services.AsValidation(err)
		assert.True(t, ok, "phone %q should be rejected", bad)
	}
}

func TestSetEmailValidates(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.checkout.SetEmail(userA, "buyer@example.com"))

	for _, bad := range []string{"", "no-at.example", "a@b", "has space@x.com", "@x.com", "a@"} {
		err := f.checkout.SetEmail(userA, bad)
		_, ok := services.AsValidation(err)
		assert.True(t, ok, "email %q should be rejected", bad)
	}
}

func TestSetCarrierRejectsUnknown(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.checkout.SetCarrier(userA, "yandex"))
	err := f.checkout.SetCarrier(userA, "dhl")
	_, ok := services.AsValidation(err)
	assert.True(t, ok)
}

// ─── BeginPayment ────────────────────────────────────────────────────────────

func TestBeginPaymentGates(t *testing.T) {
	f := newFixture(t, true)
	pid := f.pid(t, 0)

	// Cart has items but delivery is incomplete.
	require.NoError(t, f.cart.Add(userA, pid, 1))
	_, err := f.checkout.BeginPayment(userA)
	assert.True(t, errors.Is(err, services.ErrDeliveryIncomplete))

	// Delivery complete but cart empty.
	f.cart.Clear(userA, true)
	f.completeDelivery(t, userA)
	_, err = f.checkout.BeginPayment(userA)
	_, ok := services.AsValidation(err)
	assert.True(t, ok)
}

func TestBeginPaymentSnapshotsCart(t *testing.T) {
	f := newFixture(t, true)
	pid := f.pid(t, 0)

	f.completeDelivery(t, userA)
	require.NoError(t, f.cart.Add(userA, pid, 2))

	req, err := f.checkout.BeginPayment(userA)
	require.NoError(t, err)

	assert.NotEmpty(t, req.Payload)
	assert.Equal(t, "RUB", req.Currency)
	assert.Equal(t, int64(3500*100*2), req.TotalMinor)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, 2, req.Lines[0].Qty)

	// The snapshot is frozen: later cart changes do not affect it.
	require.NoError(t, f.cart.Add(userA, pid, 1))
	assert.Equal(t, 2, req.Lines[0].Qty)
}

// ─── Settle ──────────────────────────────────────────────────────────────────

func TestSettleCreatesOrderAndDecrementsStore(t *testing.T) {
	f := newFixture(t, false)
	pid := f.pid(t, 0)

	f.completeDelivery(t, userA)
	require.NoError(t, f.cart.Add(userA, pid, 2))
	req, err := f.checkout.BeginPayment(userA)
	require.NoError(t, err)

	result, err := f.checkout.Settle(req.Payload, buyer)
	require.NoError(t, err)

	assert.NotZero(t, result.OrderID)
	assert.Equal(t, int64(3500*100*2), result.TotalMinor)
	require.Len(t, result.Lines, 1)
	assert.False(t, result.Lines[0].Clamped)

	// Durable stock decremented, cart gone, cache reconciled to the store.
	assert.Equal(t, 3, f.storeStock(t, pid))
	assert.Empty(t, f.cart.Items(userA))
	snap, ok := f.cache.Product(pid)
	require.True(t, ok)
	assert.Equal(t, 3, snap.Stock)

	order, err := f.orders.GetByPayload(req.Payload)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, buyer.UserID, order.UserID)
	assert.Equal(t, "Алёна", order.BuyerName)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Браслет «Аметист люкс»", order.Items[0].Title)
	assert.Equal(t, int64(350000), order.Items[0].PriceMinor)
}

func TestSettleIsIdempotent(t *testing.T) {
	f := newFixture(t, false)
	pid := f.pid(t, 0)

	f.completeDelivery(t, userA)
	require.NoError(t, f.cart.Add(userA, pid, 1))
	req, err := f.checkout.BeginPayment(userA)
	require.NoError(t, err)

	_, err = f.checkout.Settle(req.Payload, buyer)
	require.NoError(t, err)

	// A replayed payment-succeeded event settles nothing.
	_, err = f.checkout.Settle(req.Payload, buyer)
	assert.True(t, errors.Is(err, services.ErrUnknownSettlement))
	assert.Equal(t, 4, f.storeStock(t, pid))

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSettleUnknownPayload(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.checkout.Settle("never-issued", buyer)
	assert.True(t, errors.Is(err, services.ErrUnknownSettlement))
}

func TestSettleClampsToStoreStock(t *testing.T) {
	f := newFixture(t, false)
	pid := f.pid(t, 0)

	f.completeDelivery(t, userA)
	require.NoError(t, f.cart.Add(userA, pid, 3))
	req, err := f.checkout.BeginPayment(userA)
	require.NoError(t, err)

	// The store lost stock while payment was in flight (out-of-band change).
	require.NoError(t, f.db.Model(&models.Product{}).
		Where("id = ?", pid).UpdateColumn("stock", 1).Error)

	result, err := f.checkout.Settle(req.Payload, buyer)
	require.NoError(t, err)

	require.Len(t, result.Lines, 1)
	assert.True(t, result.Lines[0].Clamped)
	assert.Equal(t, 1, result.Lines[0].Qty)
	assert.Equal(t, int64(3500*100), result.TotalMinor)
	assert.Equal(t, 0, f.storeStock(t, pid))
}

func TestSettleRemoveOnZeroDeletesProduct(t *testing.T) {
	f := newFixture(t, true)
	pid := f.pid(t, 1) // stock 2

	f.completeDelivery(t, userA)
	require.NoError(t, f.cart.Add(userA, pid, 2))
	req, err := f.checkout.BeginPayment(userA)
	require.NoError(t, err)

	_, err = f.checkout.Settle(req.Payload, buyer)
	require.NoError(t, err)

	// Row deleted durably and from the cache.
	err = f.db.First(&models.Product{}, pid).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	_, ok := f.cache.Product(pid)
	assert.False(t, ok)
}

func TestSettleKeepsZeroStockRowWithoutPolicy(t *testing.T) {
	f := newFixture(t, false)
	pid := f.pid(t, 1) // stock 2

	f.completeDelivery(t, userA)
	require.NoError(t, f.cart.Add(userA, pid, 2))
	req, err := f.checkout.BeginPayment(userA)
	require.NoError(t, err)

	_, err = f.checkout.Settle(req.Payload, buyer)
	require.NoError(t, err)

	assert.Equal(t, 0, f.storeStock(t, pid))
	snap, ok := f.cache.Product(pid)
	require.True(t, ok)
	assert.Equal(t, 0, snap.Stock)
}
