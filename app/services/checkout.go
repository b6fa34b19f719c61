package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/app/repositories"
	"github.com/alenadem/stonecart/pkg/event"
	"github.com/alenadem/stonecart/pkg/logger"
	"github.com/alenadem/stonecart/pkg/metrics"
)

// Carrier codes accepted by SetCarrier, with their display names.
var carrierNames = map[string]string{
	"cdek":   "СДЭК",
	"yandex": "Яндекс Доставка",
	"post":   "Почта России",
}

// Carrier is one delivery option.
type Carrier struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DeliveryInfo is the per-user delivery context collected before payment.
type DeliveryInfo struct {
	Carrier string `json:"carrier"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Complete reports whether every field required for payment is present.
func (d DeliveryInfo) Complete() bool {
	return d.Carrier != "" && d.Phone != "" && d.Email != "" && d.Address != ""
}

// PaymentLine is one frozen cart position inside a payment request.
type PaymentLine struct {
	ProductID uint     `json:"product_id"`
	Title     string   `json:"title"`
	Price     int      `json:"price"` // unit price, whole currency units
	Qty       int      `json:"qty"`
	Photos    []string `json:"photos"`
}

// PaymentRequest is handed to the payment collaborator. Payload is the
// correlation id it must echo back on success; the Lines snapshot, not the
// live cart, is authoritative for settlement.
type PaymentRequest struct {
	Payload    string        `json:"payload"`
	Currency   string        `json:"currency"`
	TotalMinor int64         `json:"total_minor_units"`
	Lines      []PaymentLine `json:"lines"`
}

// SettledLine reports the outcome of one line after settlement. Clamped is
// set when fewer units than snapshotted could be granted from durable stock.
type SettledLine struct {
	ProductID uint   `json:"product_id"`
	Title     string `json:"title"`
	Qty       int    `json:"qty"`
	Clamped   bool   `json:"clamped"`
}

// SettlementResult is returned to the payment webhook caller.
type SettlementResult struct {
	OrderID    uint          `json:"order_id"`
	TotalMinor int64         `json:"total_minor_units"`
	Lines      []SettledLine `json:"lines"`
}

// Buyer identifies who the settled order belongs to.
type Buyer struct {
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

type pendingCheckout struct {
	user      int64
	lines     []PaymentLine
	createdAt time.Time
}

// Checkout coordinates delivery data collection, payment requests and
// idempotent settlement. Pending settlements live only in memory, keyed by
// the uuid payload; a payload is consumed on first use so a duplicate
// payment-succeeded event can never settle twice.
type Checkout struct {
	cart    *Cart
	cache   *CatalogCache
	catalog *repositories.CatalogRepository
	orders  *repositories.OrderRepository

	currency     string
	removeOnZero bool

	mu       sync.Mutex
	delivery map[int64]DeliveryInfo
	pending  map[string]pendingCheckout
}

func NewCheckout(
	cart *Cart,
	cache *CatalogCache,
	catalog *repositories.CatalogRepository,
	orders *repositories.OrderRepository,
	currency string,
	removeOnZero bool,
) *Checkout {
	return &Checkout{
		cart:         cart,
		cache:        cache,
		catalog:      catalog,
		orders:       orders,
		currency:     currency,
		removeOnZero: removeOnZero,
		delivery:     make(map[int64]DeliveryInfo),
		pending:      make(map[string]pendingCheckout),
	}
}

// Carriers lists the supported delivery options in a stable order.
func (s *Checkout) Carriers() []Carrier {
	return []Carrier{
		{Code: "cdek", Name: carrierNames["cdek"]},
		{Code: "yandex", Name: carrierNames["yandex"]},
		{Code: "post", Name: carrierNames["post"]},
	}
}

// PurgeUser drops user's delivery context and any pending settlements.
// Wired as a cart purge hook so checkout state dies with the cart.
func (s *Checkout) PurgeUser(user int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.delivery, user)
	for payload, p := range s.pending {
		if p.user == user {
			delete(s.pending, payload)
		}
	}
}

// ─── Delivery context ─────────────────────────────────────────────────────────

// SetCarrier selects the delivery carrier for user.
func (s *Checkout) SetCarrier(user int64, code string) error {
	if _, ok := carrierNames[code]; !ok {
		return &ValidationError{Field: "carrier", Reason: "unknown carrier"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.delivery[user]
	d.Carrier = code
	s.delivery[user] = d
	return nil
}

// SetPhone validates and normalizes the buyer's phone. All non-digits are
// stripped; 10 to 15 digits must remain; stored as "+digits".
func (s *Checkout) SetPhone(user int64, raw string) error {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.Len()
	if n < 10 || n > 15 {
		return &ValidationError{Field: "phone", Reason: "must contain 10 to 15 digits"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.delivery[user]
	d.Phone = "+" + digits.String()
	s.delivery[user] = d
	return nil
}

// SetEmail validates the buyer's email: an "@", a "." somewhere after the
// last "@", and no whitespace.
func (s *Checkout) SetEmail(user int64, raw string) error {
	email := strings.TrimSpace(raw)
	at := strings.LastIndex(email, "@")
	if email == "" ||
		at <= 0 || at == len(email)-1 ||
		!strings.Contains(email[at:], ".") ||
		strings.ContainsAny(email, " \t") {
		return &ValidationError{Field: "email", Reason: "malformed email address"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.delivery[user]
	d.Email = email
	s.delivery[user] = d
	return nil
}

// SetAddress stores the free-text delivery address or pickup point.
func (s *Checkout) SetAddress(user int64, raw string) error {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return &ValidationError{Field: "address", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.delivery[user]
	d.Address = addr
	s.delivery[user] = d
	return nil
}

// Delivery returns user's current delivery context.
func (s *Checkout) Delivery(user int64) DeliveryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivery[user]
}

// ─── Payment ─────────────────────────────────────────────────────────────────

// BeginPayment snapshots user's cart into a pending settlement and returns
// the payment request. Requires complete delivery data and a non-empty cart.
// The live cart keeps its reservations until settlement or expiry.
func (s *Checkout) BeginPayment(user int64) (PaymentRequest, error) {
	lines := s.cart.Lines(user) // also runs the lazy expiry sweep
	if !s.Delivery(user).Complete() {
		return PaymentRequest{}, ErrDeliveryIncomplete
	}
	if len(lines) == 0 {
		return PaymentRequest{}, &ValidationError{Field: "cart", Reason: "cart is empty"}
	}

	snapshot := make([]PaymentLine, len(lines))
	var totalMinor int64
	for i, l := range lines {
		snapshot[i] = PaymentLine{
			ProductID: l.ProductID,
			Title:     l.Title,
			Price:     l.Price,
			Qty:       l.Qty,
			Photos:    append([]string(nil), l.Photos...),
		}
		totalMinor += int64(l.Price) * 100 * int64(l.Qty)
	}

	payload := uuid.NewString()

	s.mu.Lock()
	s.pending[payload] = pendingCheckout{user: user, lines: snapshot, createdAt: time.Now()}
	s.mu.Unlock()

	logger.Info("checkout: payment request created",
		"user", user, "payload", payload, "lines", len(snapshot), "total_minor", totalMinor)

	return PaymentRequest{
		Payload:    payload,
		Currency:   s.currency,
		TotalMinor: totalMinor,
		Lines:      snapshot,
	}, nil
}

// Settle consumes a payment-succeeded event. Idempotent: the pending entry
// is removed before any other work, so a replayed payload gets
// ErrUnknownSettlement and changes nothing.
//
// Each snapshot line is granted at most the durable stock still available
// (conditional decrement, the store never goes negative); shortfalls are
// reported per line via Clamped. Zero-stock rows are deleted afterwards when
// the remove-on-zero policy is on, otherwise refreshed in place.
func (s *Checkout) Settle(payload string, buyer Buyer) (SettlementResult, error) {
	s.mu.Lock()
	p, ok := s.pending[payload]
	if ok {
		delete(s.pending, payload)
	}
	s.mu.Unlock()

	if !ok {
		metrics.SettlementsTotal.WithLabelValues("unknown_payload").Inc()
		logger.Warn("checkout: settlement for unknown payload", "payload", payload)
		return SettlementResult{}, ErrUnknownSettlement
	}

	order := models.Order{
		UserID:      buyer.UserID,
		ChatID:      buyer.ChatID,
		BuyerName:   buyer.Name,
		BuyerHandle: buyer.Handle,
		Currency:    s.currency,
		Payload:     payload,
		Status:      models.OrderPaid,
	}

	result := SettlementResult{Lines: make([]SettledLine, 0, len(p.lines))}
	touched := make([]uint, 0, len(p.lines))

	for _, line := range p.lines {
		granted, err := s.grantLine(line)
		if err != nil {
			return SettlementResult{}, err
		}
		touched = append(touched, line.ProductID)

		clamped := granted < line.Qty
		if clamped {
			metrics.SettlementClamped.Inc()
			logger.Warn("checkout: settlement clamped to available stock",
				"payload", payload, "product_id", line.ProductID,
				"wanted", line.Qty, "granted", granted)
		}
		result.Lines = append(result.Lines, SettledLine{
			ProductID: line.ProductID,
			Title:     line.Title,
			Qty:       granted,
			Clamped:   clamped,
		})
		if granted == 0 {
			continue
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID:  line.ProductID,
			Title:      line.Title,
			PriceMinor: int64(line.Price) * 100,
			Qty:        granted,
			Photos:     models.PhotoList(line.Photos),
		})
		order.TotalMinor += int64(line.Price) * 100 * int64(granted)
	}

	if err := s.orders.CreateWithItems(&order); err != nil {
		return SettlementResult{}, err
	}

	// Reconcile cache and carts per touched product, then drop the buyer's
	// cart without restoring stock: the store decrement already consumed it.
	for _, pid := range touched {
		s.reconcile(pid)
	}
	s.cart.Clear(p.user, false)
	s.PurgeUser(p.user)

	result.OrderID = order.ID
	result.TotalMinor = order.TotalMinor

	metrics.SettlementsTotal.WithLabelValues("ok").Inc()
	logger.Info("checkout: settled", "payload", payload, "order_id", order.ID,
		"user", p.user, "total_minor", order.TotalMinor)
	event.Fire(event.OrderSettled, &order)

	return result, nil
}

// grantLine decrements durable stock for one snapshot line, clamping to what
// is available. Returns the number of units actually granted.
func (s *Checkout) grantLine(line PaymentLine) (int, error) {
	ok, err := s.catalog.DecrementStock(line.ProductID, line.Qty)
	if err != nil {
		return 0, err
	}
	if ok {
		return line.Qty, nil
	}

	// Full quantity unavailable: clamp to the current store stock.
	prod, err := s.catalog.GetProduct(line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // product deleted while payment was in flight
		}
		return 0, err
	}
	if prod.Stock <= 0 {
		return 0, nil
	}
	granted := prod.Stock
	if granted > line.Qty {
		granted = line.Qty
	}
	ok, err = s.catalog.DecrementStock(line.ProductID, granted)
	if err != nil || !ok {
		return 0, err
	}
	return granted, nil
}

// reconcile applies the post-settlement policy for one product: delete
// zero-stock rows when removeOnZero, otherwise refresh the cache snapshot.
func (s *Checkout) reconcile(pid uint) {
	prod, err := s.catalog.GetProduct(pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.cache.DeleteOne(pid)
			s.cart.DropProduct(pid)
		}
		return
	}

	if prod.Stock == 0 && s.removeOnZero {
		if err := s.catalog.DeleteProduct(pid); err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("checkout: remove-on-zero delete failed", "product_id", pid, "err", err)
		}
		s.cache.DeleteOne(pid)
		s.cart.DropProduct(pid)
		event.Fire(event.ProductDeleted, pid)
		return
	}

	if err := s.cache.RefreshOne(s.catalog, pid); err != nil {
		logger.Error("checkout: cache refresh failed", "product_id", pid, "err", err)
	}
}
