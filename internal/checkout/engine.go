package checkout

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"tienda/internal/domain"
	"tienda/internal/pricing"
)

var tracer = otel.Tracer("checkout")

// Engine converts an active, non-empty cart into an immutable order in one
// transaction: stock is re-validated and decremented, prices are computed,
// line items are snapshotted by value and the cart is finalized. Either every
// step takes effect or none does.
type Engine struct {
	db      *sql.DB
	pricing pricing.Config
	metrics *engineMetrics
}

func NewEngine(db *sql.DB, cfg pricing.Config) (*Engine, error) {
	m, err := newEngineMetrics()
	if err != nil {
		return nil, err
	}
	return &Engine{db: db, pricing: cfg, metrics: m}, nil
}

type cartLine struct {
	productID   string
	productName string
	category    string
	unitPrice   decimal.Decimal
	stock       int
	quantity    int
}

func (e *Engine) Checkout(ctx context.Context, userID, shipAddress, paymentToken string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout")
	defer span.End()

	order, err := e.checkout(ctx, userID, shipAddress, paymentToken)
	if err != nil {
		if !isBusinessError(err) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	e.metrics.recordOrder(ctx, order)

	return order, nil
}

func (e *Engine) checkout(ctx context.Context, userID, shipAddress, paymentToken string) (*domain.Order, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var cartID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM carts
		WHERE user_id = $1 AND status = 'active'
		FOR UPDATE
	`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEmptyCart
		}
		return nil, err
	}

	// Lock product rows in id order so concurrent multi-line checkouts cannot
	// deadlock each other.
	rows, err := tx.QueryContext(ctx, `
		SELECT p.id, p.name, p.category, p.price, p.stock, cl.quantity
		FROM cart_lines cl
		JOIN products p ON p.id = cl.product_id
		WHERE cl.cart_id = $1
		ORDER BY p.id
		FOR UPDATE OF p
	`, cartID)
	if err != nil {
		return nil, err
	}

	var lines []cartLine
	for rows.Next() {
		var line cartLine
		if err := rows.Scan(&line.productID, &line.productName, &line.category, &line.unitPrice, &line.stock, &line.quantity); err != nil {
			_ = rows.Close()
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Stock may have changed since the lines were added; re-validate at
	// commit time, under the row locks taken above.
	for _, line := range lines {
		if line.stock < line.quantity {
			return nil, &domain.InsufficientStockError{
				ProductID: line.productID,
				Requested: line.quantity,
				Available: line.stock,
			}
		}
	}

	if err := domain.ValidateShipAddress(shipAddress); err != nil {
		return nil, err
	}
	if err := domain.ValidatePaymentToken(paymentToken); err != nil {
		return nil, err
	}

	// The conditional update is the authoritative guard against the stock
	// race: decrement and check are one atomic read-modify-write.
	for _, line := range lines {
		result, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $2
			WHERE id = $1 AND stock >= $2
		`, line.productID, line.quantity)
		if err != nil {
			return nil, err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rowsAffected == 0 {
			return nil, &domain.InsufficientStockError{
				ProductID: line.productID,
				Requested: line.quantity,
				Available: line.stock,
			}
		}
	}

	items := make([]pricing.Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, pricing.Item{
			UnitPrice: line.unitPrice,
			Category:  line.category,
			Quantity:  line.quantity,
		})
	}
	quote := pricing.Calculate(e.pricing, items)

	order := &domain.Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		ShipAddress:   shipAddress,
		PaymentMasked: domain.MaskPaymentToken(paymentToken),
		Subtotal:      quote.Subtotal,
		Tax:           quote.Tax,
		Shipping:      quote.Shipping,
		Total:         quote.Total,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, ship_address, payment_masked, subtotal, tax, shipping, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, order.ID, order.UserID, order.ShipAddress, order.PaymentMasked,
		order.Subtotal, order.Tax, order.Shipping, order.Total, order.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		orderLine := domain.OrderLine{
			ProductID:   line.productID,
			ProductName: line.productName,
			UnitPrice:   line.unitPrice,
			Quantity:    line.quantity,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, product_name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New().String(), order.ID, orderLine.ProductID, orderLine.ProductName, orderLine.UnitPrice, orderLine.Quantity)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, orderLine)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE carts SET status = 'finalized', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, cartID)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, domain.ErrInvalidState
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return order, nil
}

func isBusinessError(err error) bool {
	var stockErr *domain.InsufficientStockError
	var validationErr *domain.ValidationError
	return errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrInvalidState) ||
		errors.As(err, &stockErr) ||
		errors.As(err, &validationErr)
}
