package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tienda/internal/domain"
)

// LineDetail is a cart line joined with current catalog data, including the
// tax category the pricing calculator needs.
type LineDetail struct {
	ProductID   string
	ProductName string
	Category    string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// CartRepository mutates and reads the caller's active cart. A user has at
// most one active cart, enforced by a partial unique index; carts are created
// lazily on the first AddLine.
type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// AddLine merges quantity into the user's active cart. The product must exist
// and the merged line quantity must not exceed current stock. Stock itself is
// untouched; it is only decremented at checkout.
func (r *CartRepository) AddLine(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var stock int
	err = tx.QueryRowContext(ctx, `
		SELECT stock FROM products WHERE id = $1
	`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	var cartID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO carts (id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, 'active', NOW(), NOW())
		ON CONFLICT (user_id) WHERE status = 'active'
		DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, uuid.New().String(), userID).Scan(&cartID)
	if err != nil {
		return err
	}

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT quantity FROM cart_lines WHERE cart_id = $1 AND product_id = $2
	`, cartID, productID).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if existing+quantity > stock {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: existing + quantity,
			Available: stock,
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cart_lines (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
	`, uuid.New().String(), cartID, productID, quantity)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveLine deletes a line from the user's cart. Operating on a cart that is
// no longer active is a state error, not a no-op: the cart no longer
// represents pending intent.
func (r *CartRepository) RemoveLine(ctx context.Context, userID, productID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var cartID string
	var status domain.CartStatus
	err = tx.QueryRowContext(ctx, `
		SELECT id, status FROM carts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&cartID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if status != domain.CartStatusActive {
		return domain.ErrInvalidState
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2
	`, cartID, productID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE carts SET updated_at = NOW() WHERE id = $1
	`, cartID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Lines returns the active cart's lines joined with current product data.
// A user without an active cart gets an empty slice. Side-effect free.
func (r *CartRepository) Lines(ctx context.Context, userID string) ([]LineDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.category, p.price, cl.quantity
		FROM carts c
		JOIN cart_lines cl ON cl.cart_id = c.id
		JOIN products p ON p.id = cl.product_id
		WHERE c.user_id = $1 AND c.status = 'active'
		ORDER BY p.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []LineDetail
	for rows.Next() {
		var line LineDetail
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Category, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
