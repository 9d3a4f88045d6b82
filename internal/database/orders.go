package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"artprint-backend/internal/models"
)

const orderColumns = `id, created_at, updated_at, status, artwork_id, payment_session_id,
	customer_email, shipping_json, pod_provider, pod_order_id, tracking_json, last_error`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt, &o.Status, &o.ArtworkID, &o.PaymentSessionID,
		&o.CustomerEmail, &o.ShippingJSON, &o.PODProvider, &o.PODOrderID, &o.TrackingJSON, &o.LastError)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DatabaseClient) CreateOrder(ctx context.Context, id, artworkID string) (*models.Order, error) {
	now := d.now()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO orders (id, created_at, updated_at, status, artwork_id)
		VALUES ($1, $2, $2, $3, $4)
	`, id, now, string(models.OrderStatusDraft), artworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return d.GetOrder(ctx, id)
}

func (d *DatabaseClient) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// SetPaymentSession records the checkout session on a DRAFT order.
func (d *DatabaseClient) SetPaymentSession(ctx context.Context, id, sessionID string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE orders SET payment_session_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'DRAFT'
	`, id, sessionID, d.now())
	if err != nil {
		return fmt.Errorf("failed to set payment session: %w", err)
	}
	return nil
}

// MarkPaid moves a DRAFT order to PAID and records the buyer details. It
// reports false when the order was not in DRAFT, which is how duplicate or
// late payment events are recognised.
func (d *DatabaseClient) MarkPaid(ctx context.Context, id, email, shippingJSON, sessionID string) (bool, error) {
	return d.cas(ctx, "mark order paid", `
		UPDATE orders
		SET status = 'PAID', customer_email = $2, shipping_json = $3,
			payment_session_id = COALESCE($4, payment_session_id), updated_at = $5
		WHERE id = $1 AND status = 'DRAFT'
	`, id, nullString(email), nullString(shippingJSON), nullString(sessionID), d.now())
}

// ClaimFulfillment takes the exclusive right to submit the order. It succeeds
// only from PAID or FAILED and only when no other attempt holds a live claim;
// claims older than staleBefore are taken over. On success the order is PAID
// with last_error cleared.
func (d *DatabaseClient) ClaimFulfillment(ctx context.Context, id, token string, staleBefore time.Time) (bool, error) {
	return d.cas(ctx, "claim order", `
		UPDATE orders
		SET status = 'PAID', last_error = NULL, claim_token = $2, claimed_at = $3, updated_at = $3
		WHERE id = $1 AND status IN ('PAID', 'FAILED')
			AND (claim_token IS NULL OR claimed_at < $4)
	`, id, token, d.now(), staleBefore.UTC())
}

// CompleteSubmission records the provider order and moves PAID to SUBMITTED.
// It requires the caller to still hold the claim.
func (d *DatabaseClient) CompleteSubmission(ctx context.Context, id, token, provider, podOrderID string) (bool, error) {
	return d.cas(ctx, "complete submission", `
		UPDATE orders
		SET status = 'SUBMITTED', pod_provider = $3, pod_order_id = $4, last_error = NULL,
			claim_token = NULL, claimed_at = NULL, updated_at = $5
		WHERE id = $1 AND status = 'PAID' AND claim_token = $2
	`, id, token, provider, nullString(podOrderID), d.now())
}

// FailSubmission moves PAID to FAILED with the error text. It requires the
// caller to still hold the claim.
func (d *DatabaseClient) FailSubmission(ctx context.Context, id, token, provider, message string) (bool, error) {
	return d.cas(ctx, "fail submission", `
		UPDATE orders
		SET status = 'FAILED', pod_provider = $3, last_error = $4,
			claim_token = NULL, claimed_at = NULL, updated_at = $5
		WHERE id = $1 AND status = 'PAID' AND claim_token = $2
	`, id, token, provider, message, d.now())
}

// ReleaseClaim drops the claim without changing status.
func (d *DatabaseClient) ReleaseClaim(ctx context.Context, id, token, provider string) (bool, error) {
	return d.cas(ctx, "release claim", `
		UPDATE orders
		SET pod_provider = $3, claim_token = NULL, claimed_at = NULL, updated_at = $4
		WHERE id = $1 AND claim_token = $2
	`, id, token, provider, d.now())
}

// ApplyProviderStatus applies a provider-reported status to the order with the
// given external id. Only forward transitions are applied: SHIPPED from
// SUBMITTED, CANCELED from PAID or SUBMITTED, and SUBMITTED as a touch on
// SUBMITTED. It returns the number of orders changed; zero is not an error.
func (d *DatabaseClient) ApplyProviderStatus(ctx context.Context, provider, podOrderID string, status models.OrderStatus, trackingJSON string) (int64, error) {
	var query string
	switch status {
	case models.OrderStatusShipped:
		query = `
			UPDATE orders SET status = 'SHIPPED', tracking_json = COALESCE($3, tracking_json), updated_at = $4
			WHERE pod_provider = $1 AND pod_order_id = $2 AND status = 'SUBMITTED'`
	case models.OrderStatusCanceled:
		query = `
			UPDATE orders SET status = 'CANCELED', tracking_json = COALESCE($3, tracking_json), updated_at = $4
			WHERE pod_provider = $1 AND pod_order_id = $2 AND status IN ('PAID', 'SUBMITTED')`
	case models.OrderStatusSubmitted:
		query = `
			UPDATE orders SET tracking_json = COALESCE($3, tracking_json), updated_at = $4
			WHERE pod_provider = $1 AND pod_order_id = $2 AND status = 'SUBMITTED'`
	default:
		return 0, fmt.Errorf("unsupported provider status %s", status)
	}

	res, err := d.db.ExecContext(ctx, query, provider, podOrderID, nullString(trackingJSON), d.now())
	if err != nil {
		return 0, fmt.Errorf("failed to apply provider status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to apply provider status: %w", err)
	}
	return n, nil
}

// CancelOrder moves PAID or SUBMITTED to CANCELED. A PAID order whose
// fulfillment claim is newer than staleBefore is left alone, since that
// attempt may already have created a provider order.
func (d *DatabaseClient) CancelOrder(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	return d.cas(ctx, "cancel order", `
		UPDATE orders SET status = 'CANCELED', claim_token = NULL, claimed_at = NULL, updated_at = $2
		WHERE id = $1 AND (status = 'SUBMITTED'
			OR (status = 'PAID' AND (claim_token IS NULL OR claimed_at < $3)))
	`, id, d.now(), staleBefore.UTC())
}

// PatchOrder applies an admin edit and returns the updated order together
// with the status it had before.
func (d *DatabaseClient) PatchOrder(ctx context.Context, id string, patch models.OrderPatch) (*models.Order, models.OrderStatus, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var previous models.OrderStatus
	err = tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1", id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read order: %w", err)
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.PODProvider != nil {
		add("pod_provider", nullString(*patch.PODProvider))
	}
	if patch.PODOrderID != nil {
		add("pod_order_id", nullString(*patch.PODOrderID))
	}
	if patch.LastError != nil {
		add("last_error", nullString(*patch.LastError))
	}
	if patch.CustomerEmail != nil {
		add("customer_email", nullString(*patch.CustomerEmail))
	}
	if patch.ShippingJSON != nil {
		add("shipping_json", nullString(*patch.ShippingJSON))
	}
	add("updated_at", d.now())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, "", fmt.Errorf("failed to patch order: %w", err)
	}

	order, err := scanOrder(tx.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read patched order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("failed to commit order patch: %w", err)
	}
	return order, previous, nil
}

// ListOrders returns a page of orders, newest first, and the total matching
// the filter.
func (d *DatabaseClient) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	where := ""
	var args []any
	if filter.Status != nil {
		where = " WHERE status = $1"
		args = append(args, string(*filter.Status))
	}

	var total int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		orderColumns, where, len(args)+1, len(args)+2)
	rows, err := d.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// CountOrdersByStatus returns per-status counts. Every status is present.
func (d *DatabaseClient) CountOrdersByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	counts := make(map[models.OrderStatus]int, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		counts[s] = 0
	}

	rows, err := d.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan order count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	return counts, nil
}

func (d *DatabaseClient) cas(ctx context.Context, op, query string, args ...any) (bool, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", op, err)
	}
	return n == 1, nil
}
