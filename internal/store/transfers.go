package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carid/carid/internal/apperr"
	"github.com/carid/carid/internal/model"
)

// CreateTransfer creates a transfer in pending_buyer_acceptance, checking the
// one-active-transfer-per-car invariant inside the insert transaction. The
// partial unique index on transfers(car_id) backs the same invariant at the
// database level, so two concurrent initiations cannot both commit.
func CreateTransfer(ctx context.Context, db *sql.DB, carID, sellerID, buyerID, sellerProfileID, buyerProfileID int64, salePrice decimal.Decimal, notes string) (*model.Transfer, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers WHERE car_id = ? AND status IN (?, ?, ?)`,
		carID, model.StatusPendingSellerDocuments, model.StatusPendingBuyerAcceptance, model.StatusPendingAdminApproval,
	).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("checking active transfers: %w", err)
	}
	if active > 0 {
		return nil, apperr.New(apperr.CodeDuplicateActiveTransfer,
			"car already has an active transfer")
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (car_id, seller_id, buyer_id, seller_profile_id, buyer_profile_id, status, sale_price, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		carID, sellerID, buyerID, sellerProfileID, buyerProfileID,
		model.StatusPendingBuyerAcceptance, salePrice.String(), notes,
	)
	if err != nil {
		if strings.Contains(err.Error(), "idx_transfers_one_active_per_car") {
			return nil, apperr.New(apperr.CodeDuplicateActiveTransfer,
				"car already has an active transfer")
		}
		return nil, fmt.Errorf("creating transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if strings.Contains(err.Error(), "idx_transfers_one_active_per_car") {
			return nil, apperr.New(apperr.CodeDuplicateActiveTransfer,
				"car already has an active transfer")
		}
		return nil, fmt.Errorf("committing transfer: %w", err)
	}

	transferID, _ := result.LastInsertId()
	return GetTransfer(ctx, db, transferID)
}

// ApplyTransferAction loads the transfer inside a transaction, runs the state
// machine, persists the result, and — when the transition completes the
// transfer — reassigns the car's owner in the same transaction. A crash can
// never leave the car re-owned without a completed transfer or vice versa.
func ApplyTransferAction(ctx context.Context, db *sql.DB, transferID int64, action string, actor model.Actor, notes string, now time.Time) (*model.Transfer, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := getTransferRow(ctx, tx, transferID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.New(apperr.CodeNotFound, "transfer not found")
	}

	prevStatus := t.Status
	ownerChanged, err := t.Apply(action, actor, notes, now)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE transfers SET status = ?, admin_notes = ?, completion_date = ?,
		        approved_by_id = ?, rejected_at = ?, rejected_by_id = ?,
		        cancelled_at = ?, cancelled_by_id = ?, cancellation_reason = ?
		 WHERE id = ? AND status = ?`,
		t.Status, nullString(t.AdminNotes), nullTime(t.CompletionDate),
		t.ApprovedByID, nullTime(t.RejectedAt), t.RejectedByID,
		nullTime(t.CancelledAt), t.CancelledByID, nullString(t.CancellationReason),
		t.ID, prevStatus,
	)
	if err != nil {
		return nil, fmt.Errorf("updating transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking transfer update: %w", err)
	}
	if affected == 0 {
		// Row changed under us; the caller lost the race.
		return nil, apperr.New(apperr.CodeInvalidTransition,
			"transfer status changed concurrently")
	}

	if ownerChanged {
		if _, err := tx.ExecContext(ctx,
			`UPDATE cars SET owner_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			t.BuyerID, t.CarID,
		); err != nil {
			return nil, fmt.Errorf("reassigning car owner: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer action: %w", err)
	}

	return GetTransfer(ctx, db, t.ID)
}

// GetTransfer returns a transfer by ID with car and party fields joined.
func GetTransfer(ctx context.Context, db *sql.DB, id int64) (*model.Transfer, error) {
	row := db.QueryRowContext(ctx, transferSelect+` WHERE t.id = ?`, id)
	t, err := scanTransfer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

// GetActiveTransferByCar returns the car's non-terminal transfer, if any.
func GetActiveTransferByCar(ctx context.Context, db *sql.DB, carID int64) (*model.Transfer, error) {
	row := db.QueryRowContext(ctx,
		transferSelect+` WHERE t.car_id = ? AND t.status IN (?, ?, ?)`,
		carID, model.StatusPendingSellerDocuments, model.StatusPendingBuyerAcceptance, model.StatusPendingAdminApproval,
	)
	t, err := scanTransfer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active transfer: %w", err)
	}
	return t, nil
}

// ListTransfers returns transfers visible to a party, newest first. userID <= 0
// lists all transfers (admin view). An empty status means no status filter.
func ListTransfers(ctx context.Context, db *sql.DB, userID int64, status string) ([]model.Transfer, error) {
	query := transferSelect + ` WHERE 1=1`
	var args []any

	if userID > 0 {
		query += ` AND (t.seller_id = ? OR t.buyer_id = ?)`
		args = append(args, userID, userID)
	}
	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY t.transfer_date DESC, t.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

const transferSelect = `
	SELECT t.id, t.car_id, t.seller_id, t.buyer_id, t.seller_profile_id, t.buyer_profile_id,
	       t.status, t.sale_price, t.notes, t.admin_notes, t.transfer_date, t.completion_date,
	       t.approved_by_id, t.rejected_at, t.rejected_by_id, t.cancelled_at, t.cancelled_by_id,
	       t.cancellation_reason,
	       c.plate AS car_plate, c.make AS car_make, c.model AS car_model,
	       s.name AS seller_name, s.email AS seller_email,
	       b.name AS buyer_name, b.email AS buyer_email
	FROM transfers t
	JOIN cars c ON c.id = t.car_id
	JOIN users s ON s.id = t.seller_id
	JOIN users b ON b.id = t.buyer_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*model.Transfer, error) {
	t := &model.Transfer{}
	var price string
	var notes, adminNotes, cancelReason sql.NullString
	var completion, rejectedAt, cancelledAt sql.NullTime
	err := row.Scan(&t.ID, &t.CarID, &t.SellerID, &t.BuyerID, &t.SellerProfileID, &t.BuyerProfileID,
		&t.Status, &price, &notes, &adminNotes, &t.TransferDate, &completion,
		&t.ApprovedByID, &rejectedAt, &t.RejectedByID, &cancelledAt, &t.CancelledByID,
		&cancelReason,
		&t.CarPlate, &t.CarMake, &t.CarModel,
		&t.SellerName, &t.SellerEmail, &t.BuyerName, &t.BuyerEmail)
	if err != nil {
		return nil, err
	}

	t.SalePrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parsing sale price %q: %w", price, err)
	}
	t.Notes = notes.String
	t.AdminNotes = adminNotes.String
	t.CancellationReason = cancelReason.String
	if completion.Valid {
		t.CompletionDate = &completion.Time
	}
	if rejectedAt.Valid {
		t.RejectedAt = &rejectedAt.Time
	}
	if cancelledAt.Valid {
		t.CancelledAt = &cancelledAt.Time
	}
	return t, nil
}

// getTransferRow reads the bare transfer row inside a transaction, without
// the listing joins.
func getTransferRow(ctx context.Context, tx *sql.Tx, id int64) (*model.Transfer, error) {
	t := &model.Transfer{}
	var price string
	var notes, adminNotes, cancelReason sql.NullString
	var completion, rejectedAt, cancelledAt sql.NullTime
	err := tx.QueryRowContext(ctx,
		`SELECT id, car_id, seller_id, buyer_id, seller_profile_id, buyer_profile_id,
		        status, sale_price, notes, admin_notes, transfer_date, completion_date,
		        approved_by_id, rejected_at, rejected_by_id, cancelled_at, cancelled_by_id,
		        cancellation_reason
		 FROM transfers WHERE id = ?`, id,
	).Scan(&t.ID, &t.CarID, &t.SellerID, &t.BuyerID, &t.SellerProfileID, &t.BuyerProfileID,
		&t.Status, &price, &notes, &adminNotes, &t.TransferDate, &completion,
		&t.ApprovedByID, &rejectedAt, &t.RejectedByID, &cancelledAt, &t.CancelledByID,
		&cancelReason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading transfer: %w", err)
	}

	t.SalePrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parsing sale price %q: %w", price, err)
	}
	t.Notes = notes.String
	t.AdminNotes = adminNotes.String
	t.CancellationReason = cancelReason.String
	if completion.Valid {
		t.CompletionDate = &completion.Time
	}
	if rejectedAt.Valid {
		t.RejectedAt = &rejectedAt.Time
	}
	if cancelledAt.Valid {
		t.CancelledAt = &cancelledAt.Time
	}
	return t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
