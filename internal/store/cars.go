package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carid/carid/internal/model"
)

// CreateCar registers a new car for an owner.
func CreateCar(ctx context.Context, db *sql.DB, ownerID int64, vin, plate, make, carModel string, year int, color string) (*model.Car, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO cars (owner_id, vin, plate, make, model, year, color)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ownerID, vin, plate, make, carModel, year, color,
	)
	if err != nil {
		return nil, fmt.Errorf("creating car: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting car id: %w", err)
	}

	return GetCar(ctx, db, id)
}

// GetCar returns a car by ID.
func GetCar(ctx context.Context, db *sql.DB, id int64) (*model.Car, error) {
	c := &model.Car{}
	var year sql.NullInt64
	var color sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT c.id, c.owner_id, c.vin, c.plate, c.make, c.model, c.year, c.color,
		        c.created_at, c.updated_at, c.deleted_at, u.name AS owner_name
		 FROM cars c
		 JOIN users u ON u.id = c.owner_id
		 WHERE c.id = ?`, id,
	).Scan(&c.ID, &c.OwnerID, &c.VIN, &c.Plate, &c.Make, &c.Model, &year, &color,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt, &c.OwnerName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting car: %w", err)
	}
	c.Year = int(year.Int64)
	c.Color = color.String
	return c, nil
}

// FindCar returns a non-deleted car by plate or VIN (exact match), used by
// mechanics looking up a vehicle they are servicing.
func FindCar(ctx context.Context, db *sql.DB, plateOrVIN string) (*model.Car, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM cars WHERE deleted_at IS NULL AND (plate = ? OR vin = ?)`,
		plateOrVIN, plateOrVIN,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding car: %w", err)
	}
	return GetCar(ctx, db, id)
}

// ListCars returns non-deleted cars, optionally restricted to one owner.
// ownerID <= 0 lists all cars (admin view).
func ListCars(ctx context.Context, db *sql.DB, ownerID int64) ([]model.Car, error) {
	query := `SELECT c.id, c.owner_id, c.vin, c.plate, c.make, c.model, c.year, c.color,
	                 c.created_at, c.updated_at, c.deleted_at, u.name AS owner_name
	          FROM cars c
	          JOIN users u ON u.id = c.owner_id
	          WHERE c.deleted_at IS NULL`
	var args []any

	if ownerID > 0 {
		query += ` AND c.owner_id = ?`
		args = append(args, ownerID)
	}

	query += ` ORDER BY c.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing cars: %w", err)
	}
	defer rows.Close()

	var cars []model.Car
	for rows.Next() {
		var c model.Car
		var year sql.NullInt64
		var color sql.NullString
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.VIN, &c.Plate, &c.Make, &c.Model, &year, &color,
			&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt, &c.OwnerName); err != nil {
			return nil, fmt.Errorf("scanning car: %w", err)
		}
		c.Year = int(year.Int64)
		c.Color = color.String
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

// UpdateCar updates a car's descriptive fields. Ownership is not touched
// here: owner_id changes only through a completed transfer.
func UpdateCar(ctx context.Context, db *sql.DB, id int64, plate, make, carModel string, year int, color string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE cars SET plate = ?, make = ?, model = ?, year = ?, color = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		plate, make, carModel, year, color, id,
	)
	if err != nil {
		return fmt.Errorf("updating car: %w", err)
	}
	return nil
}

// DeleteCar soft-deletes a car. Fails if the car has an active transfer.
func DeleteCar(ctx context.Context, db *sql.DB, id int64) error {
	var active int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers WHERE car_id = ? AND status IN (?, ?, ?)`,
		id, model.StatusPendingSellerDocuments, model.StatusPendingBuyerAcceptance, model.StatusPendingAdminApproval,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("checking car transfers: %w", err)
	}
	if active > 0 {
		return fmt.Errorf("car has an active transfer")
	}

	_, err = db.ExecContext(ctx,
		`UPDATE cars SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting car: %w", err)
	}
	return nil
}
