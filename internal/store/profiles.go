package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carid/carid/internal/model"
)

// GetProfileByUser returns a user's profile, or nil if none exists yet.
func GetProfileByUser(ctx context.Context, db *sql.DB, userID int64) (*model.Profile, error) {
	p := &model.Profile{}
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, phone, document_number, city, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.ID, &p.UserID, &p.Phone, &p.DocumentNumber, &p.City, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// UpsertProfile creates or replaces a user's profile fields.
func UpsertProfile(ctx context.Context, db *sql.DB, userID int64, phone, documentNumber, city string) (*model.Profile, error) {
	_, err := db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, phone, document_number, city)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     phone = excluded.phone,
		     document_number = excluded.document_number,
		     city = excluded.city,
		     updated_at = CURRENT_TIMESTAMP`,
		userID, phone, documentNumber, city,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting profile: %w", err)
	}

	return GetProfileByUser(ctx, db, userID)
}
