package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carid/carid/internal/model"
)

// CreateDocument records an uploaded transfer document. The required flag is
// derived from the document type.
func CreateDocument(ctx context.Context, db *sql.DB, transferID int64, documentType, fileURL, fileName string, uploadedBy int64) (*model.TransferDocument, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO transfer_documents (transfer_id, document_type, file_url, file_name, uploaded_by, is_required)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		transferID, documentType, fileURL, fileName, uploadedBy, model.RequiredDocument(documentType),
	)
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting document id: %w", err)
	}

	return GetDocument(ctx, db, id)
}

// GetDocument returns a transfer document by ID.
func GetDocument(ctx context.Context, db *sql.DB, id int64) (*model.TransferDocument, error) {
	d := &model.TransferDocument{}
	err := db.QueryRowContext(ctx,
		`SELECT id, transfer_id, document_type, file_url, file_name, uploaded_by,
		        is_required, is_verified, verified_by, uploaded_at
		 FROM transfer_documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.TransferID, &d.DocumentType, &d.FileURL, &d.FileName, &d.UploadedBy,
		&d.IsRequired, &d.IsVerified, &d.VerifiedBy, &d.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return d, nil
}

// ListDocuments returns all documents attached to a transfer.
func ListDocuments(ctx context.Context, db *sql.DB, transferID int64) ([]model.TransferDocument, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, transfer_id, document_type, file_url, file_name, uploaded_by,
		        is_required, is_verified, verified_by, uploaded_at
		 FROM transfer_documents WHERE transfer_id = ? ORDER BY uploaded_at, id`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []model.TransferDocument
	for rows.Next() {
		var d model.TransferDocument
		if err := rows.Scan(&d.ID, &d.TransferID, &d.DocumentType, &d.FileURL, &d.FileName, &d.UploadedBy,
			&d.IsRequired, &d.IsVerified, &d.VerifiedBy, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// SetDocumentVerification flips a document's verification flag. Clearing the
// flag also clears the verifier attribution.
func SetDocumentVerification(ctx context.Context, db *sql.DB, id int64, verified bool, verifiedBy int64) error {
	var by any
	if verified {
		by = verifiedBy
	}
	_, err := db.ExecContext(ctx,
		`UPDATE transfer_documents SET is_verified = ?, verified_by = ? WHERE id = ?`,
		verified, by, id,
	)
	if err != nil {
		return fmt.Errorf("updating document verification: %w", err)
	}
	return nil
}
