package transfer

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"

	"github.com/carid/carid/internal/apperr"
	"github.com/carid/carid/internal/imaging"
	"github.com/carid/carid/internal/model"
	"github.com/carid/carid/internal/store"
)

// MaxDocumentSize is the upload size limit for a single document.
const MaxDocumentSize = 5 << 20 // 5 MB

var pdfMagic = []byte("%PDF-")

// UploadDocument attaches evidence to a transfer. Identity documents are
// restricted to the party they identify; the contract and supporting
// material may come from either party. Photos are normalized, PDFs are
// stored verbatim.
func (s *Service) UploadDocument(ctx context.Context, actor model.Actor, transferID int64, documentType, fileName string, data []byte) (*model.TransferDocument, error) {
	t, err := store.GetTransfer(ctx, s.db, transferID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.New(apperr.CodeNotFound, "transfer not found")
	}
	if t.Terminal() {
		return nil, apperr.Newf(apperr.CodeTransferFinalized,
			"cannot upload documents to a %s transfer", t.Status)
	}
	if !t.Party(actor.ID) && !actor.IsAdmin() {
		return nil, apperr.New(apperr.CodeUnauthorized, "not a party to this transfer")
	}

	if !model.ValidDocumentType(documentType) {
		return nil, apperr.Newf(apperr.CodeValidation, "unknown document type %q", documentType)
	}
	// Identity documents must come from the person they identify, admins
	// included: an admin verifies IDs, they do not produce them.
	switch documentType {
	case model.DocumentSellerID:
		if actor.ID != t.SellerID {
			return nil, apperr.New(apperr.CodeUnauthorized, "only the seller can upload the seller's ID")
		}
	case model.DocumentBuyerID:
		if actor.ID != t.BuyerID {
			return nil, apperr.New(apperr.CodeUnauthorized, "only the buyer can upload the buyer's ID")
		}
	}

	if len(data) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "empty file")
	}
	if len(data) > MaxDocumentSize {
		return nil, apperr.Newf(apperr.CodeValidation, "file exceeds %d MB limit", MaxDocumentSize>>20)
	}

	// PDFs pass through untouched; anything else must be a JPEG/PNG photo,
	// which gets downscaled and re-encoded.
	ext := ".pdf"
	if !bytes.HasPrefix(data, pdfMagic) {
		normalized, err := imaging.Normalize(bytes.NewReader(data))
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeValidation, "only PDF, JPEG and PNG documents are accepted", err)
		}
		data = normalized.Data
		ext = ".jpg"
	}

	url, err := s.files.Save("transfers/"+strconv.FormatInt(t.ID, 10), ext, data)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "storing document failed", err)
	}

	doc, err := store.CreateDocument(ctx, s.db, t.ID, documentType, url, fileName, actor.ID)
	if err != nil {
		// The record is the source of truth; remove the orphaned file.
		if delErr := s.files.Delete(url); delErr != nil {
			slog.Error("orphaned document file left behind", "url", url, "error", delErr)
		}
		return nil, err
	}
	return doc, nil
}

// VerifyDocument flips a document's verification flag. Admin only.
func (s *Service) VerifyDocument(ctx context.Context, actor model.Actor, transferID, documentID int64, verified bool) (*model.TransferDocument, error) {
	if !actor.IsAdmin() {
		return nil, apperr.New(apperr.CodeUnauthorized, "only an administrator can verify documents")
	}

	doc, err := store.GetDocument(ctx, s.db, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.TransferID != transferID {
		return nil, apperr.New(apperr.CodeNotFound, "document not found")
	}

	if err := store.SetDocumentVerification(ctx, s.db, doc.ID, verified, actor.ID); err != nil {
		return nil, err
	}
	return store.GetDocument(ctx, s.db, doc.ID)
}

// ListDocuments returns a transfer's documents, visible to its parties and
// to admins.
func (s *Service) ListDocuments(ctx context.Context, actor model.Actor, transferID int64) ([]model.TransferDocument, error) {
	t, err := store.GetTransfer(ctx, s.db, transferID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.New(apperr.CodeNotFound, "transfer not found")
	}
	if !t.Party(actor.ID) && !actor.IsAdmin() {
		return nil, apperr.New(apperr.CodeUnauthorized, "not a party to this transfer")
	}

	return store.ListDocuments(ctx, s.db, transferID)
}
