package model

import "time"

// TransferDocument is a piece of evidence attached to a transfer: a party's
// identity document, the sale contract, or supporting material.
type TransferDocument struct {
	ID           int64     `json:"id"`
	TransferID   int64     `json:"transfer_id"`
	DocumentType string    `json:"document_type"`
	FileURL      string    `json:"file_url"`
	FileName     string    `json:"file_name"`
	UploadedBy   int64     `json:"uploaded_by"`
	IsRequired   bool      `json:"is_required"`
	IsVerified   bool      `json:"is_verified"`
	VerifiedBy   *int64    `json:"verified_by,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Document types.
const (
	DocumentSellerID     = "seller_id"
	DocumentBuyerID      = "buyer_id"
	DocumentSaleContract = "sale_contract"
	DocumentOther        = "other"
)

// ValidDocumentType checks that documentType is part of the vocabulary.
func ValidDocumentType(documentType string) bool {
	switch documentType {
	case DocumentSellerID, DocumentBuyerID, DocumentSaleContract, DocumentOther:
		return true
	}
	return false
}

// RequiredDocument reports whether documentType is one of the two identity
// documents. Required documents are surfaced to admins during review but do
// not hard-block stage transitions; admin approval is the actual gate.
func RequiredDocument(documentType string) bool {
	return documentType == DocumentSellerID || documentType == DocumentBuyerID
}
