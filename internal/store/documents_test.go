package store

import (
	"context"
	"testing"

	"github.com/carid/carid/internal/db"
	"github.com/carid/carid/internal/model"
)

func TestDocumentRequiredFlag(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := seedParties(t, database)
	tr := newTransfer(t, database, p)

	cases := []struct {
		docType  string
		required bool
	}{
		{model.DocumentSellerID, true},
		{model.DocumentBuyerID, true},
		{model.DocumentSaleContract, false},
		{model.DocumentOther, false},
	}

	for _, c := range cases {
		doc, err := CreateDocument(ctx, database, tr.ID, c.docType, "/files/transfers/1/x.jpg", "x.jpg", p.seller.ID)
		if err != nil {
			t.Fatalf("CreateDocument(%s): %v", c.docType, err)
		}
		if doc.IsRequired != c.required {
			t.Errorf("%s: expected required=%v, got %v", c.docType, c.required, doc.IsRequired)
		}
		if doc.IsVerified {
			t.Errorf("%s: new document must not be verified", c.docType)
		}
	}

	docs, err := ListDocuments(ctx, database, tr.ID)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != len(cases) {
		t.Errorf("expected %d documents, got %d", len(cases), len(docs))
	}
}

func TestDocumentVerification(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := seedParties(t, database)
	tr := newTransfer(t, database, p)

	doc, err := CreateDocument(ctx, database, tr.ID, model.DocumentSellerID, "/files/transfers/1/id.jpg", "id.jpg", p.seller.ID)
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if err := SetDocumentVerification(ctx, database, doc.ID, true, p.admin.ID); err != nil {
		t.Fatalf("SetDocumentVerification: %v", err)
	}
	doc, _ = GetDocument(ctx, database, doc.ID)
	if !doc.IsVerified || doc.VerifiedBy == nil || *doc.VerifiedBy != p.admin.ID {
		t.Errorf("verification not recorded: verified=%v by=%v", doc.IsVerified, doc.VerifiedBy)
	}

	// Un-verifying clears the verifier.
	if err := SetDocumentVerification(ctx, database, doc.ID, false, p.admin.ID); err != nil {
		t.Fatalf("SetDocumentVerification(false): %v", err)
	}
	doc, _ = GetDocument(ctx, database, doc.ID)
	if doc.IsVerified || doc.VerifiedBy != nil {
		t.Errorf("un-verification not recorded: verified=%v by=%v", doc.IsVerified, doc.VerifiedBy)
	}
}
