package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carid/carid/internal/apperr"
)

func testTransfer(status string) *Transfer {
	return &Transfer{
		ID:           1,
		CarID:        10,
		SellerID:     100,
		BuyerID:      200,
		Status:       status,
		SalePrice:    decimal.NewFromInt(15000000),
		TransferDate: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

var (
	seller = Actor{ID: 100, Role: RoleOwner}
	buyer  = Actor{ID: 200, Role: RoleOwner}
	admin  = Actor{ID: 300, Role: RoleAdmin}
	other  = Actor{ID: 400, Role: RoleOwner}
)

func TestBuyerAccept(t *testing.T) {
	now := time.Now()

	tr := testTransfer(StatusPendingBuyerAcceptance)
	ownerChanged, err := tr.Apply(ActionBuyerAccept, buyer, "", now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ownerChanged {
		t.Error("buyer_accept must not change ownership")
	}
	if tr.Status != StatusPendingAdminApproval {
		t.Errorf("expected %s, got %s", StatusPendingAdminApproval, tr.Status)
	}
}

func TestBuyerAcceptByWrongActor(t *testing.T) {
	now := time.Now()

	for _, actor := range []Actor{seller, admin, other} {
		tr := testTransfer(StatusPendingBuyerAcceptance)
		_, err := tr.Apply(ActionBuyerAccept, actor, "", now)
		if !apperr.Is(err, apperr.CodeUnauthorized) {
			t.Errorf("actor %d: expected unauthorized, got %v", actor.ID, err)
		}
		if tr.Status != StatusPendingBuyerAcceptance {
			t.Errorf("actor %d: status mutated to %s", actor.ID, tr.Status)
		}
	}
}

func TestAdminApprove(t *testing.T) {
	now := time.Now()

	tr := testTransfer(StatusPendingAdminApproval)
	ownerChanged, err := tr.Apply(ActionAdminApprove, admin, "all documents in order", now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !ownerChanged {
		t.Error("admin_approve must report an ownership change")
	}
	if tr.Status != StatusCompleted {
		t.Errorf("expected %s, got %s", StatusCompleted, tr.Status)
	}
	if tr.CompletionDate == nil || !tr.CompletionDate.Equal(now) {
		t.Errorf("expected completion date %v, got %v", now, tr.CompletionDate)
	}
	if tr.ApprovedByID == nil || *tr.ApprovedByID != admin.ID {
		t.Errorf("expected approved_by %d, got %v", admin.ID, tr.ApprovedByID)
	}
	if tr.AdminNotes != "all documents in order" {
		t.Errorf("admin notes not persisted: %q", tr.AdminNotes)
	}
}

func TestAdminApproveByNonAdmin(t *testing.T) {
	now := time.Now()

	for _, actor := range []Actor{seller, buyer, other} {
		tr := testTransfer(StatusPendingAdminApproval)
		_, err := tr.Apply(ActionAdminApprove, actor, "", now)
		if !apperr.Is(err, apperr.CodeUnauthorized) {
			t.Errorf("actor %d: expected unauthorized, got %v", actor.ID, err)
		}
	}
}

func TestAdminApproveFromWrongStatus(t *testing.T) {
	tr := testTransfer(StatusPendingBuyerAcceptance)
	_, err := tr.Apply(ActionAdminApprove, admin, "", time.Now())
	if !apperr.Is(err, apperr.CodeInvalidTransition) {
		t.Errorf("expected invalid_transition, got %v", err)
	}
}

func TestAdminReject(t *testing.T) {
	now := time.Now()

	tr := testTransfer(StatusPendingAdminApproval)
	_, err := tr.Apply(ActionAdminReject, admin, "contract does not match seller ID", now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tr.Status != StatusRejected {
		t.Errorf("expected %s, got %s", StatusRejected, tr.Status)
	}
	if tr.RejectedAt == nil || tr.RejectedByID == nil || *tr.RejectedByID != admin.ID {
		t.Errorf("rejection attribution missing: at=%v by=%v", tr.RejectedAt, tr.RejectedByID)
	}
}

func TestAdminRejectOnlyFromAdminApproval(t *testing.T) {
	// Rejecting before the transfer reaches admin review is not allowed;
	// early-stage transfers are killed via cancel instead.
	tr := testTransfer(StatusPendingBuyerAcceptance)
	_, err := tr.Apply(ActionAdminReject, admin, "", time.Now())
	if !apperr.Is(err, apperr.CodeInvalidTransition) {
		t.Errorf("expected invalid_transition, got %v", err)
	}
}

func TestCancelBySeller(t *testing.T) {
	now := time.Now()

	tr := testTransfer(StatusPendingBuyerAcceptance)
	_, err := tr.Apply(ActionCancel, seller, "", now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tr.Status != StatusCancelled {
		t.Errorf("expected %s, got %s", StatusCancelled, tr.Status)
	}
	if tr.CancelledByID == nil || *tr.CancelledByID != seller.ID {
		t.Errorf("expected cancelled_by %d, got %v", seller.ID, tr.CancelledByID)
	}
	if tr.CancellationReason != "cancelled by seller" {
		t.Errorf("expected default cancel reason, got %q", tr.CancellationReason)
	}
	// The reason is the seller's text; it must not masquerade as admin notes.
	if tr.AdminNotes != "" {
		t.Errorf("seller cancel wrote admin notes: %q", tr.AdminNotes)
	}
}

func TestCancelByAdminFromAdminApproval(t *testing.T) {
	tr := testTransfer(StatusPendingAdminApproval)
	_, err := tr.Apply(ActionCancel, admin, "seller requested rollback", time.Now())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tr.CancellationReason != "seller requested rollback" {
		t.Errorf("cancel reason not persisted: %q", tr.CancellationReason)
	}
}

func TestCancelByBuyerRejected(t *testing.T) {
	tr := testTransfer(StatusPendingBuyerAcceptance)
	_, err := tr.Apply(ActionCancel, buyer, "", time.Now())
	if !apperr.Is(err, apperr.CodeUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestTerminalTransfersAreImmutable(t *testing.T) {
	now := time.Now()

	for _, status := range []string{StatusCompleted, StatusCancelled, StatusRejected} {
		for _, action := range []string{ActionBuyerAccept, ActionAdminApprove, ActionAdminReject, ActionCancel} {
			tr := testTransfer(status)
			before := *tr
			_, err := tr.Apply(action, admin, "", now)
			if !apperr.Is(err, apperr.CodeTransferFinalized) {
				t.Errorf("%s/%s: expected transfer_finalized, got %v", status, action, err)
			}
			if *tr != before {
				t.Errorf("%s/%s: terminal transfer mutated", status, action)
			}
		}
	}
}

func TestUnknownAction(t *testing.T) {
	tr := testTransfer(StatusPendingBuyerAcceptance)
	_, err := tr.Apply("escalate", admin, "", time.Now())
	if !apperr.Is(err, apperr.CodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestProfileComplete(t *testing.T) {
	cases := []struct {
		profile  *Profile
		complete bool
	}{
		{nil, false},
		{&Profile{}, false},
		{&Profile{DocumentNumber: "AB1234"}, false},
		{&Profile{City: "Ljubljana"}, false},
		{&Profile{DocumentNumber: "AB1234", City: "Ljubljana"}, true},
	}
	for i, c := range cases {
		if got := c.profile.Complete(); got != c.complete {
			t.Errorf("case %d: expected %v, got %v", i, c.complete, got)
		}
	}
}
