package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carid/carid/internal/apperr"
)

// Transfer represents one ownership-change process for one vehicle. It is
// created by the seller, accepted by the buyer, and finalized by an admin.
// At most one transfer per car may be in a non-terminal status at a time.
type Transfer struct {
	ID              int64           `json:"id"`
	CarID           int64           `json:"car_id"`
	SellerID        int64           `json:"seller_id"`
	BuyerID         int64           `json:"buyer_id"`
	SellerProfileID int64           `json:"seller_profile_id"`
	BuyerProfileID  int64           `json:"buyer_profile_id"`
	Status          string          `json:"status"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	Notes           string          `json:"notes,omitempty"`
	AdminNotes      string          `json:"admin_notes,omitempty"`
	TransferDate    time.Time       `json:"transfer_date"`
	CompletionDate  *time.Time      `json:"completion_date,omitempty"`
	ApprovedByID    *int64          `json:"approved_by_admin_id,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectedByID    *int64          `json:"rejected_by_id,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CancelledByID   *int64          `json:"cancelled_by_id,omitempty"`

	// CancellationReason is authored by whoever cancelled; AdminNotes stays
	// reserved for admin-authored text.
	CancellationReason string `json:"cancellation_reason,omitempty"`

	// Joined fields (not always populated).
	CarPlate    string `json:"car_plate,omitempty"`
	CarMake     string `json:"car_make,omitempty"`
	CarModel    string `json:"car_model,omitempty"`
	SellerName  string `json:"seller_name,omitempty"`
	SellerEmail string `json:"seller_email,omitempty"`
	BuyerName   string `json:"buyer_name,omitempty"`
	BuyerEmail  string `json:"buyer_email,omitempty"`
}

// Transfer statuses. StatusPendingSellerDocuments is part of the persisted
// vocabulary and accepted by listing filters, but the creation path starts
// at StatusPendingBuyerAcceptance and no transition enters it: document
// upload runs in parallel with the acceptance and approval stages.
const (
	StatusPendingSellerDocuments = "pending_seller_documents"
	StatusPendingBuyerAcceptance = "pending_buyer_acceptance"
	StatusPendingAdminApproval   = "pending_admin_approval"
	StatusCompleted              = "completed"
	StatusCancelled              = "cancelled"
	StatusRejected               = "rejected"
)

// ActiveStatuses are the non-terminal statuses. A car with a transfer in any
// of these cannot start another transfer.
var ActiveStatuses = []string{
	StatusPendingSellerDocuments,
	StatusPendingBuyerAcceptance,
	StatusPendingAdminApproval,
}

// ValidStatus checks that status is part of the persisted vocabulary.
func ValidStatus(status string) bool {
	switch status {
	case StatusPendingSellerDocuments, StatusPendingBuyerAcceptance,
		StatusPendingAdminApproval, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Transfer actions.
const (
	ActionBuyerAccept  = "buyer_accept"
	ActionAdminApprove = "admin_approve"
	ActionAdminReject  = "admin_reject"
	ActionCancel       = "cancel"
)

// ValidAction checks that action is one of the known transfer actions.
func ValidAction(action string) bool {
	switch action {
	case ActionBuyerAccept, ActionAdminApprove, ActionAdminReject, ActionCancel:
		return true
	}
	return false
}

// Actor identifies the caller of a transfer operation. Identity is always
// passed in explicitly; the state machine never reads ambient session state.
type Actor struct {
	ID   int64
	Role string
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Terminal reports whether the transfer has reached a final status. Terminal
// transfers accept no further transitions.
func (t *Transfer) Terminal() bool {
	switch t.Status {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Party reports whether userID is the seller or buyer of the transfer.
func (t *Transfer) Party(userID int64) bool {
	return userID == t.SellerID || userID == t.BuyerID
}

// Apply validates action against the transfer's current status and the
// actor's relationship to it, then mutates the transfer in place. It returns
// true when the transition reassigns the car's owner, so that the caller can
// pair the ownership update with the status write in one transaction.
//
// Apply is pure: no I/O, no clock reads, no randomness. Callers supply now.
func (t *Transfer) Apply(action string, actor Actor, notes string, now time.Time) (ownerChanged bool, err error) {
	if t.Terminal() {
		return false, apperr.Newf(apperr.CodeTransferFinalized,
			"transfer is already %s", t.Status)
	}

	switch action {
	case ActionBuyerAccept:
		if actor.ID != t.BuyerID {
			return false, apperr.New(apperr.CodeUnauthorized,
				"only the buyer can accept a transfer")
		}
		if t.Status != StatusPendingBuyerAcceptance {
			return false, apperr.Newf(apperr.CodeInvalidTransition,
				"cannot accept a transfer in status %s", t.Status)
		}
		t.Status = StatusPendingAdminApproval
		return false, nil

	case ActionAdminApprove:
		if !actor.IsAdmin() {
			return false, apperr.New(apperr.CodeUnauthorized,
				"only an administrator can approve a transfer")
		}
		if t.Status != StatusPendingAdminApproval {
			return false, apperr.Newf(apperr.CodeInvalidTransition,
				"cannot approve a transfer in status %s", t.Status)
		}
		t.Status = StatusCompleted
		t.CompletionDate = &now
		t.ApprovedByID = &actor.ID
		if notes != "" {
			t.AdminNotes = notes
		}
		return true, nil

	case ActionAdminReject:
		if !actor.IsAdmin() {
			return false, apperr.New(apperr.CodeUnauthorized,
				"only an administrator can reject a transfer")
		}
		// Rejection is only admissible while awaiting admin approval.
		// Earlier stages are killed via cancel, which keeps attribution right.
		if t.Status != StatusPendingAdminApproval {
			return false, apperr.Newf(apperr.CodeInvalidTransition,
				"cannot reject a transfer in status %s", t.Status)
		}
		t.Status = StatusRejected
		t.RejectedAt = &now
		t.RejectedByID = &actor.ID
		if notes == "" {
			notes = "rejected by administrator"
		}
		t.AdminNotes = notes
		return false, nil

	case ActionCancel:
		if actor.ID != t.SellerID && !actor.IsAdmin() {
			return false, apperr.New(apperr.CodeUnauthorized,
				"only the seller or an administrator can cancel a transfer")
		}
		t.Status = StatusCancelled
		t.CancelledAt = &now
		t.CancelledByID = &actor.ID
		if notes == "" {
			if actor.IsAdmin() {
				notes = "cancelled by administrator"
			} else {
				notes = "cancelled by seller"
			}
		}
		t.CancellationReason = notes
		return false, nil
	}

	return false, apperr.Newf(apperr.CodeValidation, "unknown transfer action %q", action)
}
