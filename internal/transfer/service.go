// Package transfer orchestrates the vehicle ownership transfer workflow:
// initiation preconditions, state transitions, document gating, and the
// best-effort notifications that follow a committed transition.
package transfer

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carid/carid/internal/apperr"
	"github.com/carid/carid/internal/files"
	"github.com/carid/carid/internal/model"
	"github.com/carid/carid/internal/notify"
	"github.com/carid/carid/internal/store"
)

// Service is the single entry point for transfer lifecycle operations.
type Service struct {
	db       *sql.DB
	files    *files.Store
	notifier notify.Notifier
}

// NewService wires the transfer workflow to its collaborators.
func NewService(db *sql.DB, fileStore *files.Store, notifier notify.Notifier) *Service {
	return &Service{db: db, files: fileStore, notifier: notifier}
}

// Initiate starts a transfer of the actor's car to the user registered under
// buyerEmail. Preconditions are checked in a fixed order and the first
// failure wins; nothing is persisted unless all of them pass.
func (s *Service) Initiate(ctx context.Context, actor model.Actor, carID int64, buyerEmail string, salePrice decimal.Decimal, notes string) (*model.Transfer, error) {
	if !salePrice.IsPositive() {
		return nil, apperr.New(apperr.CodeValidation, "sale price must be positive")
	}

	car, err := store.GetCar(ctx, s.db, carID)
	if err != nil {
		return nil, err
	}
	if car == nil || car.DeletedAt != nil {
		return nil, apperr.New(apperr.CodeNotFound, "car not found")
	}
	if car.OwnerID != actor.ID {
		return nil, apperr.New(apperr.CodeUnauthorized, "only the car's owner can initiate a transfer")
	}

	active, err := store.GetActiveTransferByCar(ctx, s.db, carID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperr.New(apperr.CodeDuplicateActiveTransfer, "car already has an active transfer")
	}

	buyer, err := store.GetUserByEmail(ctx, s.db, buyerEmail)
	if err != nil {
		return nil, err
	}
	if buyer == nil || buyer.DeletedAt != nil || buyer.Role != model.RoleOwner {
		return nil, apperr.New(apperr.CodeNotFound, "no registered owner with that email")
	}
	if buyer.ID == actor.ID {
		return nil, apperr.New(apperr.CodeValidation, "buyer and seller must be different users")
	}

	sellerProfile, err := store.GetProfileByUser(ctx, s.db, actor.ID)
	if err != nil {
		return nil, err
	}
	if !sellerProfile.Complete() {
		return nil, apperr.New(apperr.CodeProfileIncomplete, "seller profile is missing document number or city")
	}

	buyerProfile, err := store.GetProfileByUser(ctx, s.db, buyer.ID)
	if err != nil {
		return nil, err
	}
	if !buyerProfile.Complete() {
		return nil, apperr.New(apperr.CodeProfileIncomplete, "buyer profile is missing document number or city")
	}

	t, err := store.CreateTransfer(ctx, s.db, carID, actor.ID, buyer.ID,
		sellerProfile.ID, buyerProfile.ID, salePrice, notes)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, buyer.Email, notify.KindTransferInitiated, map[string]string{
		"car":    t.CarMake + " " + t.CarModel + " (" + t.CarPlate + ")",
		"price":  t.SalePrice.String(),
		"seller": t.SellerName,
	})

	return t, nil
}

// RecordAction applies a transfer action on behalf of the actor and, after
// the transition has committed, notifies the relevant counterparts.
func (s *Service) RecordAction(ctx context.Context, actor model.Actor, transferID int64, action, notes string) (*model.Transfer, error) {
	if !model.ValidAction(action) {
		return nil, apperr.Newf(apperr.CodeValidation, "unknown transfer action %q", action)
	}

	t, err := store.ApplyTransferAction(ctx, s.db, transferID, action, actor, notes, time.Now())
	if err != nil {
		return nil, err
	}

	car := t.CarMake + " " + t.CarModel + " (" + t.CarPlate + ")"
	switch t.Status {
	case model.StatusPendingAdminApproval:
		s.notify(ctx, t.SellerEmail, notify.KindTransferAccepted, map[string]string{
			"car": car, "buyer": t.BuyerName,
		})
	case model.StatusCompleted:
		payload := map[string]string{"car": car, "price": t.SalePrice.String()}
		s.notify(ctx, t.SellerEmail, notify.KindTransferCompleted, payload)
		s.notify(ctx, t.BuyerEmail, notify.KindTransferCompleted, payload)
	case model.StatusRejected:
		s.notify(ctx, t.SellerEmail, notify.KindTransferRejected, map[string]string{
			"car": car, "reason": t.AdminNotes,
		})
	case model.StatusCancelled:
		s.notify(ctx, t.SellerEmail, notify.KindTransferCancelled, map[string]string{
			"car": car, "reason": t.CancellationReason,
		})
	}

	return t, nil
}

// notify delivers best-effort: a failed notification is logged and swallowed,
// the committed transition is the source of truth.
func (s *Service) notify(ctx context.Context, recipient, kind string, payload map[string]string) {
	if err := s.notifier.Notify(ctx, recipient, kind, payload); err != nil {
		slog.Error("notification failed", "recipient", recipient, "kind", kind, "error", err)
	}
}
