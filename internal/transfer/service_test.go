package transfer

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/carid/carid/internal/apperr"
	"github.com/carid/carid/internal/db"
	"github.com/carid/carid/internal/files"
	"github.com/carid/carid/internal/model"
	"github.com/carid/carid/internal/store"
)

type sentNotification struct {
	recipient string
	kind      string
	payload   map[string]string
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	sent []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, recipient, kind string, payload map[string]string) error {
	n.sent = append(n.sent, sentNotification{recipient, kind, payload})
	return nil
}

// failingNotifier always fails delivery.
type failingNotifier struct{}

func (failingNotifier) Notify(ctx context.Context, recipient, kind string, payload map[string]string) error {
	return errors.New("smtp relay unreachable")
}

type fixture struct {
	db       *sql.DB
	service  *Service
	notifier *recordingNotifier

	seller, buyer, admin model.User
	car                  model.Car
}

func (f *fixture) sellerActor() model.Actor { return model.Actor{ID: f.seller.ID, Role: f.seller.Role} }
func (f *fixture) buyerActor() model.Actor  { return model.Actor{ID: f.buyer.ID, Role: f.buyer.Role} }
func (f *fixture) adminActor() model.Actor  { return model.Actor{ID: f.admin.ID, Role: f.admin.Role} }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	database := db.NewTestDB(t)
	fileStore, err := files.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("files.NewStore: %v", err)
	}
	notifier := &recordingNotifier{}

	f := &fixture{
		db:       database,
		service:  NewService(database, fileStore, notifier),
		notifier: notifier,
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)

	seller, err := store.CreateUser(ctx, database, "seller@example.com", "Seller", string(hash), model.RoleOwner)
	if err != nil {
		t.Fatalf("creating seller: %v", err)
	}
	buyer, err := store.CreateUser(ctx, database, "buyer@example.com", "Buyer", string(hash), model.RoleOwner)
	if err != nil {
		t.Fatalf("creating buyer: %v", err)
	}
	admin, err := store.CreateUser(ctx, database, "admin@example.com", "Admin", string(hash), model.RoleAdmin)
	if err != nil {
		t.Fatalf("creating admin: %v", err)
	}

	if _, err := store.UpsertProfile(ctx, database, seller.ID, "041111222", "P1234567", "Ljubljana"); err != nil {
		t.Fatalf("seller profile: %v", err)
	}
	if _, err := store.UpsertProfile(ctx, database, buyer.ID, "041333444", "P7654321", "Maribor"); err != nil {
		t.Fatalf("buyer profile: %v", err)
	}

	car, err := store.CreateCar(ctx, database, seller.ID, "WVWZZZ1JZXW000001", "LJ-123-AB", "Volkswagen", "Golf", 2019, "grey")
	if err != nil {
		t.Fatalf("creating car: %v", err)
	}

	f.seller, f.buyer, f.admin, f.car = *seller, *buyer, *admin, *car
	return f
}

func (f *fixture) initiate(t *testing.T) *model.Transfer {
	t.Helper()
	tr, err := f.service.Initiate(context.Background(), f.sellerActor(), f.car.ID,
		f.buyer.Email, decimal.NewFromInt(15000000), "serviced at 90k km")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	return tr
}

func TestInitiate(t *testing.T) {
	f := newFixture(t)

	tr := f.initiate(t)

	if tr.Status != model.StatusPendingBuyerAcceptance {
		t.Errorf("expected %s, got %s", model.StatusPendingBuyerAcceptance, tr.Status)
	}
	if tr.SellerID != f.seller.ID || tr.BuyerID != f.buyer.ID {
		t.Error("parties not recorded")
	}
	if tr.SellerProfileID == 0 || tr.BuyerProfileID == 0 {
		t.Error("profile snapshots missing")
	}

	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(f.notifier.sent))
	}
	if got := f.notifier.sent[0]; got.recipient != f.buyer.Email || got.kind != "transfer_initiated" {
		t.Errorf("unexpected notification: %+v", got)
	}
}

func TestInitiateBuyerEmailNormalized(t *testing.T) {
	f := newFixture(t)

	tr, err := f.service.Initiate(context.Background(), f.sellerActor(), f.car.ID,
		"  BUYER@Example.com ", decimal.NewFromInt(100), "")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if tr.BuyerID != f.buyer.ID {
		t.Error("buyer not resolved from normalized email")
	}
}

func TestInitiatePreconditions(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		run  func(t *testing.T, f *fixture) error
		code apperr.Code
	}{
		{"non-positive price", func(t *testing.T, f *fixture) error {
			_, err := f.service.Initiate(ctx, f.sellerActor(), f.car.ID, f.buyer.Email, decimal.Zero, "")
			return err
		}, apperr.CodeValidation},
		{"unknown car", func(t *testing.T, f *fixture) error {
			_, err := f.service.Initiate(ctx, f.sellerActor(), 999, f.buyer.Email, decimal.NewFromInt(1), "")
			return err
		}, apperr.CodeNotFound},
		{"caller does not own car", func(t *testing.T, f *fixture) error {
			_, err := f.service.Initiate(ctx, f.buyerActor(), f.car.ID, f.buyer.Email, decimal.NewFromInt(1), "")
			return err
		}, apperr.CodeUnauthorized},
		{"duplicate active transfer", func(t *testing.T, f *fixture) error {
			f.initiate(t)
			_, err := f.service.Initiate(ctx, f.sellerActor(), f.car.ID, f.buyer.Email, decimal.NewFromInt(1), "")
			return err
		}, apperr.CodeDuplicateActiveTransfer},
		{"unknown buyer email", func(t *testing.T, f *fixture) error {
			_, err := f.service.Initiate(ctx, f.sellerActor(), f.car.ID, "nobody@example.com", decimal.NewFromInt(1), "")
			return err
		}, apperr.CodeNotFound},
		{"buyer is a mechanic", func(t *testing.T, f *fixture) error {
			hash, _ := bcrypt.GenerateFromPassword([]byte("x"), bcrypt.MinCost)
			mech, _ := store.CreateUser(ctx, f.db, "mech@example.com", "Mech", string(hash), model.RoleMechanic)
			store.UpsertProfile(ctx, f.db, mech.ID, "", "M1", "Kranj")
			_, err := f.service.Initiate(ctx, f.sellerActor(), f.car.ID, mech.Email, decimal.NewFromInt(1), "")
			return err
		}, apperr.CodeNotFound},
		{"buyer equals seller", func(t *testing.T, f *fixture) error {
			_, err := f.service.Initiate(ctx, f.sellerActor(), f.car.ID, f.seller.Email, decimal.NewFromInt(1), "")
			return err
		}, apperr.CodeValidation},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			err := c.run(t, f)
			if !apperr.Is(err, c.code) {
				t.Errorf("expected %s, got %v", c.code, err)
			}
		})
	}
}

func TestInitiateProfileGate(t *testing.T) {
	ctx := context.Background()

	t.Run("seller incomplete", func(t *testing.T) {
		f := newFixture(t)
		store.UpsertProfile(ctx, f.db, f.seller.ID, "041", "P1234567", "")

		_, err := f.service.Initiate(ctx, f.sellerActor(), f.car.ID, f.buyer.Email, decimal.NewFromInt(1), "")
		if !apperr.Is(err, apperr.CodeProfileIncomplete) {
			t.Errorf("expected profile_incomplete, got %v", err)
		}
	})

	t.Run("buyer incomplete", func(t *testing.T) {
		f := newFixture(t)
		store.UpsertProfile(ctx, f.db, f.buyer.ID, "041", "", "Maribor")

		_, err := f.service.Initiate(ctx, f.sellerActor(), f.car.ID, f.buyer.Email, decimal.NewFromInt(1), "")
		if !apperr.Is(err, apperr.CodeProfileIncomplete) {
			t.Errorf("expected profile_incomplete, got %v", err)
		}

		// No partial transfer persisted.
		list, _ := store.ListTransfers(ctx, f.db, 0, "")
		if len(list) != 0 {
			t.Errorf("expected no transfers, got %d", len(list))
		}
	})
}

func TestRecordActionFullFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := f.initiate(t)

	accepted, err := f.service.RecordAction(ctx, f.buyerActor(), tr.ID, model.ActionBuyerAccept, "")
	if err != nil {
		t.Fatalf("buyer_accept: %v", err)
	}
	if accepted.Status != model.StatusPendingAdminApproval {
		t.Errorf("expected %s, got %s", model.StatusPendingAdminApproval, accepted.Status)
	}

	completed, err := f.service.RecordAction(ctx, f.adminActor(), tr.ID, model.ActionAdminApprove, "documents verified")
	if err != nil {
		t.Fatalf("admin_approve: %v", err)
	}
	if completed.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}

	car, _ := store.GetCar(ctx, f.db, f.car.ID)
	if car.OwnerID != f.buyer.ID {
		t.Errorf("car owner not reassigned: %d", car.OwnerID)
	}

	// initiated → buyer; accepted → seller; completed → both.
	kinds := map[string]int{}
	for _, n := range f.notifier.sent {
		kinds[n.kind]++
	}
	if kinds["transfer_initiated"] != 1 || kinds["transfer_accepted"] != 1 || kinds["transfer_completed"] != 2 {
		t.Errorf("unexpected notification fan-out: %v", kinds)
	}
}

func TestRecordActionRejectNotifiesSellerWithReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := f.initiate(t)
	f.service.RecordAction(ctx, f.buyerActor(), tr.ID, model.ActionBuyerAccept, "")

	_, err := f.service.RecordAction(ctx, f.adminActor(), tr.ID, model.ActionAdminReject, "seller ID expired")
	if err != nil {
		t.Fatalf("admin_reject: %v", err)
	}

	last := f.notifier.sent[len(f.notifier.sent)-1]
	if last.recipient != f.seller.Email || last.kind != "transfer_rejected" {
		t.Errorf("unexpected notification: %+v", last)
	}
	if last.payload["reason"] != "seller ID expired" {
		t.Errorf("reason not forwarded: %v", last.payload)
	}
}

func TestRecordActionUnknownAction(t *testing.T) {
	f := newFixture(t)
	tr := f.initiate(t)

	_, err := f.service.RecordAction(context.Background(), f.adminActor(), tr.ID, "escalate", "")
	if !apperr.Is(err, apperr.CodeValidation) {
		t.Errorf("expected validation, got %v", err)
	}
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.service.notifier = failingNotifier{}

	tr, err := f.service.Initiate(context.Background(), f.sellerActor(), f.car.ID,
		f.buyer.Email, decimal.NewFromInt(100), "")
	if err != nil {
		t.Fatalf("Initiate must not fail on notification error: %v", err)
	}
	if tr == nil || tr.Status != model.StatusPendingBuyerAcceptance {
		t.Error("transfer not created")
	}
}

func testPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 128, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.initiate(t)

	doc, err := f.service.UploadDocument(ctx, f.sellerActor(), tr.ID,
		model.DocumentSellerID, "osebna.png", testPNG(100, 100))
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if !doc.IsRequired {
		t.Error("seller_id must be a required document")
	}
	if doc.IsVerified {
		t.Error("new document must not be verified")
	}

	// The stored photo is on disk, re-encoded as JPEG.
	diskPath, err := f.service.files.Resolve(doc.FileURL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	data, err := os.ReadFile(diskPath)
	if err != nil {
		t.Fatalf("reading stored document: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\xff\xd8")) {
		t.Error("stored photo is not a JPEG")
	}
}

func TestUploadDocumentPDFPassthrough(t *testing.T) {
	f := newFixture(t)
	tr := f.initiate(t)

	pdf := []byte("%PDF-1.4 fake contract")
	doc, err := f.service.UploadDocument(context.Background(), f.buyerActor(), tr.ID,
		model.DocumentSaleContract, "pogodba.pdf", pdf)
	if err != nil {
		t.Fatalf("UploadDocument(PDF): %v", err)
	}

	diskPath, _ := f.service.files.Resolve(doc.FileURL)
	data, _ := os.ReadFile(diskPath)
	if !bytes.Equal(data, pdf) {
		t.Error("PDF was not stored verbatim")
	}
}

func TestUploadDocumentGating(t *testing.T) {
	ctx := context.Background()

	t.Run("buyer cannot upload seller ID", func(t *testing.T) {
		f := newFixture(t)
		tr := f.initiate(t)
		_, err := f.service.UploadDocument(ctx, f.buyerActor(), tr.ID,
			model.DocumentSellerID, "x.png", testPNG(10, 10))
		if !apperr.Is(err, apperr.CodeUnauthorized) {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})

	t.Run("admin cannot upload identity documents either", func(t *testing.T) {
		f := newFixture(t)
		tr := f.initiate(t)
		for _, docType := range []string{model.DocumentSellerID, model.DocumentBuyerID} {
			_, err := f.service.UploadDocument(ctx, f.adminActor(), tr.ID,
				docType, "x.png", testPNG(10, 10))
			if !apperr.Is(err, apperr.CodeUnauthorized) {
				t.Errorf("%s: expected unauthorized, got %v", docType, err)
			}
		}
	})

	t.Run("stranger cannot upload at all", func(t *testing.T) {
		f := newFixture(t)
		tr := f.initiate(t)
		_, err := f.service.UploadDocument(ctx, model.Actor{ID: 999, Role: model.RoleOwner},
			tr.ID, model.DocumentOther, "x.png", testPNG(10, 10))
		if !apperr.Is(err, apperr.CodeUnauthorized) {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})

	t.Run("terminal transfer refuses uploads", func(t *testing.T) {
		f := newFixture(t)
		tr := f.initiate(t)
		f.service.RecordAction(ctx, f.sellerActor(), tr.ID, model.ActionCancel, "")
		_, err := f.service.UploadDocument(ctx, f.sellerActor(), tr.ID,
			model.DocumentOther, "x.png", testPNG(10, 10))
		if !apperr.Is(err, apperr.CodeTransferFinalized) {
			t.Errorf("expected transfer_finalized, got %v", err)
		}
	})

	t.Run("oversized file rejected", func(t *testing.T) {
		f := newFixture(t)
		tr := f.initiate(t)
		big := make([]byte, MaxDocumentSize+1)
		copy(big, "%PDF-")
		_, err := f.service.UploadDocument(ctx, f.sellerActor(), tr.ID,
			model.DocumentOther, "big.pdf", big)
		if !apperr.Is(err, apperr.CodeValidation) {
			t.Errorf("expected validation, got %v", err)
		}
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		f := newFixture(t)
		tr := f.initiate(t)
		_, err := f.service.UploadDocument(ctx, f.sellerActor(), tr.ID,
			"insurance", "x.png", testPNG(10, 10))
		if !apperr.Is(err, apperr.CodeValidation) {
			t.Errorf("expected validation, got %v", err)
		}
	})
}

func TestVerifyDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.initiate(t)

	doc, err := f.service.UploadDocument(ctx, f.sellerActor(), tr.ID,
		model.DocumentSellerID, "osebna.png", testPNG(10, 10))
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	if _, err := f.service.VerifyDocument(ctx, f.sellerActor(), tr.ID, doc.ID, true); !apperr.Is(err, apperr.CodeUnauthorized) {
		t.Errorf("expected unauthorized for non-admin, got %v", err)
	}

	verified, err := f.service.VerifyDocument(ctx, f.adminActor(), tr.ID, doc.ID, true)
	if err != nil {
		t.Fatalf("VerifyDocument: %v", err)
	}
	if !verified.IsVerified || verified.VerifiedBy == nil || *verified.VerifiedBy != f.admin.ID {
		t.Errorf("verification not recorded: %+v", verified)
	}

	if _, err := f.service.VerifyDocument(ctx, f.adminActor(), tr.ID+1, doc.ID, true); !apperr.Is(err, apperr.CodeNotFound) {
		t.Errorf("expected not_found for wrong transfer, got %v", err)
	}
}
