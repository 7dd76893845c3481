package store

import (
	"context"
	"testing"

	"github.com/carid/carid/internal/db"
)

func TestMessageCursor(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := seedParties(t, database)
	tr := newTransfer(t, database, p)

	first, err := CreateMessage(ctx, database, tr.ID, p.seller.ID, "car is ready for pickup")
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	second, err := CreateMessage(ctx, database, tr.ID, p.buyer.ID, "great, see you tomorrow")
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	all, err := ListMessages(ctx, database, tr.ID, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(all) != 2 || all[0].ID != first.ID || all[1].ID != second.ID {
		t.Errorf("expected both messages oldest-first, got %v", all)
	}
	if all[0].SenderName != "Seller" {
		t.Errorf("expected joined sender name, got %q", all[0].SenderName)
	}

	// Polling after the first message only returns the second.
	tail, err := ListMessages(ctx, database, tr.ID, first.ID)
	if err != nil {
		t.Fatalf("ListMessages(after): %v", err)
	}
	if len(tail) != 1 || tail[0].ID != second.ID {
		t.Errorf("expected only the second message, got %v", tail)
	}
}
