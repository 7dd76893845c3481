package store

import (
	"context"
	"testing"

	"github.com/carid/carid/internal/db"
)

func TestFindCarByPlateOrVIN(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := seedParties(t, database)

	byPlate, err := FindCar(ctx, database, p.car.Plate)
	if err != nil {
		t.Fatalf("FindCar(plate): %v", err)
	}
	if byPlate == nil || byPlate.ID != p.car.ID {
		t.Error("car not found by plate")
	}

	byVIN, err := FindCar(ctx, database, p.car.VIN)
	if err != nil {
		t.Fatalf("FindCar(vin): %v", err)
	}
	if byVIN == nil || byVIN.ID != p.car.ID {
		t.Error("car not found by VIN")
	}

	missing, err := FindCar(ctx, database, "XX-000-XX")
	if err != nil {
		t.Fatalf("FindCar(missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown plate")
	}
}

func TestDeleteCarWithActiveTransfer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := seedParties(t, database)
	newTransfer(t, database, p)

	if err := DeleteCar(ctx, database, p.car.ID); err == nil {
		t.Error("expected error deleting a car with an active transfer")
	}

	car, _ := GetCar(ctx, database, p.car.ID)
	if car.DeletedAt != nil {
		t.Error("car was soft-deleted despite active transfer")
	}
}

func TestListCarsByOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := seedParties(t, database)

	if _, err := CreateCar(ctx, database, p.buyer.ID, "WVWZZZ1JZXW000002", "MB-456-CD", "Renault", "Clio", 2021, "red"); err != nil {
		t.Fatalf("CreateCar: %v", err)
	}

	mine, err := ListCars(ctx, database, p.seller.ID)
	if err != nil {
		t.Fatalf("ListCars(owner): %v", err)
	}
	if len(mine) != 1 || mine[0].OwnerID != p.seller.ID {
		t.Errorf("expected 1 car for seller, got %d", len(mine))
	}

	all, err := ListCars(ctx, database, 0)
	if err != nil {
		t.Fatalf("ListCars(all): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 cars total, got %d", len(all))
	}
}
