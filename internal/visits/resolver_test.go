package visits

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
)

func TestResolveSyncState(t *testing.T) {
	clinic := &models.Clinic{
		SyncVisitFee:  decimal.RequireFromString("45.00"),
		AsyncVisitFee: decimal.RequireFromString("20.00"),
	}
	res, err := Resolve("DC", clinic)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if res.Type != enums.VisitTypeSync {
		t.Fatalf("expected sync visit, got %s", res.Type)
	}
	if !res.Fee.Equal(decimal.RequireFromString("45.00")) {
		t.Fatalf("unexpected fee %s", res.Fee)
	}
}

func TestResolveAsyncState(t *testing.T) {
	clinic := &models.Clinic{
		SyncVisitFee:  decimal.RequireFromString("45.00"),
		AsyncVisitFee: decimal.RequireFromString("20.00"),
	}
	res, err := Resolve("CA", clinic)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if res.Type != enums.VisitTypeAsync {
		t.Fatalf("expected async visit, got %s", res.Type)
	}
}

func TestResolveWithoutClinic(t *testing.T) {
	res, err := Resolve("CA", nil)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if res.Type != enums.VisitTypeNone || !res.Fee.IsZero() {
		t.Fatalf("expected no visit fee without clinic, got %+v", res)
	}
}

func TestResolveRejectsBadInputs(t *testing.T) {
	if _, err := Resolve("", nil); err == nil {
		t.Fatal("missing state accepted")
	}
	clinic := &models.Clinic{AsyncVisitFee: decimal.RequireFromString("-1")}
	if _, err := Resolve("CA", clinic); err == nil {
		t.Fatal("negative visit fee accepted")
	}
}
