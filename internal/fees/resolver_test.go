package fees

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/pkg/config"
	"github.com/caremesh/caremesh-backend/pkg/db/models"
)

func TestParseDefaults(t *testing.T) {
	defaults, err := ParseDefaults(config.FeesConfig{
		PlatformFeePercent:  "10",
		ProcessorFeePercent: "2.9",
		ClinicianFlatFee:    "15",
	})
	if err != nil {
		t.Fatalf("ParseDefaults error: %v", err)
	}
	if !defaults.ProcessorFeePercent.Equal(dec("2.9")) {
		t.Fatalf("processor default = %s", defaults.ProcessorFeePercent)
	}

	if _, err := ParseDefaults(config.FeesConfig{PlatformFeePercent: "ten"}); err == nil {
		t.Fatal("expected parse error for non-numeric percent")
	}
}

func TestResolveFallsBackToGlobalDefault(t *testing.T) {
	defaults := Defaults{
		PlatformFeePercent:  dec("10"),
		ProcessorFeePercent: dec("3"),
		ClinicianFlatFee:    dec("15"),
	}

	cfg := defaults.Resolve(nil, 0)
	if !cfg.PlatformFeePercent.Equal(dec("10")) {
		t.Fatalf("expected global default, got %s", cfg.PlatformFeePercent)
	}

	clinic := &models.Clinic{}
	cfg = defaults.Resolve(clinic, 5)
	if !cfg.PlatformFeePercent.Equal(dec("10")) || !cfg.ClinicianFlatFee.Equal(dec("15")) {
		t.Fatalf("clinic without tiers should use defaults, got %+v", cfg)
	}
}

func TestResolvePicksHighestReachedTier(t *testing.T) {
	defaults := Defaults{
		PlatformFeePercent:  dec("10"),
		ProcessorFeePercent: dec("3"),
		ClinicianFlatFee:    dec("15"),
	}
	clinic := &models.Clinic{
		DoctorFee: dec("25.00"),
		FeeTiers: []models.ClinicFeeTier{
			{MinOrders: 0, PlatformFeePercent: dec("12")},
			{MinOrders: 100, PlatformFeePercent: dec("8")},
			{MinOrders: 500, PlatformFeePercent: dec("6")},
		},
	}

	cfg := defaults.Resolve(clinic, 150)
	if !cfg.PlatformFeePercent.Equal(dec("8")) {
		t.Fatalf("expected 100-order tier, got %s", cfg.PlatformFeePercent)
	}
	if !cfg.ClinicianFlatFee.Equal(dec("25.00")) {
		t.Fatalf("expected clinic doctor fee, got %s", cfg.ClinicianFlatFee)
	}

	cfg = defaults.Resolve(clinic, 700)
	if !cfg.PlatformFeePercent.Equal(dec("6")) {
		t.Fatalf("expected top tier, got %s", cfg.PlatformFeePercent)
	}
}

func TestResolveZeroDoctorFeeKeepsDefault(t *testing.T) {
	defaults := Defaults{ClinicianFlatFee: dec("15")}
	clinic := &models.Clinic{DoctorFee: decimal.Zero}
	cfg := defaults.Resolve(clinic, 0)
	if !cfg.ClinicianFlatFee.Equal(dec("15")) {
		t.Fatalf("zero doctor fee should fall back to default, got %s", cfg.ClinicianFlatFee)
	}
}
