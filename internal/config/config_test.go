package config

import "testing"

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if p.MaxActiveListings != 10 {
		t.Errorf("expected 10 max listings, got %d", p.MaxActiveListings)
	}
	if p.MaxOffersPerTrade != 20 {
		t.Errorf("expected 20 max offers, got %d", p.MaxOffersPerTrade)
	}
	if p.DailyLimitCents != 200_000 {
		t.Errorf("expected $2000 daily limit, got %d cents", p.DailyLimitCents)
	}
	if p.MinPriceCents != 1 {
		t.Errorf("expected $0.01 min price, got %d cents", p.MinPriceCents)
	}
}

func TestPolicyFromEnvOverrides(t *testing.T) {
	t.Setenv("TRZNICA_MAX_LISTINGS", "3")
	t.Setenv("TRZNICA_DAILY_LIMIT", "500.50")
	t.Setenv("TRZNICA_COMMISSION_RATE", "0.1")

	p := PolicyFromEnv()
	if p.MaxActiveListings != 3 {
		t.Errorf("expected 3 max listings, got %d", p.MaxActiveListings)
	}
	if p.DailyLimitCents != 50050 {
		t.Errorf("expected 50050 cents daily limit, got %d", p.DailyLimitCents)
	}
	if p.CommissionRate != 0.1 {
		t.Errorf("expected 0.1 commission rate, got %v", p.CommissionRate)
	}
}

func TestPolicyFromEnvIgnoresInvalid(t *testing.T) {
	t.Setenv("TRZNICA_MAX_TRADES", "-1")
	t.Setenv("TRZNICA_COMMISSION_RATE", "1.5")

	p := PolicyFromEnv()
	if p.MaxActiveTrades != 10 {
		t.Errorf("expected default 10 max trades, got %d", p.MaxActiveTrades)
	}
	if p.CommissionRate != 0.05 {
		t.Errorf("expected default commission rate, got %v", p.CommissionRate)
	}
}
