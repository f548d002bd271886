package engine

import (
	"testing"
	"time"
)

func TestNormalizeCanonicalKeys(t *testing.T) {
	raw := map[string]any{
		"first_name":     "Jane",
		"last_name":      "Doe",
		"email":          "Jane.Doe@Gmail.com",
		"phone":          "+447911123456",
		"budget_max":     450000.0,
		"bedrooms":       3,
		"timeline":       "Within 28 Days",
		"payment_method": "Cash",
		"proof_of_funds": true,
		"broker_status":  "yes",
		"status":         "contacted",
	}
	rec := Normalize(raw)

	if rec.FullName != "Jane Doe" {
		t.Fatalf("FullName = %q", rec.FullName)
	}
	if rec.Email != "jane.doe@gmail.com" {
		t.Fatalf("email not lowercased: %q", rec.Email)
	}
	if rec.BudgetMax != 450000 {
		t.Fatalf("BudgetMax = %v", rec.BudgetMax)
	}
	if rec.Bedrooms != 3 {
		t.Fatalf("Bedrooms = %d", rec.Bedrooms)
	}
	if rec.Timeline != "within 28 days" {
		t.Fatalf("Timeline = %q", rec.Timeline)
	}
	if rec.PaymentMethod != PaymentCash {
		t.Fatalf("PaymentMethod = %q", rec.PaymentMethod)
	}
	if !rec.ProofOfFunds {
		t.Fatal("ProofOfFunds not mapped")
	}
	if rec.BrokerStatus != ConnectionYes {
		t.Fatalf("BrokerStatus = %q", rec.BrokerStatus)
	}
	if rec.Status != StageContacted {
		t.Fatalf("Status = %q", rec.Status)
	}
}

func TestNormalizeLegacyAliases(t *testing.T) {
	raw := map[string]any{
		"contact_name":    "Omar Farouk",
		"email_address":   "omar@example.co.uk",
		"mobile":          "+447700900123",
		"budget":          "£350,000",
		"timeframe":       "3-6 months",
		"funding_method":  "mortgage",
		"do_not_contact":  "yes",
		"lead_source":     "rightmove",
		"last_contacted":  "2026-02-01",
		"broker_connected": "intro",
	}
	rec := Normalize(raw)

	if rec.FullName != "Omar Farouk" {
		t.Fatalf("FullName = %q", rec.FullName)
	}
	if rec.BudgetMax != 350000 {
		t.Fatalf("currency string not parsed: %v", rec.BudgetMax)
	}
	if rec.Timeline != "3-6 months" {
		t.Fatalf("Timeline = %q", rec.Timeline)
	}
	if rec.PaymentMethod != PaymentMortgage {
		t.Fatalf("PaymentMethod = %q", rec.PaymentMethod)
	}
	if !rec.StopComms {
		t.Fatal("do_not_contact not mapped to StopComms")
	}
	if rec.Source != "rightmove" {
		t.Fatalf("Source = %q", rec.Source)
	}
	if rec.LastContactAt == nil || !rec.LastContactAt.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("LastContactAt = %v", rec.LastContactAt)
	}
	if rec.BrokerStatus != ConnectionIntroduced {
		t.Fatalf("BrokerStatus = %q", rec.BrokerStatus)
	}
}

func TestNormalizeInvalidStatusFallsBack(t *testing.T) {
	rec := Normalize(map[string]any{"status": "exploded"})
	if rec.Status != StageNew {
		t.Fatalf("Status = %q, want %q", rec.Status, StageNew)
	}
}

func TestNormalizeHoneypot(t *testing.T) {
	if !Normalize(map[string]any{"website_url": "http://spam.biz"}).Honeypot {
		t.Fatal("filled honeypot field not detected")
	}
	if Normalize(map[string]any{"honeypot": false}).Honeypot {
		t.Fatal("boolean false honeypot should not trip")
	}
	if Normalize(map[string]any{"honeypot": "  "}).Honeypot {
		t.Fatal("whitespace honeypot should not trip")
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	rec := Normalize(map[string]any{"unknown_key": map[string]any{"nested": true}, "email": nil})
	if rec.Email != "" || rec.Status != StageNew {
		t.Fatalf("unexpected record from junk input: %+v", rec)
	}
}
