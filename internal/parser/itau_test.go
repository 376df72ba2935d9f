package parser

import (
	"testing"
)

func TestItauAdapter_Parse(t *testing.T) {
	a := &ItauAdapter{}

	text := `Itaú Unibanco
Fatura com vencimento em 10/02/2025

02/01 PAG*JoseDaSilva 12/12        149,90
15/01 MERCADOLIVRE*LOJA un01/03     89,00
20/01 FARMACIA DROGASIL          1.234,56
Total da fatura                  1.473,46
Pagamento efetuado              -1.000,00
22/01 ESTORNO COMPRA               -50,00
Encargos de financiamento           12,34`

	report, err := a.Parse(text, Context{Year: 2025})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Records) != 3 {
		t.Fatalf("records: got %d, want 3", len(report.Records))
	}

	rec := report.Records[0]
	if rec.Description != "PAG*JoseDaSilva" {
		t.Errorf("records[0].Description: got %q, want %q", rec.Description, "PAG*JoseDaSilva")
	}
	if rec.Date != "02/01/2025" {
		t.Errorf("records[0].Date: got %q, want %q", rec.Date, "02/01/2025")
	}
	if rec.Amount.String() != "149.9" {
		t.Errorf("records[0].Amount: got %s, want 149.9", rec.Amount.String())
	}

	rec = report.Records[1]
	if rec.Description != "MERCADOLIVRE*LOJA" {
		t.Errorf("records[1].Description: got %q, want %q", rec.Description, "MERCADOLIVRE*LOJA")
	}

	rec = report.Records[2]
	if rec.Amount.String() != "1234.56" {
		t.Errorf("records[2].Amount: got %s, want 1234.56", rec.Amount.String())
	}

	var reasons []string
	for _, s := range report.Skipped {
		reasons = append(reasons, s.Reason)
	}
	// Total, Pagamento and Encargos rows are summary noise; the
	// standalone refund row is a credit.
	want := []string{"summary keyword", "summary keyword", "negative value (credit)", "summary keyword"}
	if len(reasons) != len(want) {
		t.Fatalf("skip reasons: got %v, want %v", reasons, want)
	}
	for i := range want {
		if reasons[i] != want[i] {
			t.Errorf("skip[%d]: got %q, want %q", i, reasons[i], want[i])
		}
	}
}

func TestItauAdapter_ZeroValueRejected(t *testing.T) {
	a := &ItauAdapter{}

	report, err := a.Parse("05/01 LOJA ZERADA 0,00", Context{Year: 2025})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Records) != 0 {
		t.Fatalf("records: got %d, want 0", len(report.Records))
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Reason != "non-positive value" {
		t.Errorf("skipped: got %+v", report.Skipped)
	}
}

func TestCleanItauDescription(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PAG*JoseDaSilva 12/12", "PAG*JoseDaSilva"},
		{"MERCADOLIVRE*LOJA un01/03", "MERCADOLIVRE*LOJA"},
		{"LOJA SEM PARCELA", "LOJA SEM PARCELA"},
		// The "un" variant must come off whole, not leave "un" behind.
		{"POSTO IPIRANGA un02/10", "POSTO IPIRANGA"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := cleanItauDescription(tt.input)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
			if again := cleanItauDescription(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}
