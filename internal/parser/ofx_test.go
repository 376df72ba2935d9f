package parser

import (
	"testing"
)

const sicoobSample = `OFXHEADER:100
DATA:OFXSGML
<OFX>
<CREDITCARDMSGSRSV1>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT</TRNTYPE>
<DTPOSTED>20250115120000[-3:BRT]</DTPOSTED>
<TRNAMT>-45.90</TRNAMT>
<MEMO>LOJA ABC 01/03 SAO PAULO</MEMO>
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT</TRNTYPE>
<DTPOSTED>20250120120000[-3:BRT]</DTPOSTED>
<TRNAMT>500.00</TRNAMT>
<MEMO>PAGAMENTO FATURA</MEMO>
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT</TRNTYPE>
<DTPOSTED>20250118120000[-3:BRT]</DTPOSTED>
<TRNAMT>-120.50</TRNAMT>
<MEMO>RESTAURANTE BOM PRATO RIBEIRAO PRET</MEMO>
</STMTTRN>
</BANKTRANLIST>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestSicoobOFXAdapter_Parse(t *testing.T) {
	a := &SicoobOFXAdapter{}

	report, err := a.Parse(sicoobSample, Context{Year: 2025})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Records) != 2 {
		t.Fatalf("records: got %d, want 2", len(report.Records))
	}

	rec := report.Records[0]
	if rec.Description != "LOJA ABC" {
		t.Errorf("records[0].Description: got %q, want %q", rec.Description, "LOJA ABC")
	}
	if rec.Amount.String() != "45.9" {
		t.Errorf("records[0].Amount: got %s, want 45.9", rec.Amount.String())
	}
	if rec.Date != "15/01/2025" {
		t.Errorf("records[0].Date: got %q, want %q", rec.Date, "15/01/2025")
	}
	if rec.Category != "Cartão de Credito" {
		t.Errorf("records[0].Category: got %q", rec.Category)
	}

	rec = report.Records[1]
	if rec.Description != "RESTAURANTE BOM PRATO" {
		t.Errorf("records[1].Description: got %q, want %q", rec.Description, "RESTAURANTE BOM PRATO")
	}
	if rec.Date != "18/01/2025" {
		t.Errorf("records[1].Date: got %q, want %q", rec.Date, "18/01/2025")
	}

	// The positive-amount block is a payment and must be skipped.
	if len(report.Skipped) != 1 {
		t.Fatalf("skipped: got %d, want 1", len(report.Skipped))
	}
	if report.Skipped[0].Reason != "positive amount (credit or payment)" {
		t.Errorf("skip reason: got %q", report.Skipped[0].Reason)
	}
}

func TestSicoobOFXAdapter_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"no memo", `<STMTTRN><TRNTYPE>DEBIT</TRNTYPE><DTPOSTED>20250115</DTPOSTED><TRNAMT>-10.00</TRNAMT></STMTTRN>`},
		{"no amount", `<STMTTRN><TRNTYPE>DEBIT</TRNTYPE><DTPOSTED>20250115</DTPOSTED><MEMO>LOJA</MEMO></STMTTRN>`},
		{"no date", `<STMTTRN><TRNTYPE>DEBIT</TRNTYPE><TRNAMT>-10.00</TRNAMT><MEMO>LOJA</MEMO></STMTTRN>`},
		{"no type", `<STMTTRN><DTPOSTED>20250115</DTPOSTED><TRNAMT>-10.00</TRNAMT><MEMO>LOJA</MEMO></STMTTRN>`},
	}

	a := &SicoobOFXAdapter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := a.Parse(tt.block, Context{Year: 2025})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(report.Records) != 0 {
				t.Errorf("records: got %d, want 0", len(report.Records))
			}
			if len(report.Skipped) != 1 {
				t.Fatalf("skipped: got %d, want 1", len(report.Skipped))
			}
			if report.Skipped[0].Reason != "missing required OFX sub-field" {
				t.Errorf("skip reason: got %q", report.Skipped[0].Reason)
			}
		})
	}
}

func TestParseOFXDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"20250115", "15/01/2025"},
		{"20241231", "31/12/2024"},
		{"20250230", fallbackDate}, // impossible calendar date
		{"garbage1", fallbackDate},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseOFXDate(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCleanSicoobMemo(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"LOJA ABC 01/03 SAO PAULO", "LOJA ABC"},
		{"MERCADO CENTRAL HORTOLANDIA", "MERCADO CENTRAL"},
		{"FARMACIA POPULAR ARIBEIRAO PRE BR", "FARMACIA POPULAR"},
		{"AIRBNB PAYMENTS US$ 120,00 V.DOL 5,1234", "AIRBNB PAYMENTS"},
		{"LOJA SEM SUFIXO", "LOJA SEM SUFIXO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := cleanSicoobMemo(tt.input)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
			if again := cleanSicoobMemo(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestDecodeStatement(t *testing.T) {
	t.Run("valid utf8 passes through", func(t *testing.T) {
		in := "LOJA AÇAÍ"
		if got := DecodeStatement([]byte(in)); got != in {
			t.Errorf("got %q, want %q", got, in)
		}
	})

	t.Run("latin1 fallback", func(t *testing.T) {
		// "AÇAÍ" in ISO-8859-1: Ç=0xC7, Í=0xCD. Not valid UTF-8.
		in := []byte{'A', 0xC7, 'A', 0xCD}
		if got := DecodeStatement(in); got != "AÇAÍ" {
			t.Errorf("got %q, want %q", got, "AÇAÍ")
		}
	})
}
