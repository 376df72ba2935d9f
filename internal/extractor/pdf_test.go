package extractor

import (
	"strings"
	"testing"
)

func TestTextQuality(t *testing.T) {
	tests := []struct {
		name    string
		pages   []string
		wantMin float64
		wantMax float64
	}{
		{"clean text", []string{"Fatura do cartão 05/01 MERCADO 123,45"}, 0.99, 1.0},
		{"accented portuguese", []string{"lançamentos cartão crédito São Paulo"}, 0.99, 1.0},
		{"binary garbage", []string{"\x00\x01\x02\x03\x7f\x7f\x7f\x7f"}, 0.0, 0.1},
		{"empty", nil, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textQuality(tt.pages)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("got %f, want within [%f, %f]", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestContainsCommonWords(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected bool
	}{
		{"invoice header", []string{"FATURA do cartão de crédito"}, true},
		{"unaccented variant", []string{"total da fatura"}, true},
		{"mixed case", []string{"VENCIMENTO 10/02/2025"}, true},
		{"unrelated text", []string{"lorem ipsum dolor sit amet"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsCommonWords(tt.pages); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsReadableText(t *testing.T) {
	longInvoice := strings.Repeat("fatura cartão total valor ", 10)

	tests := []struct {
		name     string
		pages    []string
		expected bool
	}{
		{"real invoice text", []string{longInvoice}, true},
		{"too short", []string{"fatura"}, false},
		{"long but no invoice vocabulary", []string{strings.Repeat("lorem ipsum dolor ", 10)}, false},
		{"long but binary", []string{strings.Repeat("\x00\x01", 100) + "fatura"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReadableText(tt.pages); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTotalTextLen(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected int
	}{
		{"trims per page", []string{"  abc  ", "de"}, 5},
		{"blank pages count zero", []string{"   ", ""}, 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := totalTextLen(tt.pages); got != tt.expected {
				t.Errorf("got %d, want %d", got, tt.expected)
			}
		})
	}
}
