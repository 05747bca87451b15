package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func nullAmount() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestFlowFromAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.NullDecimal
		expected FlowType
	}{
		{"positive amount", amount("150.00"), FlowInbound},
		{"negative amount", amount("-150.00"), FlowOutbound},
		{"zero amount", amount("0"), FlowNeutral},
		{"null amount", nullAmount(), FlowUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlowFromAmount(tt.amount); got != tt.expected {
				t.Errorf("FlowFromAmount() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBankTransaction_IsOutgoing(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.NullDecimal
		expected bool
	}{
		{"negative amount is outgoing", amount("-42.10"), true},
		{"positive amount is not", amount("42.10"), false},
		{"zero amount is not", amount("0"), false},
		{"null amount is not", nullAmount(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := BankTransaction{Amount: tt.amount}
			if got := tx.IsOutgoing(); got != tt.expected {
				t.Errorf("IsOutgoing() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWriteOffRecord_IsSettled(t *testing.T) {
	settled := WriteOffRecord{WriteOffLedgerID: "184530"}
	if !settled.IsSettled() {
		t.Error("record with a settlement ledger id should be settled")
	}

	open := WriteOffRecord{}
	if open.IsSettled() {
		t.Error("record without a settlement ledger id should not be settled")
	}
}

func TestParseDayFirstDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  time.Time
		wantError bool
	}{
		{"standard format", "15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"single digit day and month", "5/3/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"two digit year", "15/03/24", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"dash separated", "15-03-2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"iso form", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"surrounding whitespace", "  15/03/2024  ", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"day thirty one of december", "31/12/2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"empty string", "", time.Time{}, true},
		{"not a date", "SALDO", time.Time{}, true},
		{"month out of range", "15/13/2024", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDayFirstDate(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseDayFirstDate(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && !got.Equal(tt.expected) {
				t.Errorf("ParseDayFirstDate(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseStrictDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  time.Time
		wantError bool
	}{
		{"full form", "07/02/2024", time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC), false},
		{"single digit rejected", "7/2/2024", time.Time{}, true},
		{"iso rejected", "2024-02-07", time.Time{}, true},
		{"empty rejected", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrictDate(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseStrictDate(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && !got.Equal(tt.expected) {
				t.Errorf("ParseStrictDate(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseBRLDecimal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		wantError bool
	}{
		{"thousands and cents", "1.234,56", "1234.56", false},
		{"cents only", "150,00", "150", false},
		{"negative", "-2.500,10", "-2500.1", false},
		{"millions", "1.234.567,89", "1234567.89", false},
		{"no separators", "42", "42", false},
		{"empty", "", "", true},
		{"text", "Subtotal", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBRLDecimal(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseBRLDecimal(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && got.String() != tt.expected {
				t.Errorf("ParseBRLDecimal(%q) = %s, want %s", tt.input, got.String(), tt.expected)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		wantError bool
	}{
		{"plain decimal", "-150.00", "-150", false},
		{"plain integer", "300", "300", false},
		{"locale form routed through brl parsing", "-1.234,56", "-1234.56", false},
		{"locale cents only", "89,90", "89.9", false},
		{"empty", "", "", true},
		{"text", "SALDO", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseAmount(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && got.String() != tt.expected {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.String(), tt.expected)
			}
		})
	}
}
