// Package models defines the canonical record types produced by the decoders
// and consumed by the reconciliation engine, together with the locale-aware
// parsing helpers they share.
//
// All records are fully typed and independent of the ad hoc layout of the
// source files. They are created once per reconciliation run and never
// mutated afterwards.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FlowType classifies a bank transaction by the sign of its amount.
type FlowType string

const (
	// FlowInbound marks a positive (incoming) amount.
	FlowInbound FlowType = "Entrada"
	// FlowOutbound marks a negative (outgoing) amount.
	FlowOutbound FlowType = "Saída"
	// FlowNeutral marks a zero amount.
	FlowNeutral FlowType = "Neutro"
	// FlowUnknown marks a row whose amount could not be parsed.
	FlowUnknown FlowType = ""
)

// FlowFromAmount derives the flow classification from an amount. A null
// amount yields FlowUnknown.
func FlowFromAmount(amount decimal.NullDecimal) FlowType {
	if !amount.Valid {
		return FlowUnknown
	}
	switch amount.Decimal.Sign() {
	case 1:
		return FlowInbound
	case -1:
		return FlowOutbound
	default:
		return FlowNeutral
	}
}

// BankTransaction is one decoded row of the bank statement export.
// Responsible and Document are empty when absent from the source row.
type BankTransaction struct {
	ID           int                 `json:"id"`
	Date         time.Time           `json:"date"`
	MovementType string              `json:"movement_type"`
	Responsible  string              `json:"responsible,omitempty"`
	Document     string              `json:"document,omitempty"`
	Amount       decimal.NullDecimal `json:"amount"`
	Flow         FlowType            `json:"flow,omitempty"`
}

// IsOutgoing reports whether the transaction is a parsed negative amount,
// which makes it eligible for matching.
func (t *BankTransaction) IsOutgoing() bool {
	return t.Amount.Valid && t.Amount.Decimal.IsNegative()
}

// AbsAmount returns the absolute value of the amount. Only meaningful when
// the amount is valid.
func (t *BankTransaction) AbsAmount() decimal.Decimal {
	return t.Amount.Decimal.Abs()
}

// String returns a compact representation for logging.
func (t *BankTransaction) String() string {
	amount := "null"
	if t.Amount.Valid {
		amount = t.Amount.Decimal.String()
	}
	return fmt.Sprintf("BankTransaction{ID: %d, Date: %s, Type: %s, Amount: %s}",
		t.ID, t.Date.Format("2006-01-02"), t.MovementType, amount)
}

// WriteOffRecord is one decoded data row of the write-off ledger export.
// A zero time value means the date was absent or unparseable; a null
// TotalAmount means the same for the amount. CostCenter is inherited from
// the most recent section header seen before the row.
type WriteOffRecord struct {
	ID               int                 `json:"id"`
	CostCenter       string              `json:"cost_center,omitempty"`
	LedgerDate       time.Time           `json:"ledger_date"`
	LedgerID         string              `json:"ledger_id,omitempty"`
	Account          string              `json:"account,omitempty"`
	Responsible      string              `json:"responsible,omitempty"`
	Document         string              `json:"document,omitempty"`
	TotalAmount      decimal.NullDecimal `json:"total_amount"`
	WriteOffDate     time.Time           `json:"write_off_date"`
	WriteOffLedgerID string              `json:"write_off_ledger_id,omitempty"`
}

// IsSettled reports whether any settlement layout matched when the row was
// decoded.
func (w *WriteOffRecord) IsSettled() bool {
	return w.WriteOffLedgerID != ""
}

// AbsAmount returns the absolute value of the total amount. Only meaningful
// when the amount is valid.
func (w *WriteOffRecord) AbsAmount() decimal.Decimal {
	return w.TotalAmount.Decimal.Abs()
}

// String returns a compact representation for logging.
func (w *WriteOffRecord) String() string {
	amount := "null"
	if w.TotalAmount.Valid {
		amount = w.TotalAmount.Decimal.String()
	}
	return fmt.Sprintf("WriteOffRecord{ID: %d, CostCenter: %s, Amount: %s}",
		w.ID, w.CostCenter, amount)
}

// MatchStatus distinguishes the three reconciled record variants.
type MatchStatus string

const (
	// StatusMatched links one bank transaction and one write-off record.
	StatusMatched MatchStatus = "matched"
	// StatusStatementOnly is an eligible bank transaction no tier consumed.
	StatusStatementOnly MatchStatus = "statement_only"
	// StatusWriteOffOnly is a write-off record no tier consumed.
	StatusWriteOffOnly MatchStatus = "write_off_only"
)

// ReconciledRecord is one row of the reconciliation output. Statement and
// WriteOff are set according to Status: both for matched rows, exactly one
// otherwise. Tier and Detail are only meaningful for matched rows.
type ReconciledRecord struct {
	ReconciledID int              `json:"reconciled_id"`
	Status       MatchStatus      `json:"status"`
	Tier         int              `json:"tier,omitempty"`
	Detail       string           `json:"detail,omitempty"`
	Statement    *BankTransaction `json:"statement,omitempty"`
	WriteOff     *WriteOffRecord  `json:"write_off,omitempty"`
}

// StatementDate returns the statement-side date, or the zero time when the
// record has no statement side.
func (r *ReconciledRecord) StatementDate() time.Time {
	if r.Statement == nil {
		return time.Time{}
	}
	return r.Statement.Date
}

// WriteOffDate returns the write-off settlement date, or the zero time when
// the record has no write-off side or the date was null.
func (r *ReconciledRecord) WriteOffDate() time.Time {
	if r.WriteOff == nil {
		return time.Time{}
	}
	return r.WriteOff.WriteOffDate
}

// dayFirstDateFormats are the layouts accepted for statement dates, most
// specific first. The exports use the Brazilian day-first convention.
var dayFirstDateFormats = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"02-01-2006",
	"2006-01-02",
}

// ParseDayFirstDate parses a date string using the day-first locale
// convention, trying a small set of layouts seen in the statement export.
func ParseDayFirstDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, layout := range dayFirstDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// ParseStrictDate parses a date in the report's strict dd/mm/yyyy form.
func ParseStrictDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, err)
	}
	return t, nil
}

// ParseBRLDecimal parses a number in Brazilian locale format: "." as
// thousands separator and "," as decimal separator ("1.234,56" -> 1234.56).
func ParseBRLDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}

// ParseAmount parses a statement amount, accepting both the plain decimal
// form spreadsheet cells usually carry ("-150.00") and the Brazilian locale
// form ("-1.234,56").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	if strings.Contains(s, ",") {
		return ParseBRLDecimal(s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}
