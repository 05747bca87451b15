package matcher

import (
	"fmt"
	"sort"
	"time"

	"github.com/matheus-maram/concilia-powerline/internal/models"
	"github.com/matheus-maram/concilia-powerline/pkg/logger"

	"github.com/shopspring/decimal"
)

// Engine pairs outgoing bank transactions with write-off records through the
// three matching tiers. An Engine is stateless between calls; all matching
// bookkeeping is local to one Reconcile invocation, so concurrent calls on
// different inputs are safe.
type Engine struct {
	config *MatchConfig
	logger logger.Logger
}

// Result is the complete output of one reconciliation run: the ordered
// record sequence plus aggregate statistics.
type Result struct {
	Records []models.ReconciledRecord `json:"records"`
	Summary Summary                   `json:"summary"`
}

// Summary provides aggregate statistics about a reconciliation run.
type Summary struct {
	EligibleStatements int `json:"eligible_statements"`
	TotalWriteOffs     int `json:"total_write_offs"`

	Matched       int `json:"matched"`
	StatementOnly int `json:"statement_only"`
	WriteOffOnly  int `json:"write_off_only"`

	Tier1Matches int `json:"tier1_matches"`
	Tier2Matches int `json:"tier2_matches"`
	Tier3Matches int `json:"tier3_matches"`

	MatchedAmount            decimal.Decimal `json:"matched_amount"`
	UnmatchedStatementAmount decimal.Decimal `json:"unmatched_statement_amount"`
	UnmatchedWriteOffAmount  decimal.Decimal `json:"unmatched_write_off_amount"`
}

// match records one tier pairing by index into the input slices.
type match struct {
	stmtIdx int
	woIdx   int
	tier    int
	detail  string
}

// NewEngine creates an Engine with the given configuration, falling back to
// the defaults when nil.
func NewEngine(config *MatchConfig) (*Engine, error) {
	if config == nil {
		config = DefaultMatchConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}
	return &Engine{
		config: config.Clone(),
		logger: logger.WithComponent("matching_engine"),
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *MatchConfig {
	return e.config.Clone()
}

// Reconcile runs the three matching tiers over the two canonical record sets
// and returns the ordered reconciled sequence. Only statement rows with a
// parsed negative amount participate; positive, zero and null-amount rows
// are excluded entirely and appear nowhere in the output. Write-off rows
// whose amount failed to parse can never match and fall through to the
// unmatched section.
func (e *Engine) Reconcile(statements []models.BankTransaction, writeOffs []models.WriteOffRecord) (*Result, error) {
	eligible := eligibleIndices(statements)

	consumedStmt := make(map[int]bool)
	consumedWO := make(map[int]bool)

	var matches []match
	matches = append(matches, e.tierExactAmount(statements, writeOffs, eligible, consumedStmt, consumedWO)...)
	matches = append(matches, e.tierNearestDate(statements, writeOffs, eligible, consumedStmt, consumedWO)...)
	matches = append(matches, e.tierNameSimilarity(statements, writeOffs, eligible, consumedStmt, consumedWO)...)

	result := e.assemble(statements, writeOffs, eligible, matches, consumedStmt, consumedWO)

	e.logger.WithFields(logger.Fields{
		"eligible_statements": result.Summary.EligibleStatements,
		"write_offs":          result.Summary.TotalWriteOffs,
		"matched":             result.Summary.Matched,
		"tier1":               result.Summary.Tier1Matches,
		"tier2":               result.Summary.Tier2Matches,
		"tier3":               result.Summary.Tier3Matches,
	}).Debug("Reconciliation complete")

	return result, nil
}

// eligibleIndices returns the indices of statement rows that participate in
// matching, in file order.
func eligibleIndices(statements []models.BankTransaction) []int {
	var eligible []int
	for i := range statements {
		if statements[i].IsOutgoing() {
			eligible = append(eligible, i)
		}
	}
	return eligible
}

// amountKey normalizes an absolute amount to its two-decimal currency form
// so that equal monetary values group together regardless of how they were
// written in the source ("150" vs "150.00").
func amountKey(amount decimal.Decimal) string {
	return amount.Abs().StringFixed(2)
}

// tierExactAmount applies tier 1: for every amount value shared by exactly
// one remaining statement row and exactly one remaining write-off row, pair
// them. Distinct amounts iterate in first-occurrence order of the statement
// set; map iteration order never leaks into the result.
func (e *Engine) tierExactAmount(
	statements []models.BankTransaction,
	writeOffs []models.WriteOffRecord,
	eligible []int,
	consumedStmt, consumedWO map[int]bool,
) []match {
	var amountOrder []string
	seen := make(map[string]bool)
	for _, i := range eligible {
		key := amountKey(statements[i].Amount.Decimal)
		if !seen[key] {
			seen[key] = true
			amountOrder = append(amountOrder, key)
		}
	}

	var matches []match
	for _, key := range amountOrder {
		stmtGroup := remainingStatements(statements, eligible, consumedStmt, key)
		woGroup := remainingWriteOffs(writeOffs, consumedWO, key)

		if len(stmtGroup) == 1 && len(woGroup) == 1 {
			consumedStmt[stmtGroup[0]] = true
			consumedWO[woGroup[0]] = true
			matches = append(matches, match{
				stmtIdx: stmtGroup[0],
				woIdx:   woGroup[0],
				tier:    1,
				detail:  "exact amount",
			})
		}
	}
	return matches
}

// tierNearestDate applies tier 2: for each remaining statement row, pick the
// remaining equal-amount write-off whose settlement date is closest, within
// the configured tolerance. Ties break on first-encountered write-off order.
func (e *Engine) tierNearestDate(
	statements []models.BankTransaction,
	writeOffs []models.WriteOffRecord,
	eligible []int,
	consumedStmt, consumedWO map[int]bool,
) []match {
	var matches []match
	for _, si := range eligible {
		if consumedStmt[si] {
			continue
		}
		stmt := &statements[si]
		key := amountKey(stmt.Amount.Decimal)

		best := -1
		bestDelta := 0
		for _, wi := range remainingWriteOffs(writeOffs, consumedWO, key) {
			wo := &writeOffs[wi]
			if stmt.Date.IsZero() || wo.WriteOffDate.IsZero() {
				continue
			}
			delta := absDays(stmt.Date, wo.WriteOffDate)
			if delta <= e.config.DateToleranceDays && (best == -1 || delta < bestDelta) {
				best = wi
				bestDelta = delta
			}
		}

		if best != -1 {
			consumedStmt[si] = true
			consumedWO[best] = true
			matches = append(matches, match{
				stmtIdx: si,
				woIdx:   best,
				tier:    2,
				detail:  fmt.Sprintf("Δ %d day(s)", bestDelta),
			})
		}
	}
	return matches
}

// tierNameSimilarity applies tier 3: for each remaining statement row, pick
// the remaining equal-amount write-off with the highest name similarity and
// pair them when the score clears the threshold. Assignment is greedy in
// statement order; a later statement row never reclaims a write-off an
// earlier row already took, even at a higher score.
func (e *Engine) tierNameSimilarity(
	statements []models.BankTransaction,
	writeOffs []models.WriteOffRecord,
	eligible []int,
	consumedStmt, consumedWO map[int]bool,
) []match {
	var matches []match
	for _, si := range eligible {
		if consumedStmt[si] {
			continue
		}
		stmt := &statements[si]
		key := amountKey(stmt.Amount.Decimal)

		best := -1
		bestScore := -1
		for _, wi := range remainingWriteOffs(writeOffs, consumedWO, key) {
			score := SimilarityScore(stmt.Responsible, writeOffs[wi].Responsible)
			if score > bestScore {
				best = wi
				bestScore = score
			}
		}

		if best != -1 && bestScore >= e.config.SimilarityThreshold {
			consumedStmt[si] = true
			consumedWO[best] = true
			matches = append(matches, match{
				stmtIdx: si,
				woIdx:   best,
				tier:    3,
				detail:  fmt.Sprintf("similarity %d%%", bestScore),
			})
		}
	}
	return matches
}

// remainingStatements returns the not-yet-consumed eligible statement
// indices whose absolute amount matches key, in file order.
func remainingStatements(statements []models.BankTransaction, eligible []int, consumed map[int]bool, key string) []int {
	var out []int
	for _, i := range eligible {
		if consumed[i] {
			continue
		}
		if amountKey(statements[i].Amount.Decimal) == key {
			out = append(out, i)
		}
	}
	return out
}

// remainingWriteOffs returns the not-yet-consumed write-off indices whose
// absolute amount matches key, in file order. Rows with a null amount never
// match any key.
func remainingWriteOffs(writeOffs []models.WriteOffRecord, consumed map[int]bool, key string) []int {
	var out []int
	for i := range writeOffs {
		if consumed[i] || !writeOffs[i].TotalAmount.Valid {
			continue
		}
		if amountKey(writeOffs[i].TotalAmount.Decimal) == key {
			out = append(out, i)
		}
	}
	return out
}

// absDays returns the absolute day distance between two dates. Decoded dates
// carry no time-of-day component, so the division is exact.
func absDays(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// assemble builds the ordered output sequence: matched records first
// (tier ascending, then statement date, then settlement date, nulls last),
// then unmatched statements by date, then unmatched write-offs by settlement
// date. Sequential reconciled ids are assigned over the full ordered
// sequence.
func (e *Engine) assemble(
	statements []models.BankTransaction,
	writeOffs []models.WriteOffRecord,
	eligible []int,
	matches []match,
	consumedStmt, consumedWO map[int]bool,
) *Result {
	summary := Summary{
		EligibleStatements:       len(eligible),
		TotalWriteOffs:           len(writeOffs),
		MatchedAmount:            decimal.Zero,
		UnmatchedStatementAmount: decimal.Zero,
		UnmatchedWriteOffAmount:  decimal.Zero,
	}

	var matched []models.ReconciledRecord
	for _, m := range matches {
		stmt := statements[m.stmtIdx]
		wo := writeOffs[m.woIdx]
		matched = append(matched, models.ReconciledRecord{
			Status:    models.StatusMatched,
			Tier:      m.tier,
			Detail:    m.detail,
			Statement: &stmt,
			WriteOff:  &wo,
		})

		summary.Matched++
		switch m.tier {
		case 1:
			summary.Tier1Matches++
		case 2:
			summary.Tier2Matches++
		case 3:
			summary.Tier3Matches++
		}
		summary.MatchedAmount = summary.MatchedAmount.Add(stmt.AbsAmount())
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Tier != matched[j].Tier {
			return matched[i].Tier < matched[j].Tier
		}
		if c := compareDatesNullsLast(matched[i].StatementDate(), matched[j].StatementDate()); c != 0 {
			return c < 0
		}
		return compareDatesNullsLast(matched[i].WriteOffDate(), matched[j].WriteOffDate()) < 0
	})

	var statementOnly []models.ReconciledRecord
	for _, si := range eligible {
		if consumedStmt[si] {
			continue
		}
		stmt := statements[si]
		statementOnly = append(statementOnly, models.ReconciledRecord{
			Status:    models.StatusStatementOnly,
			Statement: &stmt,
		})
		summary.StatementOnly++
		summary.UnmatchedStatementAmount = summary.UnmatchedStatementAmount.Add(stmt.AbsAmount())
	}
	sort.SliceStable(statementOnly, func(i, j int) bool {
		return compareDatesNullsLast(statementOnly[i].StatementDate(), statementOnly[j].StatementDate()) < 0
	})

	var writeOffOnly []models.ReconciledRecord
	for wi := range writeOffs {
		if consumedWO[wi] {
			continue
		}
		wo := writeOffs[wi]
		writeOffOnly = append(writeOffOnly, models.ReconciledRecord{
			Status:   models.StatusWriteOffOnly,
			WriteOff: &wo,
		})
		summary.WriteOffOnly++
		if wo.TotalAmount.Valid {
			summary.UnmatchedWriteOffAmount = summary.UnmatchedWriteOffAmount.Add(wo.AbsAmount())
		}
	}
	sort.SliceStable(writeOffOnly, func(i, j int) bool {
		return compareDatesNullsLast(writeOffOnly[i].WriteOffDate(), writeOffOnly[j].WriteOffDate()) < 0
	})

	records := make([]models.ReconciledRecord, 0, len(matched)+len(statementOnly)+len(writeOffOnly))
	records = append(records, matched...)
	records = append(records, statementOnly...)
	records = append(records, writeOffOnly...)
	for i := range records {
		records[i].ReconciledID = i + 1
	}

	return &Result{Records: records, Summary: summary}
}

// compareDatesNullsLast orders two dates ascending with zero times sorting
// after everything else. Returns -1, 0 or 1.
func compareDatesNullsLast(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
