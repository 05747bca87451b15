// Package reconciler orchestrates the complete reconciliation run: decode
// the bank statement, decode the write-off report, feed both canonical
// record sets to the matching engine, and hand the combined output to the
// presentation layer.
//
// The run is a single synchronous call chain with no suspension points; all
// record sets are materialized in memory before matching begins. Each
// invocation builds its own candidate pools and matching state, so
// concurrent runs never share mutable state.
package reconciler

import (
	"fmt"
	"time"

	"github.com/matheus-maram/concilia-powerline/internal/matcher"
	"github.com/matheus-maram/concilia-powerline/internal/models"
	"github.com/matheus-maram/concilia-powerline/internal/parsers"
	"github.com/matheus-maram/concilia-powerline/pkg/logger"
)

// Request names the two input files for one reconciliation run.
type Request struct {
	StatementFile string
	WriteOffFile  string
}

// Validate validates the request.
func (r *Request) Validate() error {
	if r.StatementFile == "" {
		return fmt.Errorf("statement file path is required")
	}
	if r.WriteOffFile == "" {
		return fmt.Errorf("write-off file path is required")
	}
	return nil
}

// RunResult bundles the engine output with the decoded canonical record sets
// so the presentation layer can render and export all three.
type RunResult struct {
	Reconciliation *matcher.Result          `json:"reconciliation"`
	Statements     []models.BankTransaction `json:"statements"`
	StatementMeta  *parsers.StatementMeta   `json:"statement_meta,omitempty"`
	WriteOffs      []models.WriteOffRecord  `json:"write_offs"`
	ProcessedAt    time.Time                `json:"processed_at"`
	Duration       time.Duration            `json:"duration"`
}

// Service wires the two decoders and the matching engine together.
type Service struct {
	statementDecoder *parsers.StatementDecoder
	writeOffDecoder  *parsers.WriteOffDecoder
	engine           *matcher.Engine
	logger           logger.Logger
}

// NewService creates a Service from the component configurations; nil
// configurations select the defaults.
func NewService(
	statementConfig *parsers.StatementConfig,
	writeOffConfig *parsers.WriteOffConfig,
	matchConfig *matcher.MatchConfig,
) (*Service, error) {
	statementDecoder, err := parsers.NewStatementDecoder(statementConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create statement decoder: %w", err)
	}

	writeOffDecoder, err := parsers.NewWriteOffDecoder(writeOffConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create write-off decoder: %w", err)
	}

	engine, err := matcher.NewEngine(matchConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create matching engine: %w", err)
	}

	return &Service{
		statementDecoder: statementDecoder,
		writeOffDecoder:  writeOffDecoder,
		engine:           engine,
		logger:           logger.WithComponent("reconciliation_service"),
	}, nil
}

// Run executes one complete reconciliation: decode, match, assemble. Fatal
// decoder errors (missing column, unsupported input) propagate unchanged so
// the caller can report which file needs fixing.
func (s *Service) Run(request *Request) (*RunResult, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	start := time.Now()

	statements, meta, err := s.statementDecoder.DecodeFile(request.StatementFile)
	if err != nil {
		return nil, err
	}

	writeOffs, err := s.writeOffDecoder.DecodeFile(request.WriteOffFile)
	if err != nil {
		return nil, err
	}

	reconciliation, err := s.engine.Reconcile(statements, writeOffs)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Reconciliation: reconciliation,
		Statements:     statements,
		StatementMeta:  meta,
		WriteOffs:      writeOffs,
		ProcessedAt:    start,
		Duration:       time.Since(start),
	}

	s.logger.WithFields(logger.Fields{
		"statements": len(statements),
		"write_offs": len(writeOffs),
		"matched":    reconciliation.Summary.Matched,
		"duration":   result.Duration,
	}).Info("Reconciliation run complete")

	return result, nil
}
