package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bankrec/internal/domain/matcher"
	"github.com/eshaffer321/bankrec/internal/domain/model"
	"github.com/eshaffer321/bankrec/internal/domain/reconciliation"
	"github.com/eshaffer321/bankrec/internal/domain/validator"
	"github.com/eshaffer321/bankrec/internal/infrastructure/config"
	"github.com/eshaffer321/bankrec/internal/infrastructure/storage"
)

// ErrReconciliationRunning is returned when a run for the same statement is
// already in progress.
var ErrReconciliationRunning = errors.New("reconciliation already running for statement")

// suggestionAmountShare widens the suggestion amount range to 10% of the line amount
var suggestionAmountShare = decimal.RequireFromString("0.10")

// ReconcileRequest holds parameters for a reconciliation run.
type ReconcileRequest struct {
	StatementID string
	Settings    *model.Settings // nil = configured defaults
}

// ManualMatchRequest holds parameters for a manual match.
type ManualMatchRequest struct {
	ReconciliationID string // Optional run the match belongs to
	BankLineID       string
	TransactionID    string
	UserID           string
	Reason           string
}

// DiscrepancyUpdate holds a review workflow change.
type DiscrepancyUpdate struct {
	Status model.DiscrepancyStatus
	Note   string
	UserID string
}

// ReconciliationService loads inputs from storage, runs the engine and
// persists results. It also owns the manual review workflow.
type ReconciliationService struct {
	cfg     *config.Config
	storage storage.Repository
	engine  *reconciliation.Engine
	logger  *slog.Logger

	// Statement-level locking (only one run per statement at a time)
	statementLocks map[string]*sync.Mutex
	locksMutex     sync.Mutex
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(cfg *config.Config, store storage.Repository, logger *slog.Logger) *ReconciliationService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &ReconciliationService{
		cfg:            cfg,
		storage:        store,
		engine:         reconciliation.NewEngine(logger),
		logger:         logger,
		statementLocks: make(map[string]*sync.Mutex),
	}
}

// DefaultSettings returns the configured run settings.
func (s *ReconciliationService) DefaultSettings() (model.Settings, error) {
	return s.cfg.Reconciliation.ToSettings()
}

// ImportStatement validates and stores a bank statement with its lines.
func (s *ReconciliationService) ImportStatement(ctx context.Context, stmt *model.BankStatement) error {
	if stmt.PeriodFrom.IsZero() || stmt.PeriodTo.IsZero() {
		return fmt.Errorf("%w: statement period is required", model.ErrInvalidInput)
	}
	if stmt.PeriodTo.Before(stmt.PeriodFrom) {
		return fmt.Errorf("%w: statement period ends before it starts", model.ErrInvalidInput)
	}
	for i, line := range stmt.Lines {
		if line.Date.IsZero() {
			return fmt.Errorf("%w: line %d has no date", model.ErrInvalidInput, i)
		}
		if line.Credit.IsNegative() || line.Debit.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", model.ErrInvalidInput, i)
		}
		if !line.Credit.IsZero() && !line.Debit.IsZero() {
			return fmt.Errorf("%w: line %d has both credit and debit", model.ErrInvalidInput, i)
		}
	}

	if err := s.storage.SaveStatement(ctx, stmt); err != nil {
		return err
	}

	s.logger.Info("statement imported",
		"statement_id", stmt.ID,
		"account", stmt.AccountNumber,
		"lines", len(stmt.Lines))

	// Unbalanced statements are still stored; the check only warns.
	if check := validator.ValidateStatementBalance(stmt, validator.DefaultTolerance); !check.Valid {
		s.logger.Warn("statement lines do not explain closing balance",
			"statement_id", stmt.ID,
			"computed_closing", check.ComputedClosing.StringFixed(2),
			"declared_closing", check.DeclaredClosing.StringFixed(2),
			"reason", check.Reason)
	}
	return nil
}

// GetStatement returns a statement with its lines.
func (s *ReconciliationService) GetStatement(ctx context.Context, id string) (*model.BankStatement, error) {
	return s.storage.GetStatement(ctx, id)
}

// CheckStatementBalance reports whether a stored statement's lines explain
// the move from its opening to its closing balance.
func (s *ReconciliationService) CheckStatementBalance(ctx context.Context, id string) (*validator.BalanceValidation, error) {
	stmt, err := s.storage.GetStatement(ctx, id)
	if err != nil {
		return nil, err
	}
	return validator.ValidateStatementBalance(stmt, validator.DefaultTolerance), nil
}

// ImportTransactions validates and stores internal ledger entries.
func (s *ReconciliationService) ImportTransactions(ctx context.Context, txs []model.InternalTransaction) error {
	if len(txs) == 0 {
		return fmt.Errorf("%w: no transactions given", model.ErrInvalidInput)
	}
	for i, tx := range txs {
		if tx.Date.IsZero() {
			return fmt.Errorf("%w: transaction %d has no date", model.ErrInvalidInput, i)
		}
	}

	if err := s.storage.SaveTransactions(ctx, txs); err != nil {
		return err
	}

	s.logger.Info("transactions imported", "count", len(txs))
	return nil
}

// Reconcile runs the engine over a statement's unmatched lines and the
// unreconciled ledger entries dated within the statement period widened by
// the date tolerance, then persists the result as one unit.
func (s *ReconciliationService) Reconcile(ctx context.Context, req ReconcileRequest) (*model.Reconciliation, error) {
	if strings.TrimSpace(req.StatementID) == "" {
		return nil, fmt.Errorf("%w: statement id is required", model.ErrInvalidInput)
	}

	settings, err := s.resolveSettings(req.Settings)
	if err != nil {
		return nil, err
	}

	if !s.tryLockStatement(req.StatementID) {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationRunning, req.StatementID)
	}
	defer s.unlockStatement(req.StatementID)

	stmt, err := s.storage.GetStatement(ctx, req.StatementID)
	if err != nil {
		return nil, err
	}

	lines, err := s.storage.ListUnmatchedLines(ctx, stmt.ID)
	if err != nil {
		return nil, fmt.Errorf("load statement lines: %w", err)
	}

	from, to := toleranceWindow(stmt.PeriodFrom, stmt.PeriodTo, settings.DateToleranceDays)
	txs, err := s.storage.ListUnreconciledTransactions(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	s.logger.Info("reconciliation started",
		"statement_id", stmt.ID,
		"bank_lines", len(lines),
		"transactions", len(txs),
		"date_tolerance_days", settings.DateToleranceDays,
		"amount_tolerance", settings.AmountTolerance.String())

	rec, err := s.engine.ExecuteReconciliation(ctx, reconciliation.Request{
		BankStatementID:      stmt.ID,
		BankLines:            lines,
		InternalTransactions: txs,
		BankOpeningBalance:   stmt.OpeningBalance,
		BankClosingBalance:   stmt.ClosingBalance,
		PeriodFrom:           stmt.PeriodFrom,
		PeriodTo:             stmt.PeriodTo,
		Settings:             settings,
	})
	if err != nil {
		return nil, err
	}

	if err := s.storage.SaveReconciliation(ctx, rec); err != nil {
		return nil, fmt.Errorf("save reconciliation: %w", err)
	}

	return rec, nil
}

// GetReconciliation returns a stored run with its current matches and discrepancies.
func (s *ReconciliationService) GetReconciliation(ctx context.Context, id string) (*model.Reconciliation, error) {
	return s.storage.GetReconciliation(ctx, id)
}

// ListReconciliations returns run summaries, newest first.
func (s *ReconciliationService) ListReconciliations(ctx context.Context, limit int) ([]model.Reconciliation, error) {
	return s.storage.ListReconciliations(ctx, limit)
}

// SuggestMatches ranks unmatched ledger entries for one bank line. Candidates
// lie within max(amount tolerance, 10% of the line amount) and within the date
// tolerance of the line. The pool is bounded by the configured candidate
// window before scoring; the ranked result is cut to limit.
func (s *ReconciliationService) SuggestMatches(ctx context.Context, lineID string, limit int) ([]model.MatchSuggestion, error) {
	settings, err := s.DefaultSettings()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.Reconciliation.SuggestionLimit
	}
	if limit <= 0 {
		limit = matcher.DefaultSuggestionLimit
	}

	line, err := s.storage.GetStatementLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	effective := line.EffectiveAmount()
	amountRange := decimal.Max(settings.AmountTolerance, effective.Abs().Mul(suggestionAmountShare))
	from, to := toleranceWindow(line.Date, line.Date, settings.DateToleranceDays)

	window := s.cfg.Reconciliation.CandidateWindow
	if window <= 0 {
		window = storage.DefaultCandidateLimit
	}

	candidates, err := s.storage.ListCandidateTransactions(ctx, storage.CandidateFilter{
		Amount:      effective,
		AmountRange: amountRange,
		From:        from,
		To:          to,
		Limit:       window,
	})
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	suggestions := matcher.SuggestMatches(*line, candidates, window)
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	s.logger.Debug("suggestions ranked",
		"bank_line_id", lineID,
		"candidates", len(candidates),
		"returned", len(suggestions))

	return suggestions, nil
}

// CreateManualMatch links a bank line to a ledger entry on a person's say-so.
// Amount and date agreement is not required. Either side already holding a
// match is rejected with model.ErrAlreadyMatched. Open discrepancies for both
// sides are resolved and the action is audited.
func (s *ReconciliationService) CreateManualMatch(ctx context.Context, req ManualMatchRequest) (*model.Match, error) {
	if req.BankLineID == "" || req.TransactionID == "" {
		return nil, fmt.Errorf("%w: bank line and transaction ids are required", model.ErrInvalidInput)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", model.ErrInvalidInput)
	}

	line, err := s.storage.GetStatementLine(ctx, req.BankLineID)
	if err != nil {
		return nil, err
	}
	tx, err := s.storage.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if req.ReconciliationID != "" {
		if _, err := s.storage.GetReconciliation(ctx, req.ReconciliationID); err != nil {
			return nil, err
		}
	}

	if matched, err := s.storage.IsLineMatched(ctx, line.ID); err != nil {
		return nil, err
	} else if matched {
		return nil, fmt.Errorf("%w: bank line %s", model.ErrAlreadyMatched, line.ID)
	}
	if matched, err := s.storage.IsTransactionMatched(ctx, tx.ID); err != nil {
		return nil, err
	} else if matched {
		return nil, fmt.Errorf("%w: transaction %s", model.ErrAlreadyMatched, tx.ID)
	}

	match, err := s.engine.CreateManualMatch(reconciliation.ManualMatchRequest{
		ReconciliationID: req.ReconciliationID,
		BankLine:         *line,
		Transaction:      *tx,
		UserID:           req.UserID,
		Reason:           req.Reason,
	})
	if err != nil {
		return nil, err
	}

	if err := s.storage.SaveMatch(ctx, match); err != nil {
		return nil, err
	}

	resolved, err := s.storage.ResolveDiscrepanciesFor(ctx, req.ReconciliationID, line.ID, tx.ID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve discrepancies: %w", err)
	}

	s.audit(ctx, model.AuditManualMatch, match.ID, req.UserID,
		fmt.Sprintf("bank line %s to transaction %s: %s", line.ID, tx.ID, match.Reason))

	s.logger.Info("manual match saved",
		"match_id", match.ID,
		"resolved_discrepancies", resolved)

	return match, nil
}

// UndoMatch removes a match so both sides can be matched again.
func (s *ReconciliationService) UndoMatch(ctx context.Context, matchID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", model.ErrInvalidInput)
	}

	match, err := s.storage.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteMatch(ctx, match.ID); err != nil {
		return err
	}

	s.audit(ctx, model.AuditUndoMatch, match.ID, userID,
		fmt.Sprintf("bank line %s from transaction %s (%s)", match.BankLineID, match.InternalTransactionID, match.Type))

	s.logger.Info("match undone", "match_id", match.ID, "user_id", userID)
	return nil
}

// ApproveMatch marks a match as reviewed.
func (s *ReconciliationService) ApproveMatch(ctx context.Context, matchID, userID string) (*model.Match, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", model.ErrInvalidInput)
	}

	match, err := s.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.UpdateMatchStatus(ctx, match.ID, model.MatchStatusApproved); err != nil {
		return nil, err
	}
	match.Status = model.MatchStatusApproved

	s.audit(ctx, model.AuditApproveMatch, match.ID, userID, "")
	return match, nil
}

// UpdateDiscrepancyStatus moves a discrepancy through the review workflow.
func (s *ReconciliationService) UpdateDiscrepancyStatus(ctx context.Context, id string, update DiscrepancyUpdate) (*model.Discrepancy, error) {
	if !update.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown discrepancy status %q", model.ErrInvalidInput, update.Status)
	}
	if strings.TrimSpace(update.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", model.ErrInvalidInput)
	}

	d, err := s.storage.GetDiscrepancy(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := d.Status
	d.Status = update.Status
	d.UpdatedBy = update.UserID
	if update.Note != "" {
		d.Note = update.Note
	}

	if err := s.storage.UpdateDiscrepancy(ctx, d); err != nil {
		return nil, err
	}

	s.audit(ctx, model.AuditDiscrepancyUpdate, d.ID, update.UserID,
		fmt.Sprintf("%s -> %s", previous, d.Status))
	return d, nil
}

// AuditTrail returns the recorded manual actions for a match or discrepancy.
func (s *ReconciliationService) AuditTrail(ctx context.Context, entityID string) ([]model.AuditEntry, error) {
	return s.storage.ListAudit(ctx, entityID)
}

// audit records a manual action. A failed write is logged, not returned:
// the action itself has already been persisted.
func (s *ReconciliationService) audit(ctx context.Context, action, entityID, userID, detail string) {
	entry := &model.AuditEntry{
		Action:   action,
		EntityID: entityID,
		UserID:   userID,
		Detail:   detail,
	}
	if err := s.storage.LogAudit(ctx, entry); err != nil {
		s.logger.Error("failed to write audit entry",
			"action", action,
			"entity_id", entityID,
			"error", err)
	}
}

func (s *ReconciliationService) resolveSettings(override *model.Settings) (model.Settings, error) {
	if override != nil {
		if err := override.Validate(); err != nil {
			return model.Settings{}, err
		}
		return *override, nil
	}
	return s.DefaultSettings()
}

// tryLockStatement attempts to acquire the lock for a statement.
func (s *ReconciliationService) tryLockStatement(statementID string) bool {
	s.locksMutex.Lock()
	defer s.locksMutex.Unlock()

	if _, exists := s.statementLocks[statementID]; !exists {
		s.statementLocks[statementID] = &sync.Mutex{}
	}
	return s.statementLocks[statementID].TryLock()
}

// unlockStatement releases the lock for a statement.
func (s *ReconciliationService) unlockStatement(statementID string) {
	s.locksMutex.Lock()
	defer s.locksMutex.Unlock()

	if lock, exists := s.statementLocks[statementID]; exists {
		lock.Unlock()
	}
}

// toleranceWindow widens [from, to] by tolerance days on each side, covering
// whole calendar days.
func toleranceWindow(from, to time.Time, toleranceDays int) (time.Time, time.Time) {
	start := startOfDay(from).AddDate(0, 0, -toleranceDays)
	end := startOfDay(to).AddDate(0, 0, toleranceDays+1).Add(-time.Nanosecond)
	return start, end
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
