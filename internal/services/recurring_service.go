package services

import (
	"errors"
	"time"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/store"
	"moneta/internal/uuid"
)

// recurringService handles recurring definitions, the reconciliation
// engine, and the generated-instance tracker.
type recurringService struct {
	store         *store.Store
	horizonMonths int
}

// NewRecurringService creates a new RecurringServicer generating instances
// up to now + horizonMonths.
func NewRecurringService(st *store.Store, horizonMonths int) RecurringServicer {
	if horizonMonths < 1 {
		horizonMonths = 3
	}
	return &recurringService{store: st, horizonMonths: horizonMonths}
}

// validateRecurringInput checks schedule and account references before any
// state change.
func validateRecurringInput(tx *store.Tx, input *RecurringInput) error {
	if input.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.StartDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return apperrors.WithMessage(apperrors.ErrInvalidSchedule, "end date precedes start date")
	}

	switch input.Frequency {
	case models.FrequencyWeekly:
		if input.DayOfWeek != nil && (*input.DayOfWeek < 0 || *input.DayOfWeek > 6) {
			return apperrors.WithMessage(apperrors.ErrInvalidSchedule, "day of week must be between 0 and 6")
		}
		input.DayOfMonth = nil
	case models.FrequencyMonthly:
		if input.DayOfMonth != nil && (*input.DayOfMonth < 1 || *input.DayOfMonth > 31) {
			return apperrors.WithMessage(apperrors.ErrInvalidSchedule, "day of month must be between 1 and 31")
		}
		input.DayOfWeek = nil
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidSchedule, "frequency must be weekly or monthly")
	}

	switch input.Type {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
		input.ToAccountID = nil
	case models.TransactionTypeTransfer:
		if input.ToAccountID == nil {
			return apperrors.ErrMissingTransferAccount
		}
		if *input.ToAccountID == input.AccountID {
			return apperrors.ErrSameAccountTransfer
		}
		if _, ok := tx.Account(*input.ToAccountID); !ok {
			return apperrors.WithMessage(apperrors.ErrAccountNotFound, "Destination account not found")
		}
	default:
		return apperrors.ErrInvalidTransactionType
	}

	if _, ok := tx.Account(input.AccountID); !ok {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// CreateDefinition stores a new recurring definition and immediately
// reconciles it, generating instances forward from its start date.
func (s *recurringService) CreateDefinition(input RecurringInput) (*models.RecurringDefinition, error) {
	now := time.Now().UTC()

	var def models.RecurringDefinition
	err := s.store.Update(func(tx *store.Tx) error {
		if err := validateRecurringInput(tx, &input); err != nil {
			return err
		}

		def = models.RecurringDefinition{
			ID:          uuid.New(),
			Type:        input.Type,
			Amount:      input.Amount,
			AccountID:   input.AccountID,
			ToAccountID: input.ToAccountID,
			Frequency:   input.Frequency,
			StartDate:   DateOnly(input.StartDate),
			DayOfWeek:   input.DayOfWeek,
			DayOfMonth:  input.DayOfMonth,
			Category:    input.Category,
			AutoApprove: input.AutoApprove,
			CreatedAt:   now,
		}
		if input.EndDate != nil {
			e := DateOnly(*input.EndDate)
			def.EndDate = &e
		}
		tx.PutRecurringDefinition(def)

		s.reconcileDefinition(tx, def, now, s.horizon(now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// GetDefinitions retrieves a paginated list of recurring definitions.
func (s *recurringService) GetDefinitions(page pagination.PageRequest) (*pagination.PageResponse[models.RecurringDefinition], error) {
	page.Defaults()

	var defs []models.RecurringDefinition
	_ = s.store.View(func(tx *store.Tx) error {
		defs = tx.RecurringDefinitions()
		return nil
	})

	result := pagination.Slice(defs, page)
	return &result, nil
}

// GetDefinitionByID retrieves a recurring definition by id.
func (s *recurringService) GetDefinitionByID(recurringID string) (*models.RecurringDefinition, error) {
	var def models.RecurringDefinition
	err := s.store.View(func(tx *store.Tx) error {
		r, ok := tx.RecurringDefinition(recurringID)
		if !ok {
			return apperrors.ErrRecurringNotFound
		}
		def = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// UpdateDefinition replaces a definition's fields and re-reconciles it.
// Future untouched instances are regenerated under the new rule; past and
// already-decided instances, and any materialized transactions, are left
// exactly as they were.
func (s *recurringService) UpdateDefinition(recurringID string, input RecurringInput) (*models.RecurringDefinition, error) {
	now := time.Now().UTC()

	var def models.RecurringDefinition
	err := s.store.Update(func(tx *store.Tx) error {
		existing, ok := tx.RecurringDefinition(recurringID)
		if !ok {
			return apperrors.ErrRecurringNotFound
		}
		if err := validateRecurringInput(tx, &input); err != nil {
			return err
		}

		def = existing
		def.Type = input.Type
		def.Amount = input.Amount
		def.AccountID = input.AccountID
		def.ToAccountID = input.ToAccountID
		def.Frequency = input.Frequency
		def.StartDate = DateOnly(input.StartDate)
		def.EndDate = nil
		if input.EndDate != nil {
			e := DateOnly(*input.EndDate)
			def.EndDate = &e
		}
		def.DayOfWeek = input.DayOfWeek
		def.DayOfMonth = input.DayOfMonth
		def.Category = input.Category
		def.AutoApprove = input.AutoApprove
		tx.PutRecurringDefinition(def)

		s.reconcileDefinition(tx, def, now, s.horizon(now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// DeleteDefinition removes a definition and all its tracker instances,
// decided or not. Transactions already materialized from approved
// instances are real ledger history and stay, with their recurring link
// severed so they no longer point at a missing definition.
func (s *recurringService) DeleteDefinition(recurringID string) error {
	return s.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.RecurringDefinition(recurringID); !ok {
			return apperrors.ErrRecurringNotFound
		}

		for _, inst := range tx.InstancesByRecurring(recurringID) {
			tx.DeleteInstance(inst.ID)
		}
		for _, t := range tx.Transactions() {
			if t.RecurringID != nil && *t.RecurringID == recurringID {
				t.RecurringID = nil
				tx.PutTransaction(t)
			}
		}
		tx.DeleteRecurringDefinition(recurringID)
		return nil
	})
}

// horizon computes the rolling generation boundary for a processing time.
func (s *recurringService) horizon(now time.Time) time.Time {
	return DateOnly(now).AddDate(0, s.horizonMonths, 0)
}

// Reconcile regenerates instances for every definition up to the
// configured horizon.
func (s *recurringService) Reconcile(now time.Time) error {
	return s.ReconcileWindow(now, s.horizon(now))
}

// ReconcileWindow runs the reconciliation algorithm over all definitions
// with an explicit horizon. Idempotent: re-running with the same inputs
// has no effect beyond picking up newly-reachable due dates.
func (s *recurringService) ReconcileWindow(now, horizon time.Time) error {
	return s.store.Update(func(tx *store.Tx) error {
		for _, def := range tx.RecurringDefinitions() {
			s.reconcileDefinition(tx, def, now, horizon)
		}
		return nil
	})
}

// reconcileDefinition brings one definition's instance set in line with its
// schedule:
//
//  1. Purge future instances that are still pending. Past instances and
//     decided ones (approved or skipped) are never touched.
//  2. Generate due dates up to the horizon.
//  3. Create an instance for every due date that has none, pre-allocating
//     its transaction id. Existing (recurring, due date) pairs are left
//     alone, which is what makes re-runs idempotent.
//  4. Auto-approve definitions materialize immediately; a definition whose
//     account has been deleted is reported and its instances stay pending.
func (s *recurringService) reconcileDefinition(tx *store.Tx, def models.RecurringDefinition, now, horizon time.Time) {
	today := DateOnly(now)

	for _, inst := range tx.InstancesByRecurring(def.ID) {
		if inst.Pending() && !inst.DueDate.Before(today) {
			tx.DeleteInstance(inst.ID)
		}
	}

	for _, dueDate := range GenerateDueDates(def, horizon) {
		if _, ok := tx.InstanceByDueDate(def.ID, dueDate); ok {
			continue
		}

		inst := models.GeneratedInstance{
			ID:            uuid.New(),
			RecurringID:   def.ID,
			TransactionID: uuid.New(),
			DueDate:       dueDate,
		}

		if def.AutoApprove {
			if err := materializeInstance(tx, def, &inst); err != nil {
				// Data-integrity gap, not a crash: leave the instance
				// pending and un-approvable until the reference is fixed.
				logger.Get().Warnw("skipping materialization",
					"recurring_id", def.ID,
					"due_date", dueDate.Format("2006-01-02"),
					"error", err,
				)
			}
		}

		tx.PutInstance(inst)
	}
}

// materializeInstance creates the real ledger transaction for an instance
// using its pre-allocated transaction id, applies the balance delta, and
// marks the instance approved.
func materializeInstance(tx *store.Tx, def models.RecurringDefinition, inst *models.GeneratedInstance) error {
	if _, ok := tx.Account(def.AccountID); !ok {
		return apperrors.ErrRecurringAccountMissing
	}
	if def.Type == models.TransactionTypeTransfer {
		if def.ToAccountID == nil {
			return apperrors.ErrMissingTransferAccount
		}
		if _, ok := tx.Account(*def.ToAccountID); !ok {
			return apperrors.ErrRecurringAccountMissing
		}
	}

	recurringID := def.ID
	transaction := models.Transaction{
		ID:          inst.TransactionID,
		Type:        def.Type,
		Amount:      def.Amount,
		AccountID:   def.AccountID,
		ToAccountID: def.ToAccountID,
		Date:        inst.DueDate,
		Category:    def.Category,
		Approved:    true,
		IsRecurring: true,
		RecurringID: &recurringID,
		CreatedAt:   time.Now().UTC(),
	}
	tx.PutTransaction(transaction)
	tx.ApplyBalanceDelta(transaction)

	inst.Approved = true
	return nil
}

// GetInstances retrieves generated instances ordered by due date,
// optionally restricted to pending ones.
func (s *recurringService) GetInstances(pendingOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.GeneratedInstance], error) {
	page.Defaults()

	var instances []models.GeneratedInstance
	_ = s.store.View(func(tx *store.Tx) error {
		for _, inst := range tx.Instances() {
			if pendingOnly && !inst.Pending() {
				continue
			}
			instances = append(instances, inst)
		}
		return nil
	})

	result := pagination.Slice(instances, page)
	return &result, nil
}

// ApproveInstance materializes the pending transaction for an instance and
// flips it to approved, a terminal transition. Approving an already
// decided instance is a no-op.
func (s *recurringService) ApproveInstance(instanceID string) (*models.GeneratedInstance, error) {
	var instance models.GeneratedInstance
	err := s.store.Update(func(tx *store.Tx) error {
		inst, ok := tx.Instance(instanceID)
		if !ok {
			return apperrors.ErrInstanceNotFound
		}
		if !inst.Pending() {
			instance = inst
			return nil
		}

		def, ok := tx.RecurringDefinition(inst.RecurringID)
		if !ok {
			// Definition deletes cascade to instances, so this indicates a
			// corrupted snapshot rather than a normal race.
			return apperrors.Wrap(apperrors.ErrRecurringNotFound, errors.New("instance orphaned from its definition"))
		}

		if err := materializeInstance(tx, def, &inst); err != nil {
			return err
		}
		tx.PutInstance(inst)
		instance = inst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// SkipInstance flips a pending instance to skipped, a terminal transition
// with no ledger effect. Skipping an already decided instance is a no-op.
func (s *recurringService) SkipInstance(instanceID string) (*models.GeneratedInstance, error) {
	var instance models.GeneratedInstance
	err := s.store.Update(func(tx *store.Tx) error {
		inst, ok := tx.Instance(instanceID)
		if !ok {
			return apperrors.ErrInstanceNotFound
		}
		if inst.Pending() {
			inst.Skipped = true
			tx.PutInstance(inst)
		}
		instance = inst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// BulkApprove applies ApproveInstance to each id independently and reports
// per-id outcomes. A stale or failing id never blocks its siblings.
func (s *recurringService) BulkApprove(instanceIDs []string) []BulkApproveResult {
	results := make([]BulkApproveResult, 0, len(instanceIDs))
	for _, id := range instanceIDs {
		result := BulkApproveResult{InstanceID: id, OK: true}
		if _, err := s.ApproveInstance(id); err != nil {
			result.OK = false
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				result.Code = appErr.Code
				result.Message = appErr.Message
			} else {
				result.Code = apperrors.ErrInternalServer.Code
				result.Message = err.Error()
			}
		}
		results = append(results, result)
	}
	return results
}
