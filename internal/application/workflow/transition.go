package workflow

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/ledger"
	domainwf "github.com/garyjia/trip-approval/internal/domain/workflow"
	"github.com/garyjia/trip-approval/pkg/utils"
)

// Outcome is the result of applying an action to a request
type Outcome struct {
	Request *entity.TripRequest
	From    domainwf.State
	To      domainwf.State
	Trigger domainwf.Trigger
	// Entries are the change-log entries this action appended
	Entries []entity.ChangeLog
	// Changed is false for actions that left the request as it was
	Changed bool
	// Dropped are the attachments a document update removed from the request
	Dropped []entity.FileAttachment
}

// StatusChanged reports whether the action moved the request to another status
func (o *Outcome) StatusChanged() bool {
	return o.Trigger != "" && o.From != o.To
}

// Apply computes the effect of act on req. The input request is not modified;
// the returned outcome holds an updated copy. Checks run in the order
// not found, invalid transition, forbidden, validation.
func Apply(req *entity.TripRequest, act Action, now time.Time) (*Outcome, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: id %d", entity.ErrNotFound, act.RequestID)
	}

	next := req.Clone()
	out := &Outcome{Request: next, From: req.Status, To: req.Status, Changed: true}

	var err error
	switch act.Kind {
	case ActionApprove, ActionModify:
		err = applyDecision(out, act, now)
	case ActionReject:
		err = applyReject(out, act, now)
	case ActionResubmit:
		err = applyResubmit(out, act, now)
	case ActionMarkSeen:
		ledger.MarkSeen(next, act.ActorID)
		return out, nil
	case ActionSetFulfillmentStatus:
		err = applyFulfillment(out, act, now)
	case ActionAddReport:
		err = applyReport(out, act, now)
	case ActionUpdateDocuments:
		err = applyDocuments(out, act, now)
	default:
		err = fmt.Errorf("%w: unknown action %q", entity.ErrValidation, act.Kind)
	}
	if err != nil {
		return nil, err
	}

	if out.Changed {
		next.UpdatedAt = now
	}
	return out, nil
}

// NewRequest builds a freshly submitted request awaiting its manager
func NewRequest(in CreateInput, now time.Time) (*entity.TripRequest, error) {
	if in.EmployeeID <= 0 {
		return nil, fmt.Errorf("%w: employee id is required", entity.ErrValidation)
	}
	details := in.Details
	details.Destination = strings.TrimSpace(utils.SanitizeString(details.Destination))
	details.Purpose = utils.SanitizeString(details.Purpose)
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	status := domainwf.StateAwaitingManager
	return &entity.TripRequest{
		EmployeeID:          in.EmployeeID,
		TripDetails:         details,
		Status:              status,
		CurrentApproverRole: domainwf.ApproverFor(status),
		Approvals: []entity.Approval{{
			Role:    domainwf.RoleEmployee,
			ActorID: in.EmployeeID,
			Action:  entity.ActionResubmitted,
			Comment: entity.CommentSubmitted,
			Date:    now,
		}},
		FulfillmentStatus: entity.FulfillmentWaitingDates,
		PassportPhotos:    append([]entity.FileAttachment{}, in.PassportPhotos...),
		TravelTickets:     []entity.FileAttachment{},
		HotelBookings:     []entity.FileAttachment{},
		ReceiptFiles:      []entity.FileAttachment{},
		ChangeHistory:     []entity.ChangeLog{},
		ViewedByIDs:       []int64{in.EmployeeID},
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// transition resolves the target state and checks the actor is the current approver
func transition(out *Outcome, act Action, trigger domainwf.Trigger) error {
	req := out.Request
	to, err := domainwf.Next(req.Status, trigger)
	if err != nil {
		return fmt.Errorf("%s on request %d in status %s: %w", act.Kind, req.ID, req.Status, err)
	}
	if req.CurrentApproverRole != act.ActorRole {
		return fmt.Errorf("%w: %s may not %s a request awaiting %s", entity.ErrForbidden, act.ActorRole, act.Kind, req.CurrentApproverRole)
	}
	out.Trigger = trigger
	out.To = to
	return nil
}

// enter moves the request to the resolved state and its approver
func enter(out *Outcome) {
	out.Request.Status = out.To
	out.Request.CurrentApproverRole = domainwf.ApproverFor(out.To)
}

func record(out *Outcome, entries ...entity.ChangeLog) {
	ledger.Append(out.Request, entries...)
	out.Entries = append(out.Entries, entries...)
}

// applyDecision handles approve and modify. Field changes turn the decision
// into a modification; a modification without changes counts as approval.
func applyDecision(out *Outcome, act Action, now time.Time) error {
	req := out.Request
	if act.Kind == ActionModify {
		if err := checkModify(req, act); err != nil {
			return err
		}
	}
	merged, entries := mergeDetails(req.TripDetails, act.Changes, act.ActorRole, now)

	trigger := domainwf.TriggerApproved
	if len(entries) > 0 {
		trigger = domainwf.TriggerModified
	}
	if err := transition(out, act, trigger); err != nil {
		return err
	}
	if len(entries) > 0 {
		if err := validateDetails(merged); err != nil {
			return err
		}
	}

	action := entity.ActionApproved
	if trigger == domainwf.TriggerModified {
		action = entity.ActionModified
		req.TripDetails = merged
		record(out, entries...)
		ledger.MarkModified(req, act.ActorID)
	}
	enter(out)
	req.Approvals = append(req.Approvals, entity.Approval{
		Role:    act.ActorRole,
		ActorID: act.ActorID,
		Action:  action,
		Comment: act.Comment,
		Date:    now,
	})
	return nil
}

// modifyStage is the status in which each editing role may modify a request
var modifyStage = map[domainwf.Role]domainwf.State{
	domainwf.RoleManager: domainwf.StateAwaitingManager,
	domainwf.RoleFinance: domainwf.StateAwaitingFinance,
}

// checkModify allows modify only to manager and finance at their own stage
func checkModify(req *entity.TripRequest, act Action) error {
	stage, ok := modifyStage[act.ActorRole]
	if !ok {
		return fmt.Errorf("%w: %s may not modify requests", entity.ErrForbidden, act.ActorRole)
	}
	if req.Status != stage {
		return fmt.Errorf("%w: %s modifies only requests in %s, request %d is %s",
			entity.ErrInvalidTransition, act.ActorRole, stage, req.ID, req.Status)
	}
	return nil
}

func applyReject(out *Outcome, act Action, now time.Time) error {
	req := out.Request
	if err := transition(out, act, domainwf.TriggerRejected); err != nil {
		return err
	}

	if out.From == domainwf.StateAwaitingReportApproval {
		req.ReportAdded = false
	}
	enter(out)
	req.Approvals = append(req.Approvals, entity.Approval{
		Role:    act.ActorRole,
		ActorID: act.ActorID,
		Action:  entity.ActionRejected,
		Comment: act.Comment,
		Date:    now,
	})
	record(out, entity.ChangeLog{
		Date:      now,
		ActorRole: act.ActorRole,
		FieldName: entity.FieldStatus,
		OldValue:  out.From.String(),
		NewValue:  out.To.String(),
	})
	ledger.MarkModified(req, act.ActorID)
	return nil
}

// applyResubmit sends a revised request back to the manager and starts a new
// review cycle. Documents are kept.
func applyResubmit(out *Outcome, act Action, now time.Time) error {
	req := out.Request
	if err := transition(out, act, domainwf.TriggerResubmit); err != nil {
		return err
	}
	if !req.IsOwnedBy(act.ActorID) {
		return fmt.Errorf("%w: only the creator may resubmit request %d", entity.ErrForbidden, req.ID)
	}

	merged, _ := mergeDetails(req.TripDetails, act.Changes, act.ActorRole, now)
	if err := validateDetails(merged); err != nil {
		return err
	}

	comment := act.Comment
	if comment == "" {
		comment = entity.CommentResubmitted
	}
	req.TripDetails = merged
	enter(out)
	ledger.Reset(req, act.ActorID)
	req.Approvals = append(req.Approvals, entity.Approval{
		Role:    act.ActorRole,
		ActorID: act.ActorID,
		Action:  entity.ActionResubmitted,
		Comment: comment,
		Date:    now,
	})
	return nil
}

func applyFulfillment(out *Outcome, act Action, now time.Time) error {
	req := out.Request
	if req.Status != domainwf.StateAwaitingEmployeeAction {
		return fmt.Errorf("%w: fulfillment can only change in %s, request %d is %s",
			entity.ErrInvalidTransition, domainwf.StateAwaitingEmployeeAction, req.ID, req.Status)
	}
	if act.ActorRole != domainwf.RoleEmployee {
		return fmt.Errorf("%w: only the employee sets fulfillment status", entity.ErrForbidden)
	}
	if !act.FulfillmentStatus.IsValid() {
		return fmt.Errorf("%w: unknown fulfillment status %q", entity.ErrValidation, act.FulfillmentStatus)
	}
	if act.FulfillmentStatus == req.FulfillmentStatus {
		out.Changed = false
		return nil
	}

	old := req.FulfillmentStatus
	req.FulfillmentStatus = act.FulfillmentStatus
	record(out, entity.ChangeLog{
		Date:      now,
		ActorRole: act.ActorRole,
		FieldName: entity.FieldFulfillmentStatus,
		OldValue:  string(old),
		NewValue:  string(act.FulfillmentStatus),
	})
	ledger.MarkModified(req, act.ActorID)
	return nil
}

func applyReport(out *Outcome, act Action, now time.Time) error {
	req := out.Request
	if err := transition(out, act, domainwf.TriggerReportAdded); err != nil {
		return err
	}
	text := strings.TrimSpace(utils.SanitizeString(act.ReportText))
	if text == "" {
		return fmt.Errorf("%w: report text is required", entity.ErrValidation)
	}

	req.ReportText = text
	req.ReportAdded = true
	enter(out)
	record(out, entity.ChangeLog{
		Date:      now,
		ActorRole: act.ActorRole,
		FieldName: entity.FieldReport,
		OldValue:  "not submitted",
		NewValue:  "submitted for review",
	})
	ledger.MarkModified(req, act.ActorID)
	req.Approvals = append(req.Approvals, entity.Approval{
		Role:    act.ActorRole,
		ActorID: act.ActorID,
		Action:  entity.ActionResubmitted,
		Comment: entity.CommentReportSubmitted,
		Date:    now,
	})
	return nil
}

func applyDocuments(out *Outcome, act Action, now time.Time) error {
	req := out.Request
	policy, ok := act.DocumentType.Policy()
	if !ok {
		return fmt.Errorf("%w: unknown document type %q", entity.ErrValidation, act.DocumentType)
	}
	if !policy.Writable(req.Status) {
		return fmt.Errorf("%w: %s documents cannot change while request %d is %s",
			entity.ErrInvalidTransition, act.DocumentType, req.ID, req.Status)
	}
	if act.ActorRole != policy.Owner {
		return fmt.Errorf("%w: %s documents belong to %s", entity.ErrForbidden, act.DocumentType, policy.Owner)
	}

	current := req.Documents(act.DocumentType)
	before := len(current)
	files := resolveDocuments(current, act.Files, act.Keep)
	out.Dropped = droppedFiles(current, files)
	req.SetDocuments(act.DocumentType, files)
	if !policy.Notify {
		return nil
	}

	record(out, entity.ChangeLog{
		Date:      now,
		ActorRole: act.ActorRole,
		FieldName: act.DocumentType.String(),
		OldValue:  fileCount(before),
		NewValue:  fileCount(len(files)),
	})
	ledger.MarkModified(req, act.ActorID)
	return nil
}

// resolveDocuments builds the new collection; see Action.Keep
func resolveDocuments(current, added []entity.FileAttachment, keep []string) []entity.FileAttachment {
	if keep == nil {
		return slices.Clone(added)
	}
	files := make([]entity.FileAttachment, 0, len(current)+len(added))
	for _, f := range current {
		if slices.Contains(keep, f.URL) {
			files = append(files, f)
		}
	}
	return append(files, added...)
}

// droppedFiles returns the files of before whose URL is absent from after
func droppedFiles(before, after []entity.FileAttachment) []entity.FileAttachment {
	var dropped []entity.FileAttachment
	for _, f := range before {
		if !slices.ContainsFunc(after, func(a entity.FileAttachment) bool { return a.URL == f.URL }) {
			dropped = append(dropped, f)
		}
	}
	return dropped
}

func fileCount(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
