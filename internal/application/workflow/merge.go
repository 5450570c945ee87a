package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/trip-approval/internal/domain/entity"
	domainwf "github.com/garyjia/trip-approval/internal/domain/workflow"
	"github.com/garyjia/trip-approval/pkg/utils"
)

// mergeDetails overlays changes on current and returns the merged details plus
// one change-log entry per field whose value actually differs.
func mergeDetails(current entity.TripDetails, changes TripChanges, role domainwf.Role, now time.Time) (entity.TripDetails, []entity.ChangeLog) {
	merged := current
	var entries []entity.ChangeLog

	diffString := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		nv := utils.SanitizeString(*v)
		if field == entity.FieldDestination {
			nv = strings.TrimSpace(nv)
		}
		if nv == *dst {
			return
		}
		entries = append(entries, entity.ChangeLog{
			Date:      now,
			ActorRole: role,
			FieldName: field,
			OldValue:  *dst,
			NewValue:  nv,
		})
		*dst = nv
	}

	diffString(entity.FieldDestination, &merged.Destination, changes.Destination)
	diffString(entity.FieldPurpose, &merged.Purpose, changes.Purpose)
	diffString(entity.FieldStartDate, &merged.StartDate, changes.StartDate)
	diffString(entity.FieldEndDate, &merged.EndDate, changes.EndDate)

	if changes.CostEstimate != nil && !changes.CostEstimate.Equal(merged.CostEstimate) {
		entries = append(entries, entity.ChangeLog{
			Date:      now,
			ActorRole: role,
			FieldName: entity.FieldCostEstimate,
			OldValue:  merged.CostEstimate.String(),
			NewValue:  changes.CostEstimate.String(),
		})
		merged.CostEstimate = *changes.CostEstimate
	}

	return merged, entries
}

func validateDetails(d entity.TripDetails) error {
	if strings.TrimSpace(d.Destination) == "" {
		return fmt.Errorf("%w: destination is required", entity.ErrValidation)
	}
	if err := utils.ValidateTripDates(d.StartDate, d.EndDate); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	if err := utils.ValidateCost(d.CostEstimate); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	return nil
}
