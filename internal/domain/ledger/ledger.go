// Package ledger maintains the per-request change notification state.
//
// The functions operate on a request value owned by the caller; the
// lifecycle engine applies them to a working copy before persisting it.
package ledger

import (
	"slices"

	"github.com/garyjia/trip-approval/internal/domain/entity"
)

// MarkModified records that actorID changed the request. Everyone except the
// actor now has unseen changes.
func MarkModified(r *entity.TripRequest, actorID int64) {
	r.IsModified = true
	r.LastModifiedActorID = actorID
	r.ViewedByIDs = []int64{actorID}
}

// MarkSeen adds viewerID to the set of viewers who saw the latest change.
// Calling it twice has the same effect as calling it once.
func MarkSeen(r *entity.TripRequest, viewerID int64) {
	if slices.Contains(r.ViewedByIDs, viewerID) {
		return
	}
	r.ViewedByIDs = append(r.ViewedByIDs, viewerID)
}

// HasUnread reports whether viewerID should see the changed indicator
func HasUnread(r *entity.TripRequest, viewerID int64) bool {
	if !r.IsModified || r.LastModifiedActorID == viewerID {
		return false
	}
	return !slices.Contains(r.ViewedByIDs, viewerID)
}

// Append adds entries to the change history
func Append(r *entity.TripRequest, entries ...entity.ChangeLog) {
	r.ChangeHistory = append(r.ChangeHistory, entries...)
}

// Reset clears the ledger for a new review cycle started by actorID
func Reset(r *entity.TripRequest, actorID int64) {
	r.IsModified = false
	r.ChangeHistory = []entity.ChangeLog{}
	r.ViewedByIDs = []int64{actorID}
}
