package analysis

import (
	"strings"

	"inspectdash/domain/inspection"
)

// OwnerPlaceholder is the owner selector entry that selects nobody
const OwnerPlaceholder = "Seleccionar..."

// OwnerDetail is one owner's pending work within a filtered view
type OwnerDetail struct {
	Owner        string                   `json:"owner"`
	Pending      []inspection.Observation `json:"pending"`
	Congratulate bool                     `json:"congratulate"`
}

// PendingCount is the number of pending observations
func (d OwnerDetail) PendingCount() int {
	return len(d.Pending)
}

// OwnerOptions returns the sorted distinct owners of view, without blanks
func OwnerOptions(view *inspection.RecordSet) []string {
	if view == nil {
		return []string{}
	}
	return distinct(view.Observations, func(o inspection.Observation) string { return o.Owner })
}

// Owner returns the pending observations of owner in view, in sheet order.
// The name is trimmed and then compared exactly. An owner with nothing
// pending, including one not present in view, gets the congratulation state.
func Owner(view *inspection.RecordSet, owner string) OwnerDetail {
	owner = strings.TrimSpace(owner)
	detail := OwnerDetail{Owner: owner, Pending: []inspection.Observation{}}
	if view != nil && owner != "" {
		for _, o := range view.Observations {
			if o.Owner == owner && o.IsPending() {
				detail.Pending = append(detail.Pending, o)
			}
		}
	}
	detail.Congratulate = len(detail.Pending) == 0
	return detail
}

// IsOwnerSelected reports whether owner names somebody rather than the placeholder
func IsOwnerSelected(owner string) bool {
	owner = strings.TrimSpace(owner)
	return owner != "" && owner != OwnerPlaceholder
}
