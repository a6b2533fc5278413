package salescrm

import "strings"

// Status is a lead pipeline stage.
type Status string

// Canonical statuses, in pipeline order.
const (
	StatusNew           Status = "new"
	StatusQualified     Status = "qualified"
	StatusProposal      Status = "proposal"
	StatusClosedWon     Status = "closed_won"
	StatusNotInterested Status = "not_interested"
)

// StatusAll is the filter wildcard. It never appears on a stored lead.
const StatusAll Status = "all"

// Pipeline lists the canonical statuses in stage order.
var Pipeline = []Status{
	StatusNew,
	StatusQualified,
	StatusProposal,
	StatusClosedWon,
	StatusNotInterested,
}

// legacyStatuses maps values written by older clients to their canonical
// replacement.
var legacyStatuses = map[string]Status{
	"negotiation": StatusProposal,
	"won":         StatusClosedWon,
	"lost":        StatusNotInterested,
}

// NormalizeStatus maps a raw status string to its canonical value. Unknown
// values are returned trimmed and lower-cased but otherwise untouched, so
// NormalizeStatus never fails and NormalizeStatus(NormalizeStatus(s)) ==
// NormalizeStatus(s).
func NormalizeStatus(s string) Status {
	v := strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := legacyStatuses[v]; ok {
		return canonical
	}
	return Status(v)
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	return s.Stage() >= 0
}

// Stage returns the index of s in Pipeline, or -1.
func (s Status) Stage() int {
	for i, p := range Pipeline {
		if p == s {
			return i
		}
	}
	return -1
}

// Closed reports whether the lead left the active pipeline.
func (s Status) Closed() bool {
	return s == StatusClosedWon || s == StatusNotInterested
}

// ParseStatus normalizes s and rejects anything that is not canonical. Use it
// on every write path.
func ParseStatus(s string) (Status, error) {
	st := NormalizeStatus(s)
	if !st.Valid() {
		return st, ErrInvalidStatus
	}
	return st, nil
}
