package shipment

// Status represents the lifecycle of a shipment. There is no first-class
// "expired" status: an expired load offer cancels the shipment with reason
// "offer_expired" rather than introducing a ninth state.
type Status string

const (
	StatusPosted    Status = "posted"
	StatusMatched   Status = "matched"
	StatusAccepted  Status = "accepted"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
	StatusDisputed  Status = "disputed"
	StatusCancelled Status = "cancelled"
)

// ValidTransitions is the single source of truth for shipment status changes.
// Anything absent here is rejected before the write is applied.
var ValidTransitions = map[Status][]Status{
	StatusPosted:    {StatusMatched, StatusCancelled},
	StatusMatched:   {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusCompleted, StatusDisputed},
	StatusDisputed:  {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether moving from one status to the next is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range ValidTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func IsTerminal(s Status) bool {
	return len(ValidTransitions[s]) == 0
}
