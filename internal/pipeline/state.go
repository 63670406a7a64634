package pipeline

// State is a step of a validation run. Every run starts in Fetching and
// ends in Done, passing through either Promoting or Rejected.
type State string

const (
	StateFetching    State = "fetching"
	StateDecoding    State = "decoding"
	StateNormalizing State = "normalizing"
	StateValidating  State = "validating"
	StatePromoting   State = "promoting"
	StateRejected    State = "rejected"
	StateDone        State = "done"
)
