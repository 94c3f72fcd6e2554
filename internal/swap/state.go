package swap

// State tracks a swap request through the pipeline. Transitions are
// strictly forward; any stage failure moves the request to StateFailed.
type State string

const (
	StateReceived  State = "RECEIVED"
	StateValidated State = "VALIDATED"
	StateQuoted    State = "QUOTED"
	StateBuilt     State = "BUILT"
	StateSigned    State = "SIGNED"
	StateSubmitted State = "SUBMITTED"
	StateFailed    State = "FAILED"
)
