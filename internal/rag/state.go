package rag

// State is the lifecycle stage of a query inside the pipeline. A query moves
// strictly forward through the happy path; Failed is terminal and records
// the stage that produced the error via PipelineError.
type State int

const (
	// StateReceived is the initial state after query validation.
	StateReceived State = iota

	// StateEmbedding covers query embedding generation.
	StateEmbedding

	// StateRetrieving covers the vector index search.
	StateRetrieving

	// StateComposing covers prompt assembly from retrieved passages.
	StateComposing

	// StateGenerating covers the model call.
	StateGenerating

	// StateCompleted is the terminal success state.
	StateCompleted

	// StateFailed is the terminal failure state.
	StateFailed
)

// String returns the lowercase stage name used in logs and error messages.
func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateEmbedding:
		return "embedding"
	case StateRetrieving:
		return "retrieving"
	case StateComposing:
		return "composing"
	case StateGenerating:
		return "generating"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
