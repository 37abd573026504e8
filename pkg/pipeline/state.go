package pipeline

// State is a step in the lifecycle of one request.
type State string

const (
	StateReceived     State = "RECEIVED"
	StateSearched     State = "SEARCHED"
	StateContextBuilt State = "CONTEXT_BUILT"
	StatePromptBuilt  State = "PROMPT_BUILT"
	StateGenerated    State = "GENERATED"
	StateSanitized    State = "SANITIZED"
	StateStored       State = "STORED"
	StateResponded    State = "RESPONDED"
	StateFailed       State = "FAILED"
)

// SuccessTrace is the full sequence of states a successful request passes
// through.
func SuccessTrace() []State {
	return []State{
		StateReceived,
		StateSearched,
		StateContextBuilt,
		StatePromptBuilt,
		StateGenerated,
		StateSanitized,
		StateStored,
		StateResponded,
	}
}
