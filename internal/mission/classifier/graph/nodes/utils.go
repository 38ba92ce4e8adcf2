package nodes

const (
	NodeInputConverter  = "InputConverter"
	NodeIntentChatModel = "IntentChatModel"
	NodeParser          = "Parser"
	NodeAccept          = "AcceptIntent"
	NodeReject          = "RejectIntent"
)

// DefaultMinConfidence is used when the graph is built with a non-positive threshold.
const DefaultMinConfidence = 0.4

func normalizeMinConfidence(v float64) float64 {
	if v <= 0 || v > 1 {
		return DefaultMinConfidence
	}
	return v
}
