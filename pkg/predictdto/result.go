package predictdto

// Schema identifies which response shape a Result was normalized from.
type Schema string

const (
	SchemaFinal   Schema = "final"
	SchemaFlat    Schema = "flat"
	SchemaHistory Schema = "history"
)

// Result is a prediction response normalized to a single shape.
type Result struct {
	Schema        Schema
	Outcome       string
	Probabilities map[string]string
	FEN           string
	Moves         []string
}

// Probability returns the probability string for label, or "" when absent.
func (r *Result) Probability(label string) string {
	if r == nil || r.Probabilities == nil {
		return ""
	}
	return r.Probabilities[label]
}
