package predictdto

import "encoding/json"

// Outcome labels used by the backend, both as display text and as keys into
// class_probabilities.
const (
	OutcomeWhiteWins = "White wins"
	OutcomeBlackWins = "Black wins"
	OutcomeDraw      = "Draw"
)

// Prediction is the final-prediction block of a response.
type Prediction struct {
	PredictedResult    string            `json:"predicted_result"`
	ClassProbabilities map[string]string `json:"class_probabilities"`
}

// HistoryEntry is one element of the legacy per-move history array.
type HistoryEntry struct {
	MoveNumber    int               `json:"move_number"`
	Player        string            `json:"player"`
	Move          string            `json:"move"`
	Prediction    string            `json:"prediction"`
	Probabilities map[string]string `json:"probabilities"`
}

// Response is the union of every response shape the backend has produced.
// Only the fields of one shape are normally set.
type Response struct {
	FEN      string `json:"fen"`
	FinalFEN string `json:"final_fen"`

	Prediction *Prediction `json:"prediction"`

	PredictedResult    string            `json:"predicted_result"`
	ClassProbabilities map[string]string `json:"class_probabilities"`

	MovesSoFar []string `json:"moves_so_far"`
	AllMoves   []string `json:"all_moves"`

	History []HistoryEntry `json:"history"`
}

// ErrorBody is the body of a non-2xx response. Detail is raw because
// validation failures carry a list instead of a string.
type ErrorBody struct {
	Detail json.RawMessage `json:"detail"`
}
