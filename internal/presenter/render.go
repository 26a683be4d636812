package presenter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/park285/Cheese-Predict-bot/internal/board"
	"github.com/park285/Cheese-Predict-bot/internal/predict"
	"github.com/park285/Cheese-Predict-bot/pkg/predictdto"
)

// Tone is the colour class attached to the outcome text and the bar.
type Tone string

const (
	ToneNone    Tone = ""
	ToneGreen   Tone = "green"
	ToneRed     Tone = "red"
	ToneGray    Tone = "gray"
	ToneNeutral Tone = "yellow"
)

var outcomeTones = map[string]Tone{
	predictdto.OutcomeWhiteWins: ToneGreen,
	predictdto.OutcomeBlackWins: ToneRed,
	predictdto.OutcomeDraw:      ToneGray,
}

// ToneFor maps an outcome label to its tone. Unknown labels are neutral.
func ToneFor(outcome string) Tone {
	if t, ok := outcomeTones[outcome]; ok {
		return t
	}
	return ToneNeutral
}

// MoveRow is one numbered row of the move table. Black is empty when
// White's move is the last one.
type MoveRow struct {
	Number int
	White  string
	Black  string
}

// View is everything Render writes, computed before any element is touched.
type View struct {
	Outcome         string
	Tone            Tone
	Confidence      float64
	BarWidth        float64
	ConfidenceLabel string
	WhiteProb       string
	BlackProb       string
	DrawProb        string
	Moves           []MoveRow
	FEN             string
}

// BuildView derives the view for res. It fails only when res cannot be
// rendered at all, so a failure never leaves a half-written page.
func BuildView(res *predictdto.Result) (*View, error) {
	if res == nil || strings.TrimSpace(res.Outcome) == "" {
		return nil, &predict.MalformedResponseError{Reason: "predicted_result missing"}
	}
	if res.FEN != "" {
		if _, err := board.ParseFEN(res.FEN); err != nil {
			return nil, &predict.MalformedResponseError{Reason: "invalid fen", Err: err}
		}
	}

	confidence := ParsePercent(res.Probability(res.Outcome))
	return &View{
		Outcome:         res.Outcome,
		Tone:            ToneFor(res.Outcome),
		Confidence:      confidence,
		BarWidth:        clampPercent(confidence),
		ConfidenceLabel: fmt.Sprintf("Confidence: %.1f%%", confidence),
		WhiteProb:       res.Probability(predictdto.OutcomeWhiteWins),
		BlackProb:       res.Probability(predictdto.OutcomeBlackWins),
		DrawProb:        res.Probability(predictdto.OutcomeDraw),
		Moves:           PairMoves(res.Moves),
		FEN:             res.FEN,
	}, nil
}

// ParsePercent reads "42.0%" or "42.0" as 42. Anything unparsable is 0.
func ParsePercent(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// PairMoves groups moves into numbered White/Black rows.
func PairMoves(moves []string) []MoveRow {
	if len(moves) == 0 {
		return nil
	}
	rows := make([]MoveRow, 0, (len(moves)+1)/2)
	for i := 0; i < len(moves); i += 2 {
		row := MoveRow{Number: i/2 + 1, White: moves[i]}
		if i+1 < len(moves) {
			row.Black = moves[i+1]
		}
		rows = append(rows, row)
	}
	return rows
}
