package predict

import (
	"strings"

	"github.com/park285/Cheese-Predict-bot/pkg/predictdto"
)

// legacy history entries key probabilities by side instead of by label.
var historyProbabilityKeys = map[string]string{
	"white": predictdto.OutcomeWhiteWins,
	"black": predictdto.OutcomeBlackWins,
	"draw":  predictdto.OutcomeDraw,
}

// Normalize maps any known response shape onto a single Result.
//
// A prediction block wins over top-level fields, which win over the legacy
// history array. Of the history only the last entry is used; per-move
// predictions are not carried over.
func Normalize(resp *predictdto.Response) (*predictdto.Result, error) {
	if resp == nil {
		return nil, &MalformedResponseError{Reason: "empty body"}
	}

	res := &predictdto.Result{
		FEN:   firstNonEmpty(resp.FEN, resp.FinalFEN),
		Moves: cleanMoves(resp.MovesSoFar),
	}
	if len(res.Moves) == 0 {
		res.Moves = cleanMoves(resp.AllMoves)
	}

	switch {
	case resp.Prediction != nil:
		res.Schema = predictdto.SchemaFinal
		res.Outcome = strings.TrimSpace(resp.Prediction.PredictedResult)
		res.Probabilities = copyProbabilities(resp.Prediction.ClassProbabilities)
	case strings.TrimSpace(resp.PredictedResult) != "":
		res.Schema = predictdto.SchemaFlat
		res.Outcome = strings.TrimSpace(resp.PredictedResult)
		res.Probabilities = copyProbabilities(resp.ClassProbabilities)
	case len(resp.History) > 0:
		last := resp.History[len(resp.History)-1]
		res.Schema = predictdto.SchemaHistory
		res.Outcome = strings.TrimSpace(last.Prediction)
		res.Probabilities = make(map[string]string, len(last.Probabilities))
		for k, v := range last.Probabilities {
			if label, ok := historyProbabilityKeys[strings.ToLower(strings.TrimSpace(k))]; ok {
				res.Probabilities[label] = v
			}
		}
	default:
		return nil, &MalformedResponseError{Reason: "no prediction in response"}
	}

	if res.Outcome == "" {
		return nil, &MalformedResponseError{Reason: "predicted_result missing"}
	}
	return res, nil
}

func cleanMoves(moves []string) []string {
	if len(moves) == 0 {
		return nil
	}
	out := make([]string, 0, len(moves))
	for _, mv := range moves {
		if s := strings.TrimSpace(mv); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func copyProbabilities(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
