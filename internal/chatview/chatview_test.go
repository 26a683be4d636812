package chatview

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/park285/Cheese-Predict-bot/internal/predict"
	"github.com/park285/Cheese-Predict-bot/internal/presenter"
	"github.com/park285/Cheese-Predict-bot/internal/util"
	"github.com/park285/Cheese-Predict-bot/pkg/predictdto"
)

type sent struct {
	kind string
	room string
	data string
}

type recordingEgress struct {
	mu   sync.Mutex
	out  []sent
	fail error
}

func (e *recordingEgress) SendText(_ context.Context, room, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail != nil {
		return e.fail
	}
	e.out = append(e.out, sent{"text", room, message})
	return nil
}

func (e *recordingEgress) SendImage(_ context.Context, room, b64 string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail != nil {
		return e.fail
	}
	e.out = append(e.out, sent{"image", room, b64})
	return nil
}

type fixedPredictor struct {
	res *predictdto.Result
	err error
}

func (f fixedPredictor) Predict(context.Context, string) (*predictdto.Result, error) {
	return f.res, f.err
}

func resultWithMoves(n int) *predictdto.Result {
	moves := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			moves = append(moves, "Nf3")
		} else {
			moves = append(moves, "Nf6")
		}
	}
	return &predictdto.Result{
		Schema:  predictdto.SchemaFinal,
		Outcome: predictdto.OutcomeWhiteWins,
		Probabilities: map[string]string{
			predictdto.OutcomeWhiteWins: "70.00%",
			predictdto.OutcomeBlackWins: "10.00%",
			predictdto.OutcomeDraw:      "20.00%",
		},
		FEN:   "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2",
		Moves: moves,
	}
}

func newWiredPage(t *testing.T, pred presenter.Predictor) (*Page, *presenter.Presenter, *Deliverer, *recordingEgress) {
	t.Helper()
	page := NewPage("room-1", nil)
	eg := &recordingEgress{}
	f := NewFormatter(nil, "!")
	d := NewDeliverer(eg, f, nil)
	p, err := presenter.New(pred, page.Elements(), presenter.WithMessages(f.Messages()))
	if err != nil {
		t.Fatalf("presenter.New: %v", err)
	}
	return page, p, d, eg
}

func TestFlushSendsResultAndBoard(t *testing.T) {
	page, p, d, eg := newWiredPage(t, fixedPredictor{res: resultWithMoves(3)})
	ctx := context.Background()
	if err := p.Submit(ctx, "alice"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.Flush(ctx, page); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(eg.out) != 2 {
		t.Fatalf("sent %d messages", len(eg.out))
	}
	text := eg.out[0]
	if text.kind != "text" || text.room != "room-1" {
		t.Fatalf("first message = %+v", text)
	}
	for _, want := range []string{"🟢", predictdto.OutcomeWhiteWins, "Confidence: 70.0%", "70.00%", "10.00%", "20.00%", "1. Nf3 Nf6", "2. Nf3"} {
		if !strings.Contains(text.data, want) {
			t.Fatalf("result text missing %q:\n%s", want, text.data)
		}
	}
	img := eg.out[1]
	if img.kind != "image" {
		t.Fatalf("second message = %s", img.kind)
	}
	raw, err := base64.StdEncoding.DecodeString(img.data)
	if err != nil || len(raw) < 8 || string(raw[1:4]) != "PNG" {
		t.Fatalf("image payload is not a PNG")
	}
}

func TestFlushAfterErrorSendsDetail(t *testing.T) {
	page, p, d, eg := newWiredPage(t, fixedPredictor{err: &predict.RequestError{Status: 404, Detail: "User not found or is not currently in a game."}})
	ctx := context.Background()
	if err := p.Submit(ctx, "ghost"); err == nil {
		t.Fatalf("expected error")
	}
	if err := d.Flush(ctx, page); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(eg.out) != 1 || eg.out[0].data != "User not found or is not currently in a game." {
		t.Fatalf("sent = %+v", eg.out)
	}
}

func TestValidationUsesCatalogMessage(t *testing.T) {
	page, p, d, eg := newWiredPage(t, fixedPredictor{res: resultWithMoves(1)})
	ctx := context.Background()
	var verr *presenter.ValidationError
	if err := p.Submit(ctx, "  "); !errors.As(err, &verr) {
		t.Fatalf("err = %v", err)
	}
	if err := d.Flush(ctx, page); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(eg.out) != 1 || eg.out[0].data != "Lichess 아이디를 입력해 주세요." {
		t.Fatalf("sent = %+v", eg.out)
	}
}

func TestSnapshotTracksState(t *testing.T) {
	page, p, _, _ := newWiredPage(t, fixedPredictor{res: resultWithMoves(0)})
	if s := page.Snapshot(); s.State != presenter.StateInitial || !s.SubmitEnabled {
		t.Fatalf("initial snapshot = %+v", s)
	}
	if err := p.Submit(context.Background(), "alice"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s := page.Snapshot()
	if s.State != presenter.StateResults || s.MovesVisible || len(s.Rows) != 0 {
		t.Fatalf("results snapshot = %+v", s)
	}
	if !s.BoardVisible || s.FEN != resultWithMoves(0).FEN {
		t.Fatalf("board fen = %q visible=%v", s.FEN, s.BoardVisible)
	}
}

func TestBoardPNGBeforeFirstPosition(t *testing.T) {
	page := NewPage("r", nil)
	if _, err := page.BoardPNG(context.Background(), HUDFor(Snapshot{})); !errors.Is(err, ErrNoBoard) {
		t.Fatalf("err = %v", err)
	}
}

func TestFlushPropagatesEgressError(t *testing.T) {
	page, p, d, eg := newWiredPage(t, fixedPredictor{res: resultWithMoves(1)})
	if err := p.Submit(context.Background(), "alice"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	eg.fail = errors.New("iris down")
	if err := d.Flush(context.Background(), page); err == nil {
		t.Fatalf("expected egress error")
	}
}

func TestResultFoldsLongMoveLists(t *testing.T) {
	f := NewFormatter(nil, "!")
	rows := make([]presenter.MoveRow, seeMoreRows+1)
	for i := range rows {
		rows[i] = presenter.MoveRow{Number: i + 1, White: "e4", Black: "e5"}
	}
	text := f.Result(Snapshot{Outcome: "Draw", Tone: presenter.ToneGray, MovesVisible: true, Rows: rows, BoardVisible: true})
	if !strings.Contains(text, strings.Repeat(util.KakaoZeroWidthSpace, util.KakaoSeeMorePadding)) {
		t.Fatalf("long move list should be padded")
	}
	short := f.Result(Snapshot{Outcome: "Draw", MovesVisible: true, Rows: rows[:2], BoardVisible: true})
	if strings.Contains(short, util.KakaoZeroWidthSpace) {
		t.Fatalf("short move list should not be padded")
	}
}

func TestResultMarksMissingValues(t *testing.T) {
	f := NewFormatter(nil, "!")
	text := f.Result(Snapshot{Outcome: "Aborted", Tone: presenter.ToneNeutral})
	if !strings.Contains(text, "🟡") || !strings.Contains(text, "백 승: -") {
		t.Fatalf("text = %s", text)
	}
	if !strings.Contains(text, "(보드 정보 없음)") {
		t.Fatalf("missing no-board note: %s", text)
	}
}

func TestConfidenceBar(t *testing.T) {
	cases := []struct {
		width float64
		want  int
	}{
		{0, 0}, {70, 14}, {100, 20}, {150, 20}, {-3, 0}, {2.4, 0}, {2.6, 1},
	}
	for _, tc := range cases {
		bar := ConfidenceBar(tc.width, 20)
		if got := strings.Count(bar, "█"); got != tc.want {
			t.Fatalf("ConfidenceBar(%v) filled = %d, want %d", tc.width, got, tc.want)
		}
		if n := len([]rune(bar)); n != 20 {
			t.Fatalf("ConfidenceBar(%v) has %d cells", tc.width, n)
		}
	}
}

func TestMoveTable(t *testing.T) {
	got := MoveTable([]presenter.MoveRow{{Number: 1, White: "e4", Black: "e5"}, {Number: 2, White: "Nf3"}})
	if got != "1. e4 e5\n2. Nf3" {
		t.Fatalf("MoveTable = %q", got)
	}
}

func TestHelpAndUsageUsePrefix(t *testing.T) {
	f := NewFormatter(nil, "!")
	if !strings.Contains(f.Help(), "!예측") || !strings.Contains(f.Usage(), "!예측") {
		t.Fatalf("help/usage should mention the prefixed command")
	}
	if !strings.Contains(f.Loading("alice"), "alice") {
		t.Fatalf("loading notice should name the user")
	}
}

func TestResultNamesOpening(t *testing.T) {
	f := NewFormatter(nil, "!")
	rows := []presenter.MoveRow{{Number: 1, White: "e4", Black: "c5"}, {Number: 2, White: "Nf3"}}
	snap := Snapshot{Outcome: "Draw", MovesVisible: true, Rows: rows, BoardVisible: true}
	if text := f.Result(snap); !strings.Contains(text, "오프닝: B") || !strings.Contains(text, "Sicilian") {
		t.Fatalf("opening line missing:\n%s", text)
	}
	if text := f.WithoutOpenings().Result(snap); strings.Contains(text, "오프닝") {
		t.Fatalf("opening line should be dropped:\n%s", text)
	}
}
