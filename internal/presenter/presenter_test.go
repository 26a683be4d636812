package presenter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/park285/Cheese-Predict-bot/internal/predict"
	"github.com/park285/Cheese-Predict-bot/pkg/predictdto"
)

type fakeText struct {
	text string
	tone Tone
}

func (f *fakeText) SetText(s string) { f.text = s }
func (f *fakeText) SetTone(t Tone)   { f.tone = t }

type fakeRegion struct {
	visible bool
	shows   int
}

func (f *fakeRegion) SetVisible(v bool) {
	if v {
		f.shows++
	}
	f.visible = v
}

type fakeControl struct {
	enabled bool
	history []bool
}

func (f *fakeControl) SetEnabled(v bool) {
	f.enabled = v
	f.history = append(f.history, v)
}

type fakeBar struct {
	width float64
	tone  Tone
}

func (f *fakeBar) SetWidth(w float64) { f.width = w }
func (f *fakeBar) SetTone(t Tone)     { f.tone = t }

type fakeMoveList struct{ rows []MoveRow }

func (f *fakeMoveList) Reset()           { f.rows = nil }
func (f *fakeMoveList) AddRow(r MoveRow) { f.rows = append(f.rows, r) }

type fakeBoard struct{ fen string }

func (f *fakeBoard) SetPosition(fen string) error {
	f.fen = fen
	return nil
}

type page struct {
	submit      fakeControl
	errText     fakeText
	initial     fakeRegion
	loading     fakeRegion
	results     fakeRegion
	outcome     fakeText
	bar         fakeBar
	label       fakeText
	white       fakeText
	black       fakeText
	draw        fakeText
	moves       fakeRegion
	moveList    fakeMoveList
	boardRegion fakeRegion
	board       *fakeBoard
	boardBuilds int
}

func (pg *page) elements() Elements {
	return Elements{
		Submit:          &pg.submit,
		Error:           &pg.errText,
		Initial:         &pg.initial,
		Loading:         &pg.loading,
		Results:         &pg.results,
		Outcome:         &pg.outcome,
		ConfidenceBar:   &pg.bar,
		ConfidenceLabel: &pg.label,
		WhiteProb:       &pg.white,
		BlackProb:       &pg.black,
		DrawProb:        &pg.draw,
		Moves:           &pg.moves,
		MoveList:        &pg.moveList,
		BoardRegion:     &pg.boardRegion,
		NewBoard: func(context.Context) (Board, error) {
			pg.boardBuilds++
			pg.board = &fakeBoard{}
			return pg.board, nil
		},
	}
}

type stubPredictor struct {
	mu    sync.Mutex
	calls []string
	res   *predictdto.Result
	err   error
	// block, when set, holds Predict until closed.
	block chan struct{}
	// entered is signalled once Predict has been called.
	entered chan struct{}
}

func (s *stubPredictor) Predict(ctx context.Context, username string) (*predictdto.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, username)
	s.mu.Unlock()
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	return s.res, s.err
}

func (s *stubPredictor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func sampleResult() *predictdto.Result {
	return &predictdto.Result{
		Schema:  predictdto.SchemaFinal,
		Outcome: predictdto.OutcomeWhiteWins,
		Probabilities: map[string]string{
			predictdto.OutcomeWhiteWins: "70.00%",
			predictdto.OutcomeBlackWins: "10.00%",
			predictdto.OutcomeDraw:      "20.00%",
		},
		FEN:   "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2",
		Moves: []string{"e4", "e5", "Nf3"},
	}
}

func newTestPresenter(t *testing.T, pred Predictor) (*Presenter, *page) {
	t.Helper()
	pg := &page{}
	p, err := New(pred, pg.elements())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, pg
}

func TestNewStartsInitial(t *testing.T) {
	p, pg := newTestPresenter(t, &stubPredictor{})
	if p.State() != StateInitial {
		t.Fatalf("state = %v", p.State())
	}
	if !pg.initial.visible || pg.loading.visible || pg.results.visible {
		t.Fatalf("regions: initial=%v loading=%v results=%v", pg.initial.visible, pg.loading.visible, pg.results.visible)
	}
	if !pg.submit.enabled {
		t.Fatalf("submit should be enabled")
	}
	if pg.boardBuilds != 0 {
		t.Fatalf("board built eagerly")
	}
}

func TestNewRejectsMissingElements(t *testing.T) {
	pg := &page{}
	el := pg.elements()
	el.Outcome = nil
	if _, err := New(&stubPredictor{}, el); err == nil {
		t.Fatalf("expected error for missing Outcome")
	}
	if _, err := New(nil, pg.elements()); err == nil {
		t.Fatalf("expected error for nil predictor")
	}
}

func TestSubmitRendersResult(t *testing.T) {
	pred := &stubPredictor{res: sampleResult()}
	p, pg := newTestPresenter(t, pred)

	if err := p.Submit(context.Background(), "  alice  "); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := pred.calls; len(got) != 1 || got[0] != "alice" {
		t.Fatalf("calls = %v", got)
	}
	if p.State() != StateResults {
		t.Fatalf("state = %v", p.State())
	}
	if !pg.results.visible || pg.initial.visible || pg.loading.visible {
		t.Fatalf("only results should be visible")
	}
	if pg.outcome.text != predictdto.OutcomeWhiteWins || pg.outcome.tone != ToneGreen {
		t.Fatalf("outcome = %q/%q", pg.outcome.text, pg.outcome.tone)
	}
	if pg.bar.width != 70 || pg.bar.tone != ToneGreen {
		t.Fatalf("bar = %v/%q", pg.bar.width, pg.bar.tone)
	}
	if pg.label.text != "Confidence: 70.0%" {
		t.Fatalf("label = %q", pg.label.text)
	}
	if pg.white.text != "70.00%" || pg.black.text != "10.00%" || pg.draw.text != "20.00%" {
		t.Fatalf("probs = %q %q %q", pg.white.text, pg.black.text, pg.draw.text)
	}
	want := []MoveRow{{Number: 1, White: "e4", Black: "e5"}, {Number: 2, White: "Nf3"}}
	if len(pg.moveList.rows) != len(want) {
		t.Fatalf("rows = %+v", pg.moveList.rows)
	}
	for i := range want {
		if pg.moveList.rows[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, pg.moveList.rows[i], want[i])
		}
	}
	if !pg.moves.visible {
		t.Fatalf("moves region should be visible")
	}
	if !pg.boardRegion.visible || pg.board == nil || pg.board.fen != sampleResult().FEN {
		t.Fatalf("board not positioned")
	}
	if !pg.submit.enabled {
		t.Fatalf("submit should be re-enabled")
	}
	if pg.errText.text != "" {
		t.Fatalf("error text = %q", pg.errText.text)
	}
}

func TestSubmitDisablesControlWhileLoading(t *testing.T) {
	pred := &stubPredictor{res: sampleResult()}
	p, pg := newTestPresenter(t, pred)
	pg.submit.history = nil

	if err := p.Submit(context.Background(), "alice"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(pg.submit.history) != 2 || pg.submit.history[0] || !pg.submit.history[1] {
		t.Fatalf("enable history = %v", pg.submit.history)
	}
	if pg.loading.shows != 1 {
		t.Fatalf("loading shown %d times", pg.loading.shows)
	}
}

func TestSubmitBlankIsValidationError(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		pred := &stubPredictor{res: sampleResult()}
		p, pg := newTestPresenter(t, pred)

		err := p.Submit(context.Background(), in)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Submit(%q) err = %v", in, err)
		}
		if pred.callCount() != 0 {
			t.Fatalf("Submit(%q) made a request", in)
		}
		if pg.errText.text != DefaultMessages.EmptyUsername {
			t.Fatalf("error text = %q", pg.errText.text)
		}
		if p.State() != StateInitial || pg.loading.shows != 0 {
			t.Fatalf("state changed on validation failure")
		}
	}
}

func TestSubmitRequestErrorShowsDetail(t *testing.T) {
	pred := &stubPredictor{err: &predict.RequestError{Status: 404, Detail: "user not found"}}
	p, pg := newTestPresenter(t, pred)

	err := p.Submit(context.Background(), "ghost")
	var reqErr *predict.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v", err)
	}
	if pg.errText.text != "user not found" {
		t.Fatalf("error text = %q", pg.errText.text)
	}
	if p.State() != StateInitial || !pg.initial.visible || pg.results.visible {
		t.Fatalf("should be back to initial")
	}
	if pg.outcome.text != "" || len(pg.moveList.rows) != 0 || pg.boardBuilds != 0 {
		t.Fatalf("partial result rendered")
	}
	if !pg.submit.enabled {
		t.Fatalf("submit should be re-enabled")
	}
}

func TestSubmitErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"request without detail", &predict.RequestError{Status: 500}, DefaultMessages.Generic},
		{"network", &predict.NetworkError{Err: errors.New("dial tcp: refused")}, DefaultMessages.Network},
		{"malformed", &predict.MalformedResponseError{Reason: "decode response"}, DefaultMessages.Malformed},
		{"other", errors.New("boom"), DefaultMessages.Generic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, pg := newTestPresenter(t, &stubPredictor{err: tc.err})
			if err := p.Submit(context.Background(), "alice"); err == nil {
				t.Fatalf("expected error")
			}
			if pg.errText.text != tc.want {
				t.Fatalf("error text = %q, want %q", pg.errText.text, tc.want)
			}
			if p.State() != StateInitial {
				t.Fatalf("state = %v", p.State())
			}
		})
	}
}

func TestSubmitCustomMessages(t *testing.T) {
	pg := &page{}
	p, err := New(&stubPredictor{err: &predict.RequestError{Status: 502}}, pg.elements(),
		WithMessages(Messages{Generic: "알 수 없는 오류"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = p.Submit(context.Background(), "alice")
	if pg.errText.text != "알 수 없는 오류" {
		t.Fatalf("error text = %q", pg.errText.text)
	}
	_ = p.Submit(context.Background(), "")
	if pg.errText.text != DefaultMessages.EmptyUsername {
		t.Fatalf("empty message should fall back to default, got %q", pg.errText.text)
	}
}

func TestSubmitMissingOutcomeRendersNothing(t *testing.T) {
	res := sampleResult()
	res.Outcome = ""
	p, pg := newTestPresenter(t, &stubPredictor{res: res})

	err := p.Submit(context.Background(), "alice")
	var bad *predict.MalformedResponseError
	if !errors.As(err, &bad) {
		t.Fatalf("err = %v", err)
	}
	if pg.outcome.text != "" || pg.bar.width != 0 || len(pg.moveList.rows) != 0 {
		t.Fatalf("partial result rendered")
	}
	if p.State() != StateInitial {
		t.Fatalf("state = %v", p.State())
	}
}

func TestSubmitWhileLoadingIsRejected(t *testing.T) {
	pred := &stubPredictor{
		res:     sampleResult(),
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	p, _ := newTestPresenter(t, pred)

	done := make(chan error, 1)
	go func() { done <- p.Submit(context.Background(), "alice") }()
	<-pred.entered

	if p.State() != StateLoading {
		t.Fatalf("state = %v", p.State())
	}
	if err := p.Submit(context.Background(), "bob"); !errors.Is(err, ErrSubmitDisabled) {
		t.Fatalf("second Submit err = %v", err)
	}
	close(pred.block)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if pred.callCount() != 1 {
		t.Fatalf("calls = %d", pred.callCount())
	}
}

func TestBoardBuiltOnce(t *testing.T) {
	pred := &stubPredictor{res: sampleResult()}
	p, pg := newTestPresenter(t, pred)

	for i := 0; i < 3; i++ {
		if err := p.Submit(context.Background(), "alice"); err != nil {
			t.Fatalf("Submit #%d: %v", i, err)
		}
	}
	if pg.boardBuilds != 1 {
		t.Fatalf("board built %d times", pg.boardBuilds)
	}
}

func TestNoMovesHidesMoveRegion(t *testing.T) {
	res := sampleResult()
	res.Moves = nil
	p, pg := newTestPresenter(t, &stubPredictor{res: res})

	if err := p.Submit(context.Background(), "alice"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if pg.moves.visible {
		t.Fatalf("moves region should be hidden")
	}
	if len(pg.moveList.rows) != 0 {
		t.Fatalf("rows = %+v", pg.moveList.rows)
	}
}

func TestNoFENHidesBoard(t *testing.T) {
	res := sampleResult()
	res.FEN = ""
	p, pg := newTestPresenter(t, &stubPredictor{res: res})

	if err := p.Submit(context.Background(), "alice"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if pg.boardRegion.visible || pg.boardBuilds != 0 {
		t.Fatalf("board should stay hidden and unbuilt")
	}
}

func TestRenderReplacesPreviousMoves(t *testing.T) {
	p, pg := newTestPresenter(t, &stubPredictor{})
	first := sampleResult()
	if err := p.Render(context.Background(), first); err != nil {
		t.Fatalf("Render: %v", err)
	}
	second := sampleResult()
	second.Moves = []string{"d4"}
	if err := p.Render(context.Background(), second); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(pg.moveList.rows) != 1 || pg.moveList.rows[0] != (MoveRow{Number: 1, White: "d4"}) {
		t.Fatalf("rows = %+v", pg.moveList.rows)
	}
	if p.State() != StateInitial {
		t.Fatalf("Render changed state to %v", p.State())
	}
}

func TestUIStateString(t *testing.T) {
	if StateResults.String() != "results" || UIState(9).String() != "UIState(9)" {
		t.Fatalf("unexpected String output")
	}
}

func TestStateListenerRunsOutsideLock(t *testing.T) {
	var (
		p    *Presenter
		seen []UIState
	)
	listener := func(s UIState) {
		// State takes the presenter lock; this deadlocks if the listener runs under it.
		if got := p.State(); got != s {
			t.Errorf("State() = %v during %v notice", got, s)
		}
		seen = append(seen, s)
	}
	pred := &stubPredictor{res: sampleResult()}
	pg := &page{}
	var err error
	p, err = New(pred, pg.elements(), WithStateListener(listener))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.Submit(context.Background(), "alice"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	pred.res, pred.err = nil, &predict.NetworkError{Err: errors.New("down")}
	if err := p.Submit(context.Background(), "alice"); err == nil {
		t.Fatalf("expected error")
	}
	// a blank name changes no state and notifies nobody
	var verr *ValidationError
	if err := p.Submit(context.Background(), " "); !errors.As(err, &verr) {
		t.Fatalf("blank Submit err = %v", err)
	}

	want := []UIState{StateLoading, StateResults, StateLoading, StateInitial}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}
