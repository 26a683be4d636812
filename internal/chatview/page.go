package chatview

import (
	"context"
	"errors"
	"sync"

	"github.com/park285/Cheese-Predict-bot/internal/board"
	"github.com/park285/Cheese-Predict-bot/internal/presenter"
)

// ErrNoBoard is returned by BoardPNG before the first position was shown.
var ErrNoBoard = errors.New("board not built")

// Page is the chat rendition of the prediction page. It keeps the value of
// every element in memory; Deliverer turns a snapshot of it into messages.
// Element writes never block.
type Page struct {
	room     string
	renderer board.Renderer

	mu            sync.Mutex
	errText       string
	initial       bool
	loading       bool
	results       bool
	submitEnabled bool
	outcome       string
	outcomeTone   presenter.Tone
	barWidth      float64
	barTone       presenter.Tone
	confLabel     string
	white         string
	black         string
	draw          string
	movesVisible  bool
	rows          []presenter.MoveRow
	boardVisible  bool
	widget        *board.Widget
}

// NewPage returns an empty page for room. A nil renderer uses board.NewRenderer.
func NewPage(room string, renderer board.Renderer) *Page {
	return &Page{room: room, renderer: renderer}
}

func (p *Page) Room() string { return p.room }

// Elements exposes the page to a presenter.
func (p *Page) Elements() presenter.Elements {
	return presenter.Elements{
		Submit:          controlSink{p},
		Error:           textSink{p: p, text: &p.errText},
		Initial:         regionSink{p: p, visible: &p.initial},
		Loading:         regionSink{p: p, visible: &p.loading},
		Results:         regionSink{p: p, visible: &p.results},
		Outcome:         textSink{p: p, text: &p.outcome, tone: &p.outcomeTone},
		ConfidenceBar:   barSink{p},
		ConfidenceLabel: textSink{p: p, text: &p.confLabel},
		WhiteProb:       textSink{p: p, text: &p.white},
		BlackProb:       textSink{p: p, text: &p.black},
		DrawProb:        textSink{p: p, text: &p.draw},
		Moves:           regionSink{p: p, visible: &p.movesVisible},
		MoveList:        moveListSink{p},
		BoardRegion:     regionSink{p: p, visible: &p.boardVisible},
		NewBoard:        p.newBoard,
	}
}

func (p *Page) newBoard(ctx context.Context) (presenter.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, err := board.NewWidget(p.renderer)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.widget = w
	p.mu.Unlock()
	return w, nil
}

// Snapshot is a copy of the page's element values.
type Snapshot struct {
	Room            string
	State           presenter.UIState
	Error           string
	SubmitEnabled   bool
	Outcome         string
	Tone            presenter.Tone
	BarWidth        float64
	BarTone         presenter.Tone
	ConfidenceLabel string
	WhiteProb       string
	BlackProb       string
	DrawProb        string
	MovesVisible    bool
	Rows            []presenter.MoveRow
	BoardVisible    bool
	FEN             string
}

func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		Room:            p.room,
		Error:           p.errText,
		SubmitEnabled:   p.submitEnabled,
		Outcome:         p.outcome,
		Tone:            p.outcomeTone,
		BarWidth:        p.barWidth,
		BarTone:         p.barTone,
		ConfidenceLabel: p.confLabel,
		WhiteProb:       p.white,
		BlackProb:       p.black,
		DrawProb:        p.draw,
		MovesVisible:    p.movesVisible,
		Rows:            append([]presenter.MoveRow(nil), p.rows...),
		BoardVisible:    p.boardVisible,
	}
	switch {
	case p.results:
		s.State = presenter.StateResults
	case p.loading:
		s.State = presenter.StateLoading
	default:
		s.State = presenter.StateInitial
	}
	if p.widget != nil {
		s.FEN = p.widget.FEN()
	}
	return s
}

// BoardPNG renders the current board position.
func (p *Page) BoardPNG(ctx context.Context, hud board.HUD) ([]byte, error) {
	p.mu.Lock()
	w := p.widget
	p.mu.Unlock()
	if w == nil {
		return nil, ErrNoBoard
	}
	return w.PNG(ctx, hud)
}

type textSink struct {
	p    *Page
	text *string
	tone *presenter.Tone
}

func (s textSink) SetText(v string) {
	s.p.mu.Lock()
	*s.text = v
	s.p.mu.Unlock()
}

func (s textSink) SetTone(t presenter.Tone) {
	if s.tone == nil {
		return
	}
	s.p.mu.Lock()
	*s.tone = t
	s.p.mu.Unlock()
}

type regionSink struct {
	p       *Page
	visible *bool
}

func (s regionSink) SetVisible(v bool) {
	s.p.mu.Lock()
	*s.visible = v
	s.p.mu.Unlock()
}

type controlSink struct{ p *Page }

func (s controlSink) SetEnabled(v bool) {
	s.p.mu.Lock()
	s.p.submitEnabled = v
	s.p.mu.Unlock()
}

type barSink struct{ p *Page }

func (s barSink) SetWidth(w float64) {
	s.p.mu.Lock()
	s.p.barWidth = w
	s.p.mu.Unlock()
}

func (s barSink) SetTone(t presenter.Tone) {
	s.p.mu.Lock()
	s.p.barTone = t
	s.p.mu.Unlock()
}

type moveListSink struct{ p *Page }

func (s moveListSink) Reset() {
	s.p.mu.Lock()
	s.p.rows = s.p.rows[:0]
	s.p.mu.Unlock()
}

func (s moveListSink) AddRow(r presenter.MoveRow) {
	s.p.mu.Lock()
	s.p.rows = append(s.p.rows, r)
	s.p.mu.Unlock()
}
