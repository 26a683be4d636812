package presenter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Predict-bot/internal/obslog"
	"github.com/park285/Cheese-Predict-bot/internal/predict"
	"github.com/park285/Cheese-Predict-bot/pkg/predictdto"
)

// UIState is the visible region of the page.
type UIState int

const (
	StateInitial UIState = iota
	StateLoading
	StateResults
)

func (s UIState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateLoading:
		return "loading"
	case StateResults:
		return "results"
	default:
		return fmt.Sprintf("UIState(%d)", int(s))
	}
}

// ErrSubmitDisabled is returned while a prediction is loading.
var ErrSubmitDisabled = errors.New("submit disabled while a prediction is loading")

// ValidationError rejects a submission before any request is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Predictor fetches a prediction for a user name.
type Predictor interface {
	Predict(ctx context.Context, username string) (*predictdto.Result, error)
}

// Messages are the user-visible error texts.
type Messages struct {
	EmptyUsername string
	Generic       string
	Network       string
	Malformed     string
}

// DefaultMessages are used for any field left empty.
var DefaultMessages = Messages{
	EmptyUsername: "Please enter a Lichess User ID.",
	Generic:       "An unknown error occurred.",
	Network:       "Could not reach the prediction service.",
	Malformed:     "The prediction service returned an unexpected response.",
}

// Presenter binds one page to the prediction service. At most one
// submission runs at a time; element writes are serialized.
type Presenter struct {
	el        Elements
	predictor Predictor
	msgs      Messages
	logger    *zap.Logger

	busy atomic.Bool

	mu      sync.Mutex
	state   UIState
	onState func(UIState)

	boardMu sync.Mutex
	board   Board
}

type Option func(*Presenter)

func WithMessages(m Messages) Option {
	return func(p *Presenter) { p.msgs = mergeMessages(m) }
}

// WithStateListener registers fn to run after each Submit transition.
// fn is called without the presenter's lock held and may block or read State.
func WithStateListener(fn func(UIState)) Option {
	return func(p *Presenter) { p.onState = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Presenter) {
		if l != nil {
			p.logger = l
		}
	}
}

// New validates el and puts the page in its initial state.
func New(predictor Predictor, el Elements, opts ...Option) (*Presenter, error) {
	if predictor == nil {
		return nil, fmt.Errorf("presenter: nil predictor")
	}
	if err := el.validate(); err != nil {
		return nil, err
	}
	p := &Presenter{
		el:        el,
		predictor: predictor,
		msgs:      DefaultMessages,
		logger:    obslog.L(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.mu.Lock()
	p.el.Error.SetText("")
	p.el.Submit.SetEnabled(true)
	p.el.Moves.SetVisible(false)
	p.el.BoardRegion.SetVisible(false)
	p.setState(StateInitial)
	p.mu.Unlock()
	return p, nil
}

// State returns the visible state.
func (p *Presenter) State() UIState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Submit runs one prediction for username. See ValidationError,
// ErrSubmitDisabled and the predict error types for the failure modes;
// every failure leaves the page in its initial state with a message shown.
func (p *Presenter) Submit(ctx context.Context, username string) error {
	if !p.busy.CompareAndSwap(false, true) {
		return ErrSubmitDisabled
	}
	defer p.busy.Store(false)

	username = strings.TrimSpace(username)
	if username == "" {
		p.mu.Lock()
		p.el.Error.SetText(p.msgs.EmptyUsername)
		p.mu.Unlock()
		return &ValidationError{Message: p.msgs.EmptyUsername}
	}

	p.mu.Lock()
	p.el.Error.SetText("")
	p.el.Submit.SetEnabled(false)
	p.setState(StateLoading)
	p.mu.Unlock()
	p.notify(StateLoading)

	defer func() {
		p.mu.Lock()
		p.el.Submit.SetEnabled(true)
		p.mu.Unlock()
	}()

	start := time.Now()
	res, err := p.predictor.Predict(ctx, username)
	var view *View
	if err == nil {
		view, err = p.prepare(ctx, res)
	}
	if err != nil {
		p.logger.Warn("prediction_failed",
			zap.String("username", username),
			zap.String("kind", predict.Kind(err)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		p.mu.Lock()
		p.el.Error.SetText(p.messageFor(err))
		p.setState(StateInitial)
		p.mu.Unlock()
		p.notify(StateInitial)
		return err
	}

	p.mu.Lock()
	p.setState(StateResults)
	p.apply(view)
	p.mu.Unlock()
	p.notify(StateResults)

	p.logger.Info("prediction_rendered",
		zap.String("username", username),
		zap.String("schema", string(res.Schema)),
		zap.String("outcome", view.Outcome),
		zap.Float64("confidence", view.Confidence),
		zap.Int("moves", len(res.Moves)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Render writes res into the result elements without changing the state.
// Nothing is written when res cannot be rendered.
func (p *Presenter) Render(ctx context.Context, res *predictdto.Result) error {
	view, err := p.prepare(ctx, res)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.apply(view)
	p.mu.Unlock()
	return nil
}

// prepare builds the view and, when a position is shown, makes sure the
// board exists. No element is touched.
func (p *Presenter) prepare(ctx context.Context, res *predictdto.Result) (*View, error) {
	view, err := BuildView(res)
	if err != nil {
		return nil, err
	}
	if view.FEN != "" && p.el.NewBoard != nil {
		if _, err := p.ensureBoard(ctx); err != nil {
			return nil, fmt.Errorf("build board: %w", err)
		}
	}
	return view, nil
}

func (p *Presenter) ensureBoard(ctx context.Context) (Board, error) {
	p.boardMu.Lock()
	defer p.boardMu.Unlock()
	if p.board != nil {
		return p.board, nil
	}
	b, err := p.el.NewBoard(ctx)
	if err != nil {
		return nil, err
	}
	p.board = b
	return b, nil
}

// apply must be called with p.mu held.
func (p *Presenter) apply(v *View) {
	p.el.Outcome.SetText(v.Outcome)
	p.el.Outcome.SetTone(v.Tone)
	p.el.ConfidenceBar.SetWidth(v.BarWidth)
	p.el.ConfidenceBar.SetTone(v.Tone)
	p.el.ConfidenceLabel.SetText(v.ConfidenceLabel)
	p.el.WhiteProb.SetText(v.WhiteProb)
	p.el.BlackProb.SetText(v.BlackProb)
	p.el.DrawProb.SetText(v.DrawProb)

	p.el.MoveList.Reset()
	for _, row := range v.Moves {
		p.el.MoveList.AddRow(row)
	}
	p.el.Moves.SetVisible(len(v.Moves) > 0)

	if v.FEN == "" || p.el.NewBoard == nil {
		p.el.BoardRegion.SetVisible(false)
		return
	}
	p.boardMu.Lock()
	b := p.board
	p.boardMu.Unlock()
	if err := b.SetPosition(v.FEN); err != nil {
		p.logger.Warn("board_position_failed", zap.String("fen", v.FEN), zap.Error(err))
		p.el.BoardRegion.SetVisible(false)
		return
	}
	p.el.BoardRegion.SetVisible(true)
}

func (p *Presenter) notify(s UIState) {
	if p.onState != nil {
		p.onState(s)
	}
}

// setState must be called with p.mu held.
func (p *Presenter) setState(s UIState) {
	p.state = s
	// Hide before show so two regions are never visible together.
	regions := []struct {
		state  UIState
		region Region
	}{
		{StateInitial, p.el.Initial},
		{StateLoading, p.el.Loading},
		{StateResults, p.el.Results},
	}
	for _, r := range regions {
		if r.state != s {
			r.region.SetVisible(false)
		}
	}
	if s == StateLoading {
		p.el.Moves.SetVisible(false)
		p.el.BoardRegion.SetVisible(false)
	}
	for _, r := range regions {
		if r.state == s {
			r.region.SetVisible(true)
		}
	}
}

func (p *Presenter) messageFor(err error) string {
	var (
		valErr *ValidationError
		reqErr *predict.RequestError
		netErr *predict.NetworkError
		badErr *predict.MalformedResponseError
	)
	switch {
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.As(err, &reqErr):
		if reqErr.Detail != "" {
			return reqErr.Detail
		}
		return p.msgs.Generic
	case errors.As(err, &netErr):
		return p.msgs.Network
	case errors.As(err, &badErr):
		return p.msgs.Malformed
	default:
		return p.msgs.Generic
	}
}

func mergeMessages(m Messages) Messages {
	out := DefaultMessages
	if s := strings.TrimSpace(m.EmptyUsername); s != "" {
		out.EmptyUsername = s
	}
	if s := strings.TrimSpace(m.Generic); s != "" {
		out.Generic = s
	}
	if s := strings.TrimSpace(m.Network); s != "" {
		out.Network = s
	}
	if s := strings.TrimSpace(m.Malformed); s != "" {
		out.Malformed = s
	}
	return out
}

func (el Elements) validate() error {
	required := map[string]any{
		"Submit": el.Submit, "Error": el.Error,
		"Initial": el.Initial, "Loading": el.Loading, "Results": el.Results,
		"Outcome": el.Outcome, "ConfidenceBar": el.ConfidenceBar, "ConfidenceLabel": el.ConfidenceLabel,
		"WhiteProb": el.WhiteProb, "BlackProb": el.BlackProb, "DrawProb": el.DrawProb,
		"Moves": el.Moves, "MoveList": el.MoveList, "BoardRegion": el.BoardRegion,
	}
	var missing []string
	for name, v := range required {
		if v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("presenter: missing elements %v", missing)
	}
	return nil
}
