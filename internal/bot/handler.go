package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Predict-bot/internal/board"
	"github.com/park285/Cheese-Predict-bot/internal/chatview"
	"github.com/park285/Cheese-Predict-bot/internal/inflight"
	"github.com/park285/Cheese-Predict-bot/internal/irisfast"
	"github.com/park285/Cheese-Predict-bot/internal/metrics"
	"github.com/park285/Cheese-Predict-bot/internal/msgcat"
	"github.com/park285/Cheese-Predict-bot/internal/obslog"
	"github.com/park285/Cheese-Predict-bot/internal/predict"
	"github.com/park285/Cheese-Predict-bot/internal/presenter"
)

const noticeTimeout = 5 * time.Second

// Deps wires a Handler. Predictor, Egress and Prefix are required.
type Deps struct {
	Prefix       string
	AllowedRooms []string

	Predictor presenter.Predictor
	Egress    chatview.Egress
	Guard     inflight.Guard
	Catalog   *msgcat.Catalog
	Metrics   *metrics.Recorder
	Renderer  board.Renderer
	Logger    *zap.Logger
}

// Handler turns chat messages into prediction submissions. Each room has
// its own page and presenter.
type Handler struct {
	prefix    string
	allowed   map[string]struct{}
	predictor presenter.Predictor
	guard     inflight.Guard
	formatter *chatview.Formatter
	deliver   *chatview.Deliverer
	metrics   *metrics.Recorder
	renderer  board.Renderer
	logger    *zap.Logger

	mu    sync.Mutex
	rooms map[string]*roomView
}

type roomView struct {
	page *chatview.Page
	pres *presenter.Presenter

	mu       sync.Mutex
	username string
}

func (v *roomView) setUsername(s string) {
	v.mu.Lock()
	v.username = s
	v.mu.Unlock()
}

func (v *roomView) currentUsername() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.username
}

func New(d Deps) (*Handler, error) {
	if strings.TrimSpace(d.Prefix) == "" {
		return nil, errors.New("bot: prefix required")
	}
	if d.Predictor == nil || d.Egress == nil {
		return nil, errors.New("bot: predictor and egress required")
	}
	logger := d.Logger
	if logger == nil {
		logger = obslog.L()
	}
	guard := d.Guard
	if guard == nil {
		guard = inflight.NewMemory(inflight.DefaultTTL)
	}
	formatter := chatview.NewFormatter(d.Catalog, d.Prefix)
	h := &Handler{
		prefix:    strings.TrimSpace(d.Prefix),
		predictor: d.Predictor,
		guard:     guard,
		formatter: formatter,
		deliver:   chatview.NewDeliverer(d.Egress, formatter, logger),
		metrics:   d.Metrics,
		renderer:  d.Renderer,
		logger:    logger,
		rooms:     make(map[string]*roomView),
	}
	if len(d.AllowedRooms) > 0 {
		h.allowed = make(map[string]struct{}, len(d.AllowedRooms))
		for _, r := range d.AllowedRooms {
			h.allowed[strings.TrimSpace(r)] = struct{}{}
		}
	}
	return h, nil
}

// Handle processes one chat message. It blocks until replies are sent, so
// callers run it on its own goroutine.
func (h *Handler) Handle(ctx context.Context, msg *irisfast.Message) {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" {
		return
	}
	if h.allowed != nil {
		if _, ok := h.allowed[msg.Room]; !ok {
			h.logger.Debug("room_ignored", zap.String("room", msg.Room))
			return
		}
	}
	cmd, ok := ParseCommand(h.prefix, msg.Msg)
	if !ok {
		return
	}

	switch cmd.Name {
	case CmdHelp:
		h.reply(ctx, msg.Room, h.formatter.Help())
	case CmdPredict:
		h.handlePredict(ctx, msg, strings.Join(cmd.Args, " "))
	default:
		h.reply(ctx, msg.Room, h.formatter.Usage())
	}
}

func (h *Handler) handlePredict(ctx context.Context, msg *irisfast.Message, username string) {
	room := msg.Room
	log := h.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("room", room),
		zap.String("sender", msg.UserID()),
	)

	release, ok, err := h.guard.Acquire(ctx, room)
	switch {
	case err != nil:
		// a broken guard must not take the bot down with it
		log.Warn("inflight_guard_failed", zap.Error(err))
	case !ok:
		h.metrics.Submission(metrics.ResultBusy)
		h.reply(ctx, room, h.formatter.Busy())
		return
	default:
		defer release()
	}

	view, err := h.view(room)
	if err != nil {
		log.Error("presenter_init_failed", zap.Error(err))
		return
	}
	view.setUsername(strings.TrimSpace(username))

	done := h.metrics.Track()
	start := time.Now()
	err = view.pres.Submit(ctx, username)
	done()

	result := resultLabel(err)
	h.metrics.Submission(result)
	if errors.Is(err, presenter.ErrSubmitDisabled) {
		h.reply(ctx, room, h.formatter.Busy())
		return
	}
	// The page keeps whatever it showed before, so flushing it would repeat
	// the previous result.
	var verr *presenter.ValidationError
	if errors.As(err, &verr) {
		h.reply(ctx, room, verr.Message)
		return
	}
	if result != metrics.ResultValidation {
		h.metrics.Latency(time.Since(start))
	}
	if err == nil {
		h.metrics.Outcome(view.page.Snapshot().Outcome)
	}

	if ferr := h.deliver.Flush(ctx, view.page); ferr != nil {
		log.Warn("flush_failed", zap.Error(ferr))
	}
}

// view returns the room's page, building it on first use.
func (h *Handler) view(room string) (*roomView, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.rooms[room]; ok {
		return v, nil
	}

	log := h.logger.With(zap.String("room", room))
	page := chatview.NewPage(room, h.renderer)
	v := &roomView{page: page}
	loading := func(s presenter.UIState) {
		if s != presenter.StateLoading {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), noticeTimeout)
		defer cancel()
		if err := h.deliver.Text(ctx, room, h.formatter.Loading(v.currentUsername())); err != nil {
			log.Warn("loading_notice_failed", zap.Error(err))
		}
	}
	pres, err := presenter.New(h.predictor, page.Elements(),
		presenter.WithMessages(h.formatter.Messages()),
		presenter.WithLogger(log),
		presenter.WithStateListener(loading),
	)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", room, err)
	}
	v.pres = pres
	h.rooms[room] = v
	return v, nil
}

func (h *Handler) reply(ctx context.Context, room, text string) {
	if err := h.deliver.Text(ctx, room, text); err != nil {
		h.logger.Warn("reply_failed", zap.String("room", room), zap.Error(err))
	}
}

// Rooms reports how many rooms have a live page.
func (h *Handler) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

func resultLabel(err error) string {
	var verr *presenter.ValidationError
	switch {
	case err == nil:
		return metrics.ResultResults
	case errors.As(err, &verr):
		return metrics.ResultValidation
	case errors.Is(err, presenter.ErrSubmitDisabled):
		return metrics.ResultBusy
	}
	switch predict.Kind(err) {
	case "request":
		return metrics.ResultRequest
	case "network":
		return metrics.ResultNetwork
	case "malformed":
		return metrics.ResultMalformed
	default:
		return metrics.ResultUnknown
	}
}
