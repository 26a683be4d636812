package chatview

import (
	"context"
	"encoding/base64"
	"fmt"
	"image/color"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Predict-bot/internal/board"
	"github.com/park285/Cheese-Predict-bot/internal/obslog"
	"github.com/park285/Cheese-Predict-bot/internal/presenter"
)

// Egress sends chat messages to a room.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

// Deliverer flushes pages to the chat without coupling to the command layer.
type Deliverer struct {
	egress    Egress
	formatter *Formatter
	logger    *zap.Logger
}

func NewDeliverer(egress Egress, formatter *Formatter, logger *zap.Logger) *Deliverer {
	if logger == nil {
		logger = obslog.L()
	}
	return &Deliverer{egress: egress, formatter: formatter, logger: logger}
}

func (d *Deliverer) Formatter() *Formatter { return d.formatter }

// Text sends a plain message.
func (d *Deliverer) Text(ctx context.Context, room, message string) error {
	if d == nil || d.egress == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return d.egress.SendText(ctx, room, message)
}

// Flush sends what the page currently shows: the results block and the board
// image, or the error text when the page is back in its initial state.
func (d *Deliverer) Flush(ctx context.Context, page *Page) error {
	if d == nil || page == nil {
		return nil
	}
	snap := page.Snapshot()
	switch snap.State {
	case presenter.StateResults:
		if err := d.Text(ctx, snap.Room, d.formatter.Result(snap)); err != nil {
			return fmt.Errorf("send result: %w", err)
		}
		if !snap.BoardVisible {
			return nil
		}
		png, err := page.BoardPNG(ctx, HUDFor(snap))
		if err != nil {
			d.logger.Warn("board_render_failed", zap.String("room", snap.Room), zap.Error(err))
			return nil
		}
		encoded := base64.StdEncoding.EncodeToString(png)
		if err := d.egress.SendImage(ctx, snap.Room, encoded); err != nil {
			return fmt.Errorf("send board: %w", err)
		}
		return nil
	case presenter.StateInitial:
		return d.Text(ctx, snap.Room, snap.Error)
	default:
		return nil
	}
}

// HUDFor builds the board overlay for a results snapshot.
func HUDFor(s Snapshot) board.HUD {
	return board.HUD{
		Header:     s.Outcome,
		Badge:      fmt.Sprintf("%.1f%%", s.BarWidth),
		Accent:     ToneColor(s.BarTone),
		Confidence: s.BarWidth,
	}
}

// ToneColor maps a tone onto the board accent palette.
func ToneColor(t presenter.Tone) color.Color {
	switch t {
	case presenter.ToneGreen:
		return color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	case presenter.ToneRed:
		return color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	case presenter.ToneGray:
		return color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
	default:
		return color.RGBA{R: 0xea, G: 0xb3, B: 0x08, A: 0xff}
	}
}
