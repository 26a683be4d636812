package board

import (
	"context"
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Widget holds one displayed position and renders it on demand.
type Widget struct {
	mu       sync.RWMutex
	renderer Renderer
	pos      *nchess.Position
	fen      string
}

// NewWidget builds a widget showing the starting position.
func NewWidget(renderer Renderer) (*Widget, error) {
	if renderer == nil {
		renderer = NewRenderer()
	}
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		return nil, err
	}
	return &Widget{renderer: renderer, pos: pos, fen: StartFEN}, nil
}

// ParseFEN validates fen and returns its position.
func ParseFEN(fen string) (*nchess.Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return nil, fmt.Errorf("empty fen")
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return nchess.NewGame(opt).Position(), nil
}

// SetPosition replaces the displayed position. An invalid fen leaves the
// current position in place.
func (w *Widget) SetPosition(fen string) error {
	pos, err := ParseFEN(fen)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.pos = pos
	w.fen = strings.TrimSpace(fen)
	w.mu.Unlock()
	return nil
}

func (w *Widget) FEN() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fen
}

// PNG renders the current position. An empty hud.Turn is filled from the
// position's side to move.
func (w *Widget) PNG(ctx context.Context, hud HUD) ([]byte, error) {
	w.mu.RLock()
	pos, fen := w.pos, w.fen
	w.mu.RUnlock()

	if strings.TrimSpace(hud.Turn) == "" {
		hud.Turn = TurnLabel(pos, fen)
	}
	return w.renderer.RenderPNG(ctx, pos.Board(), hud)
}

// TurnLabel describes the side to move, with the move number when the fen
// carries one.
func TurnLabel(pos *nchess.Position, fen string) string {
	side := "Black"
	if pos == nil || pos.Turn() == nchess.White {
		side = "White"
	}
	fields := strings.Fields(fen)
	if len(fields) >= 6 && fields[5] != "" {
		return fmt.Sprintf("%s to move - move %s", side, fields[5])
	}
	return side + " to move"
}
