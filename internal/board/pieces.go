package board

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/pieces/*.svg
var pieceAssets embed.FS

// fenLetters names each asset: "w"/"b" followed by the upper-case FEN letter.
var fenLetters = map[nchess.PieceType]string{
	nchess.King:   "K",
	nchess.Queen:  "Q",
	nchess.Rook:   "R",
	nchess.Bishop: "B",
	nchess.Knight: "N",
	nchess.Pawn:   "P",
}

// svgFixes rewrites colour spellings oksvg does not accept.
var svgFixes = [][2]string{
	{"fill:000000", "fill:#000000"},
	{"fill: #", "fill:#"},
	{"stroke: #", "stroke:#"},
}

type sprite struct {
	piece nchess.Piece
	size  int
}

// spriteSheet rasterizes piece assets on demand. One sheet belongs to one
// renderer; sprites are immutable once stored.
type spriteSheet struct {
	mu      sync.Mutex
	sprites map[sprite]*image.RGBA
}

func newSpriteSheet() *spriteSheet {
	return &spriteSheet{sprites: make(map[sprite]*image.RGBA)}
}

func (s *spriteSheet) get(piece nchess.Piece, size int) (image.Image, error) {
	key := sprite{piece: piece, size: size}
	s.mu.Lock()
	img, ok := s.sprites[key]
	s.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err := rasterizePiece(piece, size)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if cached, ok := s.sprites[key]; ok {
		img = cached
	} else {
		s.sprites[key] = img
	}
	s.mu.Unlock()
	return img, nil
}

func assetPath(piece nchess.Piece) (string, error) {
	letter, ok := fenLetters[piece.Type()]
	if !ok {
		return "", fmt.Errorf("no asset for piece type %v", piece.Type())
	}
	side := "b"
	if piece.Color() == nchess.White {
		side = "w"
	}
	return "assets/pieces/" + side + letter + ".svg", nil
}

func rasterizePiece(piece nchess.Piece, size int) (*image.RGBA, error) {
	path, err := assetPath(piece)
	if err != nil {
		return nil, err
	}
	raw, err := pieceAssets.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for _, fix := range svgFixes {
		raw = bytes.ReplaceAll(raw, []byte(fix[0]), []byte(fix[1]))
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	fsize := float64(size)
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W, icon.ViewBox.H = fsize, fsize
	}
	icon.SetTarget(0, 0, fsize, fsize)

	// a fresh RGBA is fully transparent
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	icon.Draw(rasterx.NewDasher(size, size, rasterx.NewScannerGV(size, size, img, img.Bounds())), 1.0)
	return img, nil
}
