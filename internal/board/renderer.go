package board

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// HUD is the text drawn around the board.
type HUD struct {
	Header string
	Turn   string
	// Badge sits at the top right, tinted with Accent.
	Badge  string
	Accent color.Color
	// Confidence in [0,100] draws a bar under the board; negative hides it.
	Confidence float64
}

// Renderer turns a board into a PNG image.
type Renderer interface {
	RenderPNG(ctx context.Context, board *nchess.Board, hud HUD) ([]byte, error)
}

type pngRenderer struct {
	face    font.Face
	sprites *spriteSheet
}

func NewRenderer() Renderer {
	return &pngRenderer{face: basicfont.Face7x13, sprites: newSpriteSheet()}
}

const (
	squareSize    = 56
	boardSquares  = 8
	boardSize     = squareSize * boardSquares
	sideMargin    = 28
	topMargin     = 96
	bottomMargin  = 28
	barAreaHeight = 30
	barHeight     = 12
	panelHeight   = 28
	panelGap      = 10
	panelRadius   = 10
	panelPadX     = 16
	shadowOffsetY = 4
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	backgroundColor     = color.RGBA{20, 22, 33, 255}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor   = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	barTrackColor       = color.NRGBA{R: 55, G: 60, B: 80, A: 255}
	defaultAccentColor  = color.NRGBA{R: 234, G: 179, B: 8, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func (r *pngRenderer) RenderPNG(ctx context.Context, board *nchess.Board, hud HUD) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	bottom := bottomMargin
	if hud.Confidence >= 0 {
		bottom += barAreaHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottom))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	r.drawHUD(img, hud, boardRect)
	drawSquares(img, origin)
	if err := r.drawPieces(img, board, origin); err != nil {
		return nil, err
	}
	r.drawCoordinates(img, origin)
	if hud.Confidence >= 0 {
		drawConfidenceBar(img, hud, boardRect)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	ranks = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

func drawSquares(dst imagedraw.Image, origin image.Point) {
	for row, rank := range ranks {
		for col, file := range files {
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			clr := color.Color(lightSquare)
			if (int(file)+int(rank))%2 == 0 {
				clr = darkSquare
			}
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func (r *pngRenderer) drawPieces(dst imagedraw.Image, board *nchess.Board, origin image.Point) error {
	squares := board.SquareMap()
	for row, rank := range ranks {
		for col, file := range files {
			piece := squares[nchess.NewSquare(file, rank)]
			if piece == nchess.NoPiece {
				continue
			}
			img, err := r.sprites.get(piece, squareSize)
			if err != nil {
				return err
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func (r *pngRenderer) drawHUD(img *image.RGBA, hud HUD, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(hud.Header)
	if title == "" {
		title = "Prediction"
	}
	turn := strings.TrimSpace(hud.Turn)
	badge := strings.TrimSpace(hud.Badge)

	turnBottom := boardRect.Min.Y - panelGap*2
	turnTop := turnBottom - panelHeight
	titleBottom := turnTop - panelGap
	titleTop := titleBottom - panelHeight

	badgeWidth := 0
	if badge != "" {
		badgeWidth = drawer.MeasureString(badge).Round() + panelPadX*2
	}
	titleWidth := drawer.MeasureString(title).Round() + panelPadX*2
	if limit := boardRect.Dx() - badgeWidth - panelGap; titleWidth > limit {
		titleWidth = limit
	}

	titleRect := image.Rect(boardRect.Min.X, titleTop, boardRect.Min.X+titleWidth, titleBottom)
	drawRoundedPanel(img, titleRect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawCenteredString(drawer, titleRect, truncateWithEllipsis(r.face, title, titleRect.Dx()-panelPadX*2), hudTextPrimary)

	if badge != "" {
		accent := hud.Accent
		if accent == nil {
			accent = defaultAccentColor
		}
		badgeRect := image.Rect(boardRect.Max.X-badgeWidth, titleTop, boardRect.Max.X, titleBottom)
		drawRoundedPanel(img, badgeRect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
		drawRoundedPanel(img, badgeRect, panelRadius, accent)
		drawCenteredString(drawer, badgeRect, badge, hudTextPrimary)
	}

	if turn != "" {
		turnWidth := drawer.MeasureString(turn).Round() + panelPadX*2
		left := boardRect.Min.X + (boardRect.Dx()-turnWidth)/2
		turnRect := image.Rect(left, turnTop, left+turnWidth, turnBottom)
		drawRoundedPanel(img, turnRect, panelRadius, hudTurnPanelColor)
		drawCenteredString(drawer, turnRect, turn, hudTurnTextColor)
	}
}

func drawConfidenceBar(img *image.RGBA, hud HUD, boardRect image.Rectangle) {
	top := boardRect.Max.Y + bottomMargin + (barAreaHeight-barHeight)/2
	track := image.Rect(boardRect.Min.X, top, boardRect.Max.X, top+barHeight)
	drawRoundedPanel(img, track, barHeight/2, barTrackColor)

	pct := hud.Confidence
	if pct > 100 {
		pct = 100
	}
	width := int(float64(track.Dx()) * pct / 100)
	if width <= 0 {
		return
	}
	accent := hud.Accent
	if accent == nil {
		accent = defaultAccentColor
	}
	drawRoundedPanel(img, image.Rect(track.Min.X, track.Min.Y, track.Min.X+width, track.Max.Y), barHeight/2, accent)
}

func (r *pngRenderer) drawCoordinates(dst imagedraw.Image, origin image.Point) {
	drawer := &font.Drawer{Dst: dst, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + boardSize

	for row, rank := range ranks {
		baseline := origin.Y + row*squareSize + squareSize/2 + ascent/2
		drawCenteredText(drawer, rank.String(), origin.X-sideMargin/2, baseline)
	}
	for col, file := range files {
		center := origin.X + col*squareSize + squareSize/2
		drawCenteredText(drawer, file.String(), center, boardEndY+ascent+4)
	}
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if img == nil || rect.Empty() {
		return
	}
	maxRadius := rect.Dx() / 2
	if r := rect.Dy() / 2; r < maxRadius {
		maxRadius = r
	}
	if radius > maxRadius {
		radius = maxRadius
	}
	fill := image.NewUniform(clr)
	if radius <= 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}

	// Cross of two rectangles, then a disc on each corner.
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, c := range corners {
		drawQuarterDisc(img, c, radius, rect, clr)
	}
}

// drawQuarterDisc fills the part of the disc at center that lies outside
// the cross already painted, so translucent colours are not blended twice.
func drawQuarterDisc(img *image.RGBA, center image.Point, radius int, rect image.Rectangle, clr color.Color) {
	inner := image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y)
	innerV := image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius)
	rr := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rr {
				continue
			}
			p := image.Pt(center.X+x, center.Y+y)
			if !p.In(rect) || p.In(inner) || p.In(innerV) {
				continue
			}
			blendPixel(img, p.X, p.Y, clr)
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 0xffff - sa
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/0xffff) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/0xffff) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/0xffff) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/0xffff) >> 8),
	})
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if drawer == nil || text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
