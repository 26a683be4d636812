package chatview

import (
	"fmt"
	"math"
	"strings"

	"github.com/park285/Cheese-Predict-bot/internal/msgcat"
	"github.com/park285/Cheese-Predict-bot/internal/opening"
	"github.com/park285/Cheese-Predict-bot/internal/presenter"
	"github.com/park285/Cheese-Predict-bot/internal/util"
)

const (
	barCells = 20
	// move tables longer than this are folded behind Kakao's "see more"
	seeMoreRows = 8
)

// Formatter renders page snapshots into Kakao-friendly text blocks.
type Formatter struct {
	cat      *msgcat.Catalog
	prefix   string
	openings *opening.Namer
}

func NewFormatter(cat *msgcat.Catalog, prefix string) *Formatter {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	return &Formatter{cat: cat, prefix: strings.TrimSpace(prefix), openings: opening.Default()}
}

// WithoutOpenings drops the opening line from results.
func (f *Formatter) WithoutOpenings() *Formatter {
	cp := *f
	cp.openings = nil
	return &cp
}

func (f *Formatter) Prefix() string { return f.prefix }

func (f *Formatter) text(key string, data any) string {
	return f.cat.Text(key, data, key)
}

func (f *Formatter) prefixData() map[string]string {
	return map[string]string{"Prefix": f.prefix}
}

// Messages returns the presenter's error texts from the catalog.
func (f *Formatter) Messages() presenter.Messages {
	return presenter.Messages{
		EmptyUsername: f.cat.Text(msgcat.KeyValidation, nil, ""),
		Generic:       f.cat.Text(msgcat.KeyGeneric, nil, ""),
		Network:       f.cat.Text(msgcat.KeyNetwork, nil, ""),
		Malformed:     f.cat.Text(msgcat.KeyMalformed, nil, ""),
	}
}

func (f *Formatter) Help() string  { return f.text(msgcat.KeyHelp, f.prefixData()) }
func (f *Formatter) Usage() string { return f.text(msgcat.KeyUsage, f.prefixData()) }
func (f *Formatter) Busy() string  { return f.text(msgcat.KeyBusy, nil) }

func (f *Formatter) Loading(username string) string {
	return f.text(msgcat.KeyLoading, map[string]string{"Username": username})
}

// Result renders the results region of s.
func (f *Formatter) Result(s Snapshot) string {
	header := f.text(msgcat.KeyHeader, nil)

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("%s %s: %s\n", ToneMarker(s.Tone), f.text(msgcat.KeyLabelResult, nil), s.Outcome))
	sb.WriteString(fmt.Sprintf("%s: %s %s\n", f.text(msgcat.KeyLabelConf, nil), ConfidenceBar(s.BarWidth, barCells), s.ConfidenceLabel))
	sb.WriteString(fmt.Sprintf("• %s: %s\n", f.text(msgcat.KeyLabelWhite, nil), orDash(s.WhiteProb)))
	sb.WriteString(fmt.Sprintf("• %s: %s\n", f.text(msgcat.KeyLabelBlack, nil), orDash(s.BlackProb)))
	sb.WriteString(fmt.Sprintf("• %s: %s", f.text(msgcat.KeyLabelDraw, nil), orDash(s.DrawProb)))

	if s.MovesVisible && len(s.Rows) > 0 {
		sb.WriteString("\n\n")
		if o, ok := f.openings.Name(flatMoves(s.Rows)); ok {
			sb.WriteString(fmt.Sprintf("%s: %s\n", f.text(msgcat.KeyLabelOpen, nil), o))
		}
		sb.WriteString(f.text(msgcat.KeyLabelMoves, nil))
		sb.WriteString("\n")
		sb.WriteString(MoveTable(s.Rows))
	}
	if !s.BoardVisible {
		sb.WriteString("\n")
		sb.WriteString(f.text(msgcat.KeyNoBoard, nil))
	}

	text := sb.String()
	if s.MovesVisible && len(s.Rows) > seeMoreRows {
		return util.ApplySeeMoreWithHeader(text, header, f.text(msgcat.KeySeeMore, nil), "\n"+f.text(msgcat.KeySeeMore, nil))
	}
	return text
}

// ToneMarker is the emoji standing in for a tone colour.
func ToneMarker(t presenter.Tone) string {
	switch t {
	case presenter.ToneGreen:
		return "🟢"
	case presenter.ToneRed:
		return "🔴"
	case presenter.ToneGray:
		return "⚪"
	default:
		return "🟡"
	}
}

// ConfidenceBar draws width percent as a bar of cells characters.
func ConfidenceBar(width float64, cells int) string {
	if cells <= 0 {
		return ""
	}
	if math.IsNaN(width) || width < 0 {
		width = 0
	}
	if width > 100 {
		width = 100
	}
	filled := int(math.Round(width / 100 * float64(cells)))
	return strings.Repeat("█", filled) + strings.Repeat("░", cells-filled)
}

// MoveTable renders rows as "1. e4 e5" lines.
func MoveTable(rows []presenter.MoveRow) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		line := fmt.Sprintf("%d. %s", r.Number, r.White)
		if r.Black != "" {
			line += " " + r.Black
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func flatMoves(rows []presenter.MoveRow) []string {
	out := make([]string, 0, len(rows)*2)
	for _, r := range rows {
		out = append(out, r.White)
		if r.Black != "" {
			out = append(out, r.Black)
		}
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
