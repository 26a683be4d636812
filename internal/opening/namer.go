package opening

import (
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

// Opening is the deepest ECO entry reached by a move list.
type Opening struct {
	Code  string
	Title string
	// Plies is how many leading moves were replayed before the lookup.
	Plies int
}

func (o Opening) String() string {
	if o.Code == "" {
		return o.Title
	}
	return o.Code + " " + o.Title
}

// Namer names openings from SAN move lists. The ECO book is loaded on first use.
type Namer struct {
	once sync.Once
	book *opening.BookECO
}

func NewNamer() *Namer { return &Namer{} }

var (
	defaultOnce  sync.Once
	defaultNamer *Namer
)

// Default returns a process-wide Namer.
func Default() *Namer {
	defaultOnce.Do(func() { defaultNamer = NewNamer() })
	return defaultNamer
}

func (n *Namer) loadBook() *opening.BookECO {
	n.once.Do(func() { n.book = opening.NewBookECO() })
	return n.book
}

// Name replays moves from the standard start position and looks up the
// opening. Replay stops at the first token that is not a legal move.
func (n *Namer) Name(moves []string) (Opening, bool) {
	if n == nil || len(moves) == 0 {
		return Opening{}, false
	}
	game, plies := replay(moves)
	if plies == 0 {
		return Opening{}, false
	}
	eco := n.loadBook().Find(game.Moves())
	if eco == nil {
		return Opening{}, false
	}
	return Opening{Code: eco.Code(), Title: eco.Title(), Plies: plies}, true
}

func replay(moves []string) (*nchess.Game, int) {
	game := nchess.NewGame()
	plies := 0
	for _, raw := range moves {
		mv := sanToken(raw)
		if mv == "" {
			continue
		}
		if err := game.PushNotationMove(mv, nchess.AlgebraicNotation{}, nil); err != nil {
			break
		}
		plies++
	}
	return game, plies
}

// sanToken strips move numbers ("12.", "12...") and annotation glyphs.
func sanToken(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimRight(strings.TrimSpace(s), "!?")
}
