package presenter

import "context"

// Text is a field showing a single string, optionally styled.
type Text interface {
	SetText(text string)
	SetTone(tone Tone)
}

// Region is a container that can be shown or hidden.
type Region interface {
	SetVisible(visible bool)
}

// Control is the submit control.
type Control interface {
	SetEnabled(enabled bool)
}

// Bar is the confidence bar. Width is a percentage in [0,100].
type Bar interface {
	SetWidth(percent float64)
	SetTone(tone Tone)
}

// MoveList receives the two-column move table.
type MoveList interface {
	Reset()
	AddRow(row MoveRow)
}

// Board is the board widget.
type Board interface {
	SetPosition(fen string) error
}

// BoardFactory builds a board showing the starting position.
type BoardFactory func(ctx context.Context) (Board, error)

// Elements are the page elements a Presenter writes to. Every field is
// required except the board pair; without NewBoard the board region stays
// hidden.
type Elements struct {
	Submit Control
	Error  Text

	Initial Region
	Loading Region
	Results Region

	Outcome         Text
	ConfidenceBar   Bar
	ConfidenceLabel Text
	WhiteProb       Text
	BlackProb       Text
	DrawProb        Text

	Moves    Region
	MoveList MoveList

	BoardRegion Region
	NewBoard    BoardFactory
}
