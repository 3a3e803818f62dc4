// internal/models/card.go
package models

// Color identifies a card color. ColorNone is carried by wild cards until a
// color is called, and by every control signal except ColorPicked.
type Color int8

const (
	ColorNone Color = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorYellow
)

// Colors lists the four real table colors.
var Colors = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorYellow:
		return "yellow"
	default:
		return "none"
	}
}

// Symbol identifies the face of a physical card. Number symbols share their
// face value (SymbolZero == 0 .. SymbolNine == 9).
type Symbol int8

const (
	SymbolZero Symbol = iota
	SymbolOne
	SymbolTwo
	SymbolThree
	SymbolFour
	SymbolFive
	SymbolSix
	SymbolSeven
	SymbolEight
	SymbolNine
	SymbolSkip
	SymbolDrawTwo
	SymbolReverse
	SymbolWild
	SymbolWildDrawFour

	// SymbolNone marks a table with no active symbol yet.
	SymbolNone Symbol = -1
)

func (s Symbol) String() string {
	switch {
	case s >= SymbolZero && s <= SymbolNine:
		return string(rune('0' + int(s)))
	case s == SymbolSkip:
		return "skip"
	case s == SymbolDrawTwo:
		return "draw2"
	case s == SymbolReverse:
		return "reverse"
	case s == SymbolWild:
		return "wild"
	case s == SymbolWildDrawFour:
		return "draw4"
	default:
		return "none"
	}
}

// Signal is an in-band control token routed through the same transition
// entry point as a physical play. Signals never enter the deck or discard
// pile; SignalColorPicked is the only one carrying a payload (the color).
type Signal int8

const (
	SignalNone Signal = iota
	SignalPass
	SignalSkipped
	SignalReturnPenalty
	SignalPenaltyResolved
	SignalColorPicked
	SignalChallenge
	SignalChallengeSucceeded
	SignalChallengeFailed
)

func (s Signal) String() string {
	switch s {
	case SignalPass:
		return "pass"
	case SignalSkipped:
		return "skipped"
	case SignalReturnPenalty:
		return "return_penalty"
	case SignalPenaltyResolved:
		return "penalty_resolved"
	case SignalColorPicked:
		return "color_picked"
	case SignalChallenge:
		return "challenge"
	case SignalChallengeSucceeded:
		return "challenge_succeeded"
	case SignalChallengeFailed:
		return "challenge_failed"
	default:
		return "none"
	}
}

// Card is an immutable physical playing card. Equality is by value.
type Card struct {
	Color  Color  `json:"color"`
	Symbol Symbol `json:"symbol"`
}

// IsNumber reports whether the card is a plain number card.
func (c Card) IsNumber() bool {
	return c.Symbol >= SymbolZero && c.Symbol <= SymbolNine
}

// IsAction reports whether the card is a non-number card.
func (c Card) IsAction() bool {
	return !c.IsNumber()
}

// IsWild reports whether the card carries no intrinsic color.
func (c Card) IsWild() bool {
	return c.Symbol == SymbolWild || c.Symbol == SymbolWildDrawFour
}

// Score is the card's settlement weight: numbers count face value, colored
// action cards 20, wilds 50.
func (c Card) Score() int {
	switch {
	case c.IsNumber():
		return int(c.Symbol)
	case c.IsWild():
		return 50
	default:
		return 20
	}
}

// Legal reports whether the card may be played against the given table
// state. While a penalty is pending only a same-class stacking card is
// legal; otherwise a card is legal if it matches the active color or
// symbol, or is a wild.
func (c Card) Legal(color Color, symbol Symbol, d2, d4 bool) bool {
	if d2 {
		return c.Symbol == SymbolDrawTwo
	}
	if d4 {
		return c.Symbol == SymbolWildDrawFour
	}
	return c.IsWild() || c.Color == color || c.Symbol == symbol
}

// Play is the tagged variant fed to the rules state machine: either a
// physical card (Card != nil) or a control signal. ColorPicked carries the
// chosen color in Color.
type Play struct {
	Card   *Card  `json:"card,omitempty"`
	Signal Signal `json:"signal,omitempty"`
	Color  Color  `json:"color,omitempty"`
}

// IsPhysical reports whether the play discards a real card.
func (p Play) IsPhysical() bool {
	return p.Card != nil
}

// PlayCard wraps a physical card as a play.
func PlayCard(c Card) Play {
	return Play{Card: &c}
}

// PlaySignal wraps a control signal as a play.
func PlaySignal(s Signal) Play {
	return Play{Signal: s}
}

// PlayColorPicked builds the color-choice control play.
func PlayColorPicked(color Color) Play {
	return Play{Signal: SignalColorPicked, Color: color}
}

// NewPile pregenerates the canonical 108-card pile: per color one zero, two
// each of 1-9, Skip, DrawTwo and Reverse, plus four Wild and four DrawFour.
func NewPile() []Card {
	colored := []Symbol{
		SymbolZero, SymbolOne, SymbolTwo, SymbolThree, SymbolFour,
		SymbolFive, SymbolSix, SymbolSeven, SymbolEight, SymbolNine,
		SymbolSkip, SymbolDrawTwo, SymbolReverse,
	}
	pile := make([]Card, 0, 108)
	for _, s := range colored {
		for _, c := range Colors {
			if s != SymbolZero {
				pile = append(pile, Card{Color: c, Symbol: s})
			}
			pile = append(pile, Card{Color: c, Symbol: s})
		}
	}
	for range Colors {
		pile = append(pile, Card{Color: ColorNone, Symbol: SymbolWild})
		pile = append(pile, Card{Color: ColorNone, Symbol: SymbolWildDrawFour})
	}
	return pile
}
