package models

import "strings"

// Color identifies a gem resource.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlue  Color = "blue"
	ColorGreen Color = "green"
	ColorRed   Color = "red"
	ColorBlack Color = "black"
	ColorGold  Color = "gold"
)

// DraftColors is the order in which a token draft is expanded into a request.
var DraftColors = []Color{ColorBlack, ColorBlue, ColorWhite, ColorGreen, ColorRed, ColorGold}

// ParseColor normalizes a color name. The second result is false for unknown names.
func ParseColor(s string) (Color, bool) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ColorWhite, ColorBlue, ColorGreen, ColorRed, ColorBlack, ColorGold:
		return c, true
	default:
		return "", false
	}
}

// TokenSet holds one count per color, gold included.
type TokenSet struct {
	White int `json:"white"`
	Blue  int `json:"blue"`
	Green int `json:"green"`
	Red   int `json:"red"`
	Black int `json:"black"`
	Gold  int `json:"gold"`
}

// Get returns the count for a color, 0 for unknown colors.
func (t TokenSet) Get(c Color) int {
	switch c {
	case ColorWhite:
		return t.White
	case ColorBlue:
		return t.Blue
	case ColorGreen:
		return t.Green
	case ColorRed:
		return t.Red
	case ColorBlack:
		return t.Black
	case ColorGold:
		return t.Gold
	default:
		return 0
	}
}

// Set overwrites the count for a color. Unknown colors are ignored.
func (t *TokenSet) Set(c Color, n int) {
	switch c {
	case ColorWhite:
		t.White = n
	case ColorBlue:
		t.Blue = n
	case ColorGreen:
		t.Green = n
	case ColorRed:
		t.Red = n
	case ColorBlack:
		t.Black = n
	case ColorGold:
		t.Gold = n
	}
}

// Add adjusts the count for a color by n.
func (t *TokenSet) Add(c Color, n int) {
	t.Set(c, t.Get(c)+n)
}

// Total sums all six counts.
func (t TokenSet) Total() int {
	return t.White + t.Blue + t.Green + t.Red + t.Black + t.Gold
}
