package sensor

import "fmt"

// Color is an sRGB display color.
type Color struct {
	R, G, B uint8
}

// Display colors for status lines.
var (
	DarkGreen  = Color{R: 0x00, G: 0x7C, B: 0x00}
	DarkOrange = Color{R: 0xB2, G: 0x8C, B: 0x00}
	DarkRed    = Color{R: 0xB2, G: 0x00, B: 0x00}
	Black      = Color{}

	// ErrorColor renders the status line after a failed tick.
	ErrorColor = DarkRed
)

// Hex returns the color in #RRGGBB notation.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// MarshalText encodes the color as #RRGGBB so it reads naturally in JSON.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// ColorFor maps a status category to its display color.
//
// Any category outside the known set renders like [CategoryUnknown].
func ColorFor(c Category) Color {
	switch c {
	case CategoryNormal:
		return DarkGreen
	case CategoryWarning:
		return DarkOrange
	case CategoryCritical:
		return DarkRed
	default:
		return Black
	}
}
