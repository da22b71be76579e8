package domain

// Color is the derived health of an indicator.
type Color int

const (
	// ColorUnknown is only used before the first accepted value.
	ColorUnknown Color = iota
	ColorGreen
	ColorYellow
	ColorRed
)

func (c Color) String() string {
	switch c {
	case ColorGreen:
		return "green"
	case ColorYellow:
		return "yellow"
	case ColorRed:
		return "red"
	}
	return "unknown"
}
