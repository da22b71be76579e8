// Package domain contains the core domain types for the chain context.
package domain

import (
	"fmt"
	"strings"
)

// Layer selects which rollup deployment the dashboard watches.
// LayerTwo pairs L1 (base) with L2 (rollup); LayerThree pairs L2 (base)
// with L3 (rollup).
type Layer int

const (
	LayerTwo Layer = iota + 2
	LayerThree
)

// Layers lists every supported layer in cycling order.
var Layers = []Layer{LayerTwo, LayerThree}

// ParseLayer accepts "2", "l2", "two", "3", "l3" and "three" in any case.
func ParseLayer(s string) (Layer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "2", "l2", "two":
		return LayerTwo, nil
	case "3", "l3", "three":
		return LayerThree, nil
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}

// String returns the display name ("L2" or "L3").
func (l Layer) String() string {
	switch l {
	case LayerTwo:
		return "L2"
	case LayerThree:
		return "L3"
	}
	return fmt.Sprintf("Layer(%d)", int(l))
}

// Key returns the configuration key of the layer.
func (l Layer) Key() string {
	if l == LayerThree {
		return "three"
	}
	return "two"
}

// Valid reports whether l is a supported layer.
func (l Layer) Valid() bool {
	return l == LayerTwo || l == LayerThree
}

// Next returns the following layer, wrapping around.
func (l Layer) Next() Layer {
	if l == LayerTwo {
		return LayerThree
	}
	return LayerTwo
}
