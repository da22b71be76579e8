// Package components provides reusable TUI components.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	cardWidth  = 30
	cardHeight = 4
)

var (
	cardColors = map[string]lipgloss.Color{
		"green":  lipgloss.Color("#10B981"),
		"yellow": lipgloss.Color("#F59E0B"),
		"red":    lipgloss.Color("#EF4444"),
	}
	mutedColor    = lipgloss.Color("#6B7280")
	selectedColor = lipgloss.Color("#7C3AED")
)

// StatusCard is one indicator as shown on the grid.
type StatusCard struct {
	ID      string
	Header  string
	Value   string
	Color   string // green, yellow, red or unknown
	Tooltip string
	Href    string
}

// StatusGrid renders indicators as a grid of cards with one selected.
type StatusGrid struct {
	cards    []StatusCard
	index    map[string]int
	selected int
}

// NewStatusGrid creates an empty grid.
func NewStatusGrid() *StatusGrid {
	return &StatusGrid{index: make(map[string]int)}
}

// Set replaces every card, keeping the selection in range.
func (g *StatusGrid) Set(cards []StatusCard) {
	g.cards = append(g.cards[:0:0], cards...)
	g.index = make(map[string]int, len(cards))
	for i, c := range g.cards {
		g.index[c.ID] = i
	}
	if g.selected >= len(g.cards) {
		g.selected = 0
	}
}

// Update replaces the card with the same id. Unknown ids are ignored.
func (g *StatusGrid) Update(card StatusCard) {
	if i, ok := g.index[card.ID]; ok {
		g.cards[i] = card
	}
}

// Len returns the number of cards.
func (g *StatusGrid) Len() int {
	return len(g.cards)
}

// Selected returns the selected card.
func (g *StatusGrid) Selected() (StatusCard, bool) {
	if len(g.cards) == 0 {
		return StatusCard{}, false
	}
	return g.cards[g.selected], true
}

// Move shifts the selection by delta, wrapping at both ends.
func (g *StatusGrid) Move(delta int) {
	n := len(g.cards)
	if n == 0 {
		return
	}
	g.selected = ((g.selected+delta)%n + n) % n
}

// Columns returns how many cards fit in width.
func Columns(width int) int {
	cols := width / (cardWidth + 2)
	if cols < 1 {
		return 1
	}
	return cols
}

// View renders the grid for a terminal of the given width.
func (g *StatusGrid) View(width int) string {
	if len(g.cards) == 0 {
		return lipgloss.NewStyle().Foreground(mutedColor).Render("No indicators")
	}

	cols := Columns(width)
	var rows []string
	for start := 0; start < len(g.cards); start += cols {
		end := start + cols
		if end > len(g.cards) {
			end = len(g.cards)
		}
		cells := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cells = append(cells, renderCard(g.cards[i], i == g.selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func renderCard(c StatusCard, selected bool) string {
	border := mutedColor
	if selected {
		border = selectedColor
	}

	dot, ok := cardColors[c.Color]
	if !ok {
		dot = mutedColor
	}

	header := lipgloss.NewStyle().Foreground(mutedColor).Render(truncate(c.Header, cardWidth-4))
	value := lipgloss.NewStyle().Bold(true).Foreground(dot).Render("● " + truncate(c.Value, cardWidth-6))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(cardWidth).
		Height(cardHeight).
		Padding(0, 1).
		Render(header + "\n\n" + value)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
