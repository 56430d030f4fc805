package overlay

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlace_Center(t *testing.T) {
	bg := "AAAAA\nAAAAA\nAAAAA"
	lines := strings.Split(Place(Config{Width: 5, Height: 3, Position: Center}, "XX", bg), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "AAAAA", lines[0])
	assert.Equal(t, "AXXAA", lines[1])
	assert.Equal(t, "AAAAA", lines[2])
}

func TestPlace_TopAndBottomPadding(t *testing.T) {
	bg := strings.Repeat("AAAAA\n", 4) + "AAAAA"

	top := strings.Split(Place(Config{Width: 5, Height: 5, Position: Top, PadY: 1}, "XX", bg), "\n")
	assert.Equal(t, "AAAAA", top[0])
	assert.Equal(t, "AXXAA", top[1])

	bottom := strings.Split(Place(Config{Width: 5, Height: 5, Position: Bottom, PadY: 1}, "XX", bg), "\n")
	assert.Equal(t, "AXXAA", bottom[3])
	assert.Equal(t, "AAAAA", bottom[4])
}

func TestPlace_PadsShortBackground(t *testing.T) {
	lines := strings.Split(Place(Config{Width: 6, Height: 4, Position: Bottom}, "XX", "A"), "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "A", lines[0])
	assert.Equal(t, "  XX", lines[3])
}

func TestPlace_OversizedForegroundStartsAtOrigin(t *testing.T) {
	lines := strings.Split(Place(Config{Width: 3, Height: 3, Position: Center}, "XXXXX\nXXXXX\nXXXXX\nXXXXX", "AAA\nAAA\nAAA"), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "XXXXX", lines[0])
}

func TestPlace_KeepsStyledBackground(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("AAAAAA")
	out := Place(Config{Width: 6, Height: 1, Position: Center}, "XX", styled)

	assert.Contains(t, out, "XX")
	assert.Equal(t, 6, lipgloss.Width(out))
}
