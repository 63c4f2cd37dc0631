package server

import (
	"math/rand"
)

// DefaultPalette is the fixed set of display colors. Each session gets a
// uniform random pick at connect; collisions between sessions are allowed.
var DefaultPalette = []string{"#e74c3c", "#3498db", "#2ecc71", "#6d59b6", "#f39c12"}

func pickColor(palette []string) string {
	return palette[rand.Intn(len(palette))]
}
