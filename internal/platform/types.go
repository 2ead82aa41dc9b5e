package platform

import (
	"fmt"
	"strconv"
	"strings"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// ParseMouseButton converts a string flag value to MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "left", "":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

func (b MouseButton) String() string {
	switch b {
	case MouseRight:
		return "right"
	case MouseMiddle:
		return "middle"
	default:
		return "left"
	}
}

// DispatchMode selects how a backend delivers press events.
type DispatchMode string

const (
	// DispatchSynthetic delivers events straight to the target element,
	// bypassing hit testing.
	DispatchSynthetic DispatchMode = "synthetic"
	// DispatchInput goes through the native input pipeline at the target's
	// center; the click is produced by the host from the down/up pair.
	DispatchInput DispatchMode = "cdp"
)

// ParseDispatchMode converts a flag value to a DispatchMode.
func ParseDispatchMode(s string) (DispatchMode, error) {
	switch strings.ToLower(s) {
	case "synthetic", "":
		return DispatchSynthetic, nil
	case "cdp", "input":
		return DispatchInput, nil
	default:
		return DispatchSynthetic, fmt.Errorf("unknown dispatch mode: %q (expected synthetic or cdp)", s)
	}
}

// Viewport is a screen size in pixels.
type Viewport struct {
	Width, Height int
}

// ParseViewport parses a "WIDTHxHEIGHT" string.
func ParseViewport(s string) (Viewport, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return Viewport{}, fmt.Errorf("invalid viewport %q: expected WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Viewport{}, fmt.Errorf("invalid viewport %q: %w", s, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Viewport{}, fmt.Errorf("invalid viewport %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return Viewport{}, fmt.Errorf("invalid viewport %q: dimensions must be positive", s)
	}
	return Viewport{Width: w, Height: h}, nil
}
