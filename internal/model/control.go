package model

import "github.com/mj1618/press-monkey/internal/arena"

// Control is a snapshot of a pressable element as reported by a scene
// backend. Snapshots are cheap to take and are re-read whenever eligibility
// has to be re-checked.
type Control struct {
	Handle   arena.Handle `yaml:"-"                  json:"-"`
	Name     string       `yaml:"name"               json:"name"`
	Role     string       `yaml:"role,omitempty"     json:"role,omitempty"` // Compact role code
	Active   bool         `yaml:"active"             json:"active"`         // Active in hierarchy
	Collider *Collider    `yaml:"collider,omitempty" json:"collider,omitempty"`
	Canvas   arena.Handle `yaml:"-"                  json:"-"` // Nearest enclosing canvas, Nil if none
}

// Collider is the interaction region of a control in world space.
type Collider struct {
	Bounds  Rect    `yaml:"bounds"  json:"bounds"`
	Z       float64 `yaml:"z"       json:"z"`
	Enabled bool    `yaml:"enabled" json:"enabled"`
}

// Center returns the world-space center of the region.
func (c Collider) Center() Vec3 {
	cx, cy := c.Bounds.Center()
	return Vec3{X: cx, Y: cy, Z: c.Z}
}

// Interactable reports whether the control has an enabled interaction
// region.
func (c Control) Interactable() bool {
	return c.Collider != nil && c.Collider.Enabled
}
