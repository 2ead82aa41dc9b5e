package platform

import (
	"errors"
	"fmt"
	"strings"
)

// Provider bundles all capability backends the harness consumes.
type Provider struct {
	Scene      Scene
	Camera     Camera
	Dispatcher EventDispatcher
	Surface    Surface
	Input      Input
}

// ErrMissingCapability is returned by Validate when a backend leaves a
// required capability unset.
var ErrMissingCapability = errors.New("missing capability")

// Validate checks that every capability the harness needs is present. Input
// is optional: without it the activation gesture is never observed.
func (p *Provider) Validate() error {
	if p == nil {
		return fmt.Errorf("provider: %w: all", ErrMissingCapability)
	}
	var missing []string
	if p.Scene == nil {
		missing = append(missing, "scene")
	}
	if p.Camera == nil {
		missing = append(missing, "camera")
	}
	if p.Dispatcher == nil {
		missing = append(missing, "event dispatcher")
	}
	if p.Surface == nil {
		missing = append(missing, "surface")
	}
	if len(missing) > 0 {
		return fmt.Errorf("provider: %w: %s", ErrMissingCapability, strings.Join(missing, ", "))
	}
	return nil
}
