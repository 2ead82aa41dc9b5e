package harness

import (
	"github.com/mj1618/press-monkey/internal/stats"
)

// Report is the end-of-run summary printed by the CLI.
type Report struct {
	Session        string        `yaml:"session"         json:"session"`
	State          string        `yaml:"state"           json:"state"`
	Elapsed        string        `yaml:"elapsed"         json:"elapsed"`
	Presses        int           `yaml:"presses"         json:"presses"`
	Cycles         int           `yaml:"cycles"          json:"cycles"`
	Eligible       int           `yaml:"eligible"        json:"eligible"`
	SurfaceVisible bool          `yaml:"surface_visible" json:"surface_visible"`
	Controls       []stats.Entry `yaml:"controls"        json:"controls"`
	Status         string        `yaml:"status,omitempty" json:"status,omitempty"`
}

// Report snapshots the session.
func (h *Harness) Report() Report {
	return Report{
		Session:        h.session,
		State:          h.state.String(),
		Elapsed:        h.Elapsed().String(),
		Presses:        h.loop.Presses(),
		Cycles:         h.loop.Cycles(),
		Eligible:       len(h.loop.Eligible()),
		SurfaceVisible: h.provider.Surface.Visible(),
		Controls:       h.table.Entries(),
		Status:         h.status,
	}
}
