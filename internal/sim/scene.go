package sim

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
)

// SceneFile is the YAML document describing a world and a script of
// operator inputs.
type SceneFile struct {
	Camera  *CameraSpec   `yaml:"camera,omitempty"`
	Surface *SurfaceNodes `yaml:"surface,omitempty"`
	Nodes   []NodeSpec    `yaml:"nodes"`
	Script  []Step        `yaml:"script,omitempty"`
}

// NodeSpec is one node of the scene tree.
type NodeSpec struct {
	Name     string          `yaml:"name"`
	Active   *bool           `yaml:"active,omitempty"` // Defaults to true
	Canvas   bool            `yaml:"canvas,omitempty"`
	Control  bool            `yaml:"control,omitempty"`
	Role     string          `yaml:"role,omitempty"`
	Collider *model.Collider `yaml:"collider,omitempty"`
	Layer    int             `yaml:"layer,omitempty"`
	Text     string          `yaml:"text,omitempty"`
	OnClick  []Behavior      `yaml:"on_click,omitempty"`
	Children []NodeSpec      `yaml:"children,omitempty"`
}

// Scene is a loaded world with its script.
type Scene struct {
	World  *World
	Script *Script
}

// ParseScene decodes a scene document.
func ParseScene(r io.Reader) (*SceneFile, error) {
	var f SceneFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return &f, nil
}

// LoadScene reads and builds the scene at path.
func LoadScene(path string, logger *zap.Logger) (*Scene, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene: %w", err)
	}
	defer fh.Close()
	f, err := ParseScene(fh)
	if err != nil {
		return nil, err
	}
	return f.Build(logger)
}

// Build creates the world described by f.
func (f *SceneFile) Build(logger *zap.Logger) (*Scene, error) {
	opts := []Option{WithLogger(logger)}
	if f.Camera != nil {
		opts = append(opts, WithCamera(*f.Camera))
	}
	w := NewWorld(opts...)
	for _, n := range f.Nodes {
		if err := w.addSpec(n, arena.Nil); err != nil {
			return nil, err
		}
	}
	if f.Surface != nil {
		if _, err := w.DeclareSurface(*f.Surface); err != nil {
			return nil, err
		}
	}
	script, err := NewScript(f.Script)
	if err != nil {
		return nil, err
	}
	return &Scene{World: w, Script: script}, nil
}

func (w *World) addSpec(spec NodeSpec, parent arena.Handle) error {
	if spec.Name == "" {
		return fmt.Errorf("scene: node without a name")
	}
	for _, b := range spec.OnClick {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("scene: node %q: %w", spec.Name, err)
		}
	}
	active := true
	if spec.Active != nil {
		active = *spec.Active
	}
	var col *model.Collider
	if spec.Collider != nil {
		c := *spec.Collider
		col = &c
	}
	h, err := w.Add(Node{
		Name:       spec.Name,
		Parent:     parent,
		ActiveSelf: active,
		Canvas:     spec.Canvas,
		Control:    spec.Control,
		Role:       spec.Role,
		Collider:   col,
		Layer:      spec.Layer,
		Text:       spec.Text,
		OnClick:    spec.OnClick,
	})
	if err != nil {
		return err
	}
	for _, c := range spec.Children {
		if err := w.addSpec(c, h); err != nil {
			return err
		}
	}
	return nil
}
