package model

import "testing"

func TestRect_ContainsInclusiveEdges(t *testing.T) {
	r := Rect{X: 1, Y: 1, W: 2, H: 2}
	if !r.Contains(1, 1) || !r.Contains(3, 3) {
		t.Error("edges should be inclusive")
	}
	if r.Contains(3.01, 2) {
		t.Error("point right of rect should not be contained")
	}
}

func TestCollider_Center(t *testing.T) {
	c := Collider{Bounds: Rect{X: -1, Y: 2, W: 2, H: 4}, Z: 3}
	got := c.Center()
	if got != (Vec3{X: 0, Y: 4, Z: 3}) {
		t.Errorf("Center: got %v", got)
	}
}

func TestControl_Interactable(t *testing.T) {
	if (Control{}).Interactable() {
		t.Error("control without collider should not be interactable")
	}
	c := Control{Collider: &Collider{Enabled: false}}
	if c.Interactable() {
		t.Error("disabled collider should not be interactable")
	}
	c.Collider.Enabled = true
	if !c.Interactable() {
		t.Error("enabled collider should be interactable")
	}
}
