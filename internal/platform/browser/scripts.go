package browser

import (
	"encoding/json"
	"fmt"
)

const (
	idAttr    = "data-press-monkey-id"
	surfaceID = "press-monkey-surface"
	stateVar  = "window.__pressMonkey"
)

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// scanScript tags every element matching selector and reports its
// geometry, state and what sits on top of its center.
func scanScript(selector string) string {
	return fmt.Sprintf(`(() => {
  const attr = %[2]s;
  const st = %[3]s = %[3]s || {next: 1, triggers: [], keys: 0};
  const label = (el) => (el.getAttribute('aria-label') || el.id || (el.innerText || el.value || '').trim().slice(0, 40) || el.tagName.toLowerCase());
  const hitOf = (x, y) => {
    const e = document.elementFromPoint(x, y);
    if (!e) return null;
    const c = e.closest('[' + attr + ']');
    return c ? c.getAttribute(attr) : '';
  };
  const out = [];
  for (const el of document.querySelectorAll(%[1]s)) {
    if (!el.hasAttribute(attr)) el.setAttribute(attr, 'c' + (st.next++));
    const r = el.getBoundingClientRect();
    const cs = getComputedStyle(el);
    const active = el.isConnected && el.getClientRects().length > 0 && cs.visibility !== 'hidden';
    const enabled = !el.disabled && el.getAttribute('aria-disabled') !== 'true' && cs.pointerEvents !== 'none' && r.width > 0 && r.height > 0;
    out.push({
      id: el.getAttribute(attr), name: label(el), tag: el.tagName.toLowerCase(),
      role: el.getAttribute('role') || '', active, enabled,
      x: r.left, y: r.top, w: r.width, h: r.height,
      surface: !!el.closest('#' + %[4]s),
      hit: active ? hitOf(r.left + r.width / 2, r.top + r.height / 2) : null,
    });
  }
  return out;
})()`, jsString(selector), jsString(idAttr), stateVar, jsString(surfaceID))
}

// probeResult is what probeScript returns. Hit uses the same encoding as
// domControl.Hit.
type probeResult struct {
	Hit *string `json:"hit"`
}

// probeScript reports the tagged element at a viewport point.
func probeScript(x, y float64) string {
	return fmt.Sprintf(`(() => {
  const e = document.elementFromPoint(%v, %v);
  if (!e) return {hit: null};
  const c = e.closest('[' + %s + ']');
  return {hit: c ? c.getAttribute(%s) : ''};
})()`, x, y, jsString(idAttr), jsString(idAttr))
}

// phase names a synthetic dispatch step.
type phase string

const (
	phaseDown  phase = "down"
	phaseUp    phase = "up"
	phaseClick phase = "click"
)

// dispatchScript fires DOM events on the element tagged id. It evaluates
// to false when the element is gone.
func dispatchScript(id string, p phase, button int) string {
	return fmt.Sprintf(`((id, phase, button) => {
  const el = document.querySelector('[' + %s + '="' + id + '"]');
  if (!el) return false;
  const r = el.getBoundingClientRect();
  const o = {bubbles: true, cancelable: true, composed: true, button,
    clientX: r.left + r.width / 2, clientY: r.top + r.height / 2};
  if (phase === 'down') {
    el.dispatchEvent(new PointerEvent('pointerdown', o));
    el.dispatchEvent(new MouseEvent('mousedown', o));
  } else if (phase === 'up') {
    el.dispatchEvent(new PointerEvent('pointerup', o));
    el.dispatchEvent(new MouseEvent('mouseup', o));
  } else {
    el.click();
  }
  return true;
})(%s, %s, %d)`, jsString(idAttr), jsString(id), jsString(string(p)), button)
}

// surfaceScript injects the harness overlay when it is missing and
// applies the given state. It evaluates to true when it had to inject.
func surfaceScript(visible, startVisible, stopVisible bool, status string) string {
	return fmt.Sprintf(`((visible, startVisible, stopVisible, status) => {
  const st = %[1]s = %[1]s || {next: 1, triggers: [], keys: 0};
  let root = document.getElementById(%[2]s);
  let injected = false;
  if (!root) {
    injected = true;
    root = document.createElement('div');
    root.id = %[2]s;
    root.style.cssText = 'position:fixed;top:8px;right:8px;z-index:2147483647;background:rgba(20,20,24,.92);color:#fff;font:12px monospace;padding:8px;border-radius:4px';
    const mk = (name, label) => {
      const b = document.createElement('button');
      b.id = %[2]s + '-' + name;
      b.textContent = label;
      b.addEventListener('click', (ev) => { ev.stopPropagation(); st.triggers.push(name); });
      root.appendChild(b);
      return b;
    };
    mk('start', 'Start');
    mk('stop', 'Stop');
    const pre = document.createElement('pre');
    pre.id = %[2]s + '-status';
    root.appendChild(pre);
    (document.body || document.documentElement).appendChild(root);
    if (!st.keyListener) {
      st.keyListener = true;
      document.addEventListener('keydown', (ev) => { if (ev.key === 'Enter' && !ev.repeat) st.keys++; }, true);
    }
  }
  root.style.display = visible ? 'block' : 'none';
  document.getElementById(%[2]s + '-start').style.display = startVisible ? 'inline-block' : 'none';
  document.getElementById(%[2]s + '-stop').style.display = stopVisible ? 'inline-block' : 'none';
  document.getElementById(%[2]s + '-status').textContent = status;
  return injected;
})(%[3]t, %[4]t, %[5]t, %[6]s)`, stateVar, jsString(surfaceID), visible, startVisible, stopVisible, jsString(status))
}

// drainResult is what drainScript returns.
type drainResult struct {
	Present  bool     `json:"present"`
	Triggers []string `json:"triggers"`
	Keys     int      `json:"keys"`
}

// drainScript empties the page-side trigger and key queues.
func drainScript() string {
	return fmt.Sprintf(`(() => {
  const st = %[1]s;
  const present = !!document.getElementById(%[2]s);
  if (!st) return {present, triggers: [], keys: 0};
  const out = {present, triggers: st.triggers.splice(0), keys: st.keys};
  st.keys = 0;
  return out;
})()`, stateVar, jsString(surfaceID))
}
