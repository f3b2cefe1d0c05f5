package dom

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Well-known identifiers of the injected UI chrome and markers. These
// are the engine's style contract: collaborators key their stylesheets
// and click handlers off these names.
const (
	// ChromeRootID identifies the injected UI container. Everything
	// inside it is excluded from matching (self-exclusion).
	ChromeRootID = "clarity-highlight-root"

	// ClearButtonID identifies the "clear highlights" affordance. The
	// engine only toggles its hidden attribute; the chrome owns it.
	ClearButtonID = "clarity-clear-highlights"

	// StyleElementID identifies the injected stylesheet.
	StyleElementID = "clarity-highlight-style"

	// ScrollScriptID identifies the injected scroll-into-view script.
	ScrollScriptID = "clarity-scroll-script"

	// MarkerClass is carried by every marker element.
	MarkerClass = "clarity-mark"

	// MarkerClassPrefix prefixes the verdict-derived style class,
	// e.g. "clarity-mark--suspicious".
	MarkerClassPrefix = "clarity-mark--"

	// PulseClass is the transient attention effect on the first marker.
	PulseClass = "clarity-pulse"

	// ToastClass is carried by transient notification elements.
	ToastClass = "clarity-toast"

	// VerdictAttr tags a marker with its verdict label.
	VerdictAttr = "data-clarity-verdict"

	// MarkerIDAttr tags a marker with its session sequence number.
	MarkerIDAttr = "data-clarity-id"
)

// EnsureChrome injects the UI chrome into the document if not already
// present: a container div at the end of body holding the stylesheet
// rendered from palette and the hidden clear button. Idempotent, keyed
// by ChromeRootID. The palette maps verdict slugs to background colors;
// the "default" entry styles the base marker class.
func (d *Document) EnsureChrome(palette map[string]string) error {
	if d.ElementByID(ChromeRootID) != nil {
		return nil
	}
	body := d.Body()
	if body == nil {
		return fmt.Errorf("document has no body element")
	}

	style := NewElement("style",
		html.Attribute{Key: "id", Val: StyleElementID},
	)
	style.AppendChild(NewText(stylesheet(palette)))

	button := NewElement("button",
		html.Attribute{Key: "id", Val: ClearButtonID},
		html.Attribute{Key: "type", Val: "button"},
		html.Attribute{Key: "hidden", Val: ""},
	)
	button.AppendChild(NewText("Clear highlights"))

	root := NewElement("div",
		html.Attribute{Key: "id", Val: ChromeRootID},
	)
	root.AppendChild(style)
	root.AppendChild(button)
	body.AppendChild(root)
	return nil
}

// ChromeRoot returns the injected chrome container, or nil if the
// document carries no chrome.
func (d *Document) ChromeRoot() *html.Node {
	return d.ElementByID(ChromeRootID)
}

// SetClearButtonHidden toggles the clear-highlights affordance. Returns
// false if the affordance is absent; callers degrade silently in that
// case, highlighting itself does not depend on it.
func (d *Document) SetClearButtonHidden(hidden bool) bool {
	button := d.ElementByID(ClearButtonID)
	if button == nil {
		return false
	}
	if hidden {
		SetAttr(button, "hidden", "")
	} else {
		RemoveAttr(button, "hidden")
	}
	return true
}

// ShowToast inserts a transient notification element into the chrome
// root and returns it, or nil if the chrome is absent. The element's
// removal is the caller's concern (the engine schedules it); the
// injected stylesheet additionally fades it out client-side after the
// given duration so serialized output self-dismisses in a browser.
func (d *Document) ShowToast(message string, visibleFor time.Duration) *html.Node {
	root := d.ChromeRoot()
	if root == nil {
		return nil
	}
	toast := NewElement("div",
		html.Attribute{Key: "class", Val: ToastClass},
		html.Attribute{Key: "role", Val: "status"},
	)
	toast.AppendChild(NewText(message))
	SetAttr(toast, "style", fmt.Sprintf("animation: clarity-toast-fade %dms forwards;", visibleFor.Milliseconds()))
	root.AppendChild(toast)
	return toast
}

// SetScrollTarget injects a script into the chrome root that smoothly
// scrolls the marker with the given sequence number to the center of
// the viewport after a short delay, letting the freshly inserted marker
// be laid out and painted first. Replaces any previous scroll script.
func (d *Document) SetScrollTarget(markerID int, delay time.Duration) {
	root := d.ChromeRoot()
	if root == nil {
		return
	}
	d.ClearScrollTarget()

	script := NewElement("script",
		html.Attribute{Key: "id", Val: ScrollScriptID},
	)
	js := fmt.Sprintf(
		`setTimeout(function(){var m=document.querySelector('[%s="%d"]');if(m){m.scrollIntoView({behavior:"smooth",block:"center",inline:"center"});}},%d);`,
		MarkerIDAttr, markerID, delay.Milliseconds(),
	)
	script.AppendChild(NewText(js))
	root.AppendChild(script)
}

// ClearScrollTarget removes the injected scroll script, if any. Stale
// scripts reference markers that no longer exist; leaving them in place
// would be harmless but noisy.
func (d *Document) ClearScrollTarget() {
	if script := d.ElementByID(ScrollScriptID); script != nil {
		Remove(script)
	}
}

// stylesheet renders the chrome CSS from the palette. Palette entries
// are emitted in sorted slug order so output is deterministic.
func stylesheet(palette map[string]string) string {
	var sb strings.Builder

	base := palette["default"]
	if base == "" {
		base = "#fff3a8"
	}
	// The base marker rule doubles as the fallback style for unknown
	// verdicts: their slug class has no rule, so only this applies.
	fmt.Fprintf(&sb, "\n.%s { background: %s; padding: 0 1px; border-radius: 2px; }\n", MarkerClass, base)

	slugs := make([]string, 0, len(palette))
	for slug := range palette {
		if slug != "default" {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		fmt.Fprintf(&sb, ".%s%s { background: %s; }\n", MarkerClassPrefix, slug, palette[slug])
	}

	fmt.Fprintf(&sb, ".%s { animation: clarity-pulse 1.5s ease-out 1; }\n", PulseClass)
	sb.WriteString("@keyframes clarity-pulse { 0% { box-shadow: 0 0 0 6px rgba(255,160,0,0.8); } 100% { box-shadow: 0 0 0 0 rgba(255,160,0,0); } }\n")
	fmt.Fprintf(&sb, ".%s { position: fixed; bottom: 16px; right: 16px; z-index: 2147483647; background: #333; color: #fff; padding: 8px 14px; border-radius: 4px; font: 13px/1.4 sans-serif; opacity: 0.95; }\n", ToastClass)
	sb.WriteString("@keyframes clarity-toast-fade { 0%, 90% { opacity: 0.95; } 100% { opacity: 0; visibility: hidden; } }\n")

	return sb.String()
}
