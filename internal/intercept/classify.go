// Package intercept classifies clicks on the host page's native record
// control and routes them to the orchestrator while a conversation is
// active. Classification is a pure function over an opaque control
// descriptor so it is testable without a real DOM.
package intercept

import "strings"

// Descriptor is the host-agnostic shape of a clicked element: its id, its
// accessible label/title, its class list, and its ancestor chain ordered
// nearest first.
type Descriptor struct {
	ID        string
	Tag       string
	Label     string
	Title     string
	Classes   []string
	Ancestors []Descriptor
}

// MatchRule records which resolution step identified the control.
type MatchRule string

const (
	MatchDirectID     MatchRule = "direct-id"
	MatchAncestorID   MatchRule = "ancestor-id"
	MatchClass        MatchRule = "class"
	MatchIconAncestor MatchRule = "icon-ancestor"
)

// Intent is the interpretation of a click on the record control.
type Intent string

const (
	IntentStart   Intent = "start"
	IntentStop    Intent = "stop"
	IntentUnknown Intent = "unknown"
)

// Recognizer identifies the native record/stop control among clicked
// elements.
type Recognizer struct {
	ControlID      string
	ControlClasses []string
	IconTags       []string
}

// DefaultRecognizer matches the recorder widget's stock markup.
func DefaultRecognizer() Recognizer {
	return Recognizer{
		ControlID:      "record-button",
		ControlClasses: []string{"record-button", "btn-record"},
		IconTags:       []string{"svg", "path", "use", "circle", "img", "i"},
	}
}

// Recognize resolves whether the clicked element is, or is nested inside,
// the record control. Resolution order: direct id, nearest matching
// ancestor id, class match, then the icon special case: a graphic child
// whose nearest interactive ancestor matches by class.
func (r Recognizer) Recognize(d Descriptor) (Descriptor, MatchRule, bool) {
	if d.ID == r.ControlID {
		return d, MatchDirectID, true
	}
	for _, anc := range d.Ancestors {
		if anc.ID == r.ControlID {
			return anc, MatchAncestorID, true
		}
	}
	if r.hasControlClass(d) {
		return d, MatchClass, true
	}
	if r.isIconTag(d.Tag) {
		for _, anc := range d.Ancestors {
			if r.hasControlClass(anc) {
				return anc, MatchIconAncestor, true
			}
		}
	}
	return Descriptor{}, "", false
}

// ClassifyIntent reads the control's current mode. The accessible
// label/title is the primary signal; CSS class state is secondary and may
// lag a frame behind.
func (r Recognizer) ClassifyIntent(control Descriptor) Intent {
	for _, text := range []string{control.Label, control.Title} {
		switch classifyText(text) {
		case IntentStop:
			return IntentStop
		case IntentStart:
			return IntentStart
		}
	}
	for _, class := range control.Classes {
		lc := strings.ToLower(class)
		if strings.Contains(lc, "recording") || strings.Contains(lc, "active") {
			return IntentStop
		}
	}
	return IntentUnknown
}

func classifyText(text string) Intent {
	lc := strings.ToLower(strings.TrimSpace(text))
	if lc == "" {
		return IntentUnknown
	}
	for _, kw := range []string{"stop", "finish", "end"} {
		if strings.Contains(lc, kw) {
			return IntentStop
		}
	}
	for _, kw := range []string{"record", "start", "resume"} {
		if strings.Contains(lc, kw) {
			return IntentStart
		}
	}
	return IntentUnknown
}

func (r Recognizer) hasControlClass(d Descriptor) bool {
	for _, class := range d.Classes {
		for _, want := range r.ControlClasses {
			if class == want {
				return true
			}
		}
	}
	return false
}

func (r Recognizer) isIconTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range r.IconTags {
		if tag == t {
			return true
		}
	}
	return false
}
