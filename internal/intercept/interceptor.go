package intercept

import "log/slog"

// Router receives redirected control intents.
type Router interface {
	StopIntent()
	StartIntent()
}

// Verdict tells the host page what to do with the click it reported.
// Suppress means prevent the default action and stop propagation in every
// phase; otherwise the native control's own handler must run unmodified.
type Verdict struct {
	Suppress bool
	Intent   Intent
	Rule     MatchRule
}

// Interceptor applies the active-conversation policy to classified clicks.
type Interceptor struct {
	rec    Recognizer
	active func() bool
	router Router
}

// New creates an interceptor. active reports whether a conversation is in
// flight; router receives redirected intents.
func New(rec Recognizer, active func() bool, router Router) *Interceptor {
	return &Interceptor{rec: rec, active: active, router: router}
}

// HandleClick classifies one click. Clicks that are not on the record
// control, or that arrive while no conversation is active, pass through:
// the first turn must use the native start path so the capture component
// initializes itself. While a conversation is active the click is always
// suppressed; a real stop must never reach the capture component.
func (i *Interceptor) HandleClick(d Descriptor) Verdict {
	control, rule, ok := i.rec.Recognize(d)
	if !ok {
		return Verdict{}
	}
	if !i.active() {
		return Verdict{Intent: IntentUnknown, Rule: rule}
	}

	intent := i.rec.ClassifyIntent(control)
	switch intent {
	case IntentStop:
		i.router.StopIntent()
	case IntentStart:
		i.router.StartIntent()
	default:
		slog.Debug("record control click with unreadable mode ignored", "rule", rule)
	}
	return Verdict{Suppress: true, Intent: intent, Rule: rule}
}
