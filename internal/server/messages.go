package server

// Message is the envelope every inbound frame starts from.
type Message struct {
	Type string `json:"type"`
}

// ClickMessage carries a clicked-element descriptor from the host page.
type ClickMessage struct {
	Type       string         `json:"type"`
	Descriptor DescriptorWire `json:"descriptor"`
	TraceID    string         `json:"trace_id,omitempty"`
}

// DescriptorWire is the JSON shape of a clicked element. Ancestors are
// ordered nearest first, matching how the page walks the tree.
type DescriptorWire struct {
	ID        string           `json:"id,omitempty"`
	Tag       string           `json:"tag,omitempty"`
	Label     string           `json:"label,omitempty"`
	Title     string           `json:"title,omitempty"`
	Classes   []string         `json:"classes,omitempty"`
	Ancestors []DescriptorWire `json:"ancestors,omitempty"`
}

// VerdictMessage is the reply to a click: whether the page must suppress
// the native handler, and what the click meant.
type VerdictMessage struct {
	Type     string `json:"type"`
	Suppress bool   `json:"suppress"`
	Intent   string `json:"intent,omitempty"`
	Rule     string `json:"rule,omitempty"`
}

// QuestionMessage tells the page to display a question.
type QuestionMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SignalMessage is a bare display signal: processing, hide_processing,
// complete, or reset_control.
type SignalMessage struct {
	Type string `json:"type"`
}

// StateMessage broadcasts a state transition with its derived flags.
type StateMessage struct {
	Type                 string `json:"type"`
	State                string `json:"state"`
	IsRecording          bool   `json:"is_recording"`
	IsConversationActive bool   `json:"is_conversation_active"`
	IsProcessing         bool   `json:"is_processing"`
	HasError             bool   `json:"has_error"`
}

// RateLimitedMessage tells a chatty client to back off.
type RateLimitedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
