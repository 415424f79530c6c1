package intercept

import "testing"

func TestRecognize(t *testing.T) {
	rec := DefaultRecognizer()

	tests := []struct {
		name     string
		d        Descriptor
		wantRule MatchRule
		wantOK   bool
	}{
		{
			name:     "direct id",
			d:        Descriptor{ID: "record-button", Tag: "button"},
			wantRule: MatchDirectID,
			wantOK:   true,
		},
		{
			name: "ancestor id",
			d: Descriptor{Tag: "span", Ancestors: []Descriptor{
				{Tag: "div"},
				{ID: "record-button", Tag: "button"},
			}},
			wantRule: MatchAncestorID,
			wantOK:   true,
		},
		{
			name:     "class match",
			d:        Descriptor{Tag: "button", Classes: []string{"btn", "btn-record"}},
			wantRule: MatchClass,
			wantOK:   true,
		},
		{
			name: "icon inside control",
			d: Descriptor{Tag: "svg", Ancestors: []Descriptor{
				{Tag: "button", Classes: []string{"record-button"}},
			}},
			wantRule: MatchIconAncestor,
			wantOK:   true,
		},
		{
			name: "icon path deep inside control",
			d: Descriptor{Tag: "path", Ancestors: []Descriptor{
				{Tag: "svg"},
				{Tag: "button", Classes: []string{"record-button", "recording"}},
			}},
			wantRule: MatchIconAncestor,
			wantOK:   true,
		},
		{
			name:   "unrelated button",
			d:      Descriptor{ID: "submit", Tag: "button", Classes: []string{"btn-primary"}},
			wantOK: false,
		},
		{
			name: "icon outside control",
			d: Descriptor{Tag: "svg", Ancestors: []Descriptor{
				{Tag: "div", Classes: []string{"toolbar"}},
			}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rule, ok := rec.Recognize(tt.d)
			if ok != tt.wantOK {
				t.Fatalf("Recognize() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && rule != tt.wantRule {
				t.Errorf("Recognize() rule = %s, want %s", rule, tt.wantRule)
			}
		})
	}
}

func TestClassifyIntent(t *testing.T) {
	rec := DefaultRecognizer()

	tests := []struct {
		name string
		d    Descriptor
		want Intent
	}{
		{"label stop", Descriptor{Label: "Stop recording"}, IntentStop},
		{"label finish", Descriptor{Label: "Finish"}, IntentStop},
		{"title end", Descriptor{Title: "End interview"}, IntentStop},
		{"label record", Descriptor{Label: "Record answer"}, IntentStart},
		{"label resume", Descriptor{Label: "Resume"}, IntentStart},
		{"stop beats recording class", Descriptor{Label: "Stop", Classes: []string{"recording"}}, IntentStop},
		{"recording class fallback", Descriptor{Classes: []string{"record-button", "recording"}}, IntentStop},
		{"active class fallback", Descriptor{Classes: []string{"btn-record", "is-active"}}, IntentStop},
		{"no signal", Descriptor{Classes: []string{"btn-record"}}, IntentUnknown},
		{"empty", Descriptor{}, IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rec.ClassifyIntent(tt.d); got != tt.want {
				t.Errorf("ClassifyIntent() = %s, want %s", got, tt.want)
			}
		})
	}
}
