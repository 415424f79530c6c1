package decision

import "testing"

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantContinue bool
		wantQuestion string
	}{
		{
			name: "done true",
			raw:  `{"done": true, "reasoning": "answer is complete"}`,
		},
		{
			name: "complete true",
			raw:  `{"complete": true}`,
		},
		{
			name:         "next question",
			raw:          `{"next_question": "Why did that matter?", "reasoning": "gap"}`,
			wantContinue: true,
			wantQuestion: "Why did that matter?",
		},
		{
			name:         "question alias",
			raw:          `{"question": "Can you elaborate?"}`,
			wantContinue: true,
			wantQuestion: "Can you elaborate?",
		},
		{
			name:         "json wrapped in prose",
			raw:          "Sure, here is my decision:\n```json\n{\"next_question\": \"What else?\"}\n```",
			wantContinue: true,
			wantQuestion: "What else?",
		},
		{
			name:         "done false with question",
			raw:          `{"done": false, "next_question": "And then?"}`,
			wantContinue: true,
			wantQuestion: "And then?",
		},
		{
			name: "empty",
			raw:  "",
		},
		{
			name: "whitespace only",
			raw:  "   \n  ",
		},
		{
			name: "completion phrase",
			raw:  "Done.",
		},
		{
			name: "no more questions phrase",
			raw:  "No more questions",
		},
		{
			name:         "plain text treated as question",
			raw:          "What would you change about it?",
			wantContinue: true,
			wantQuestion: "What would you change about it?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseDecision(tt.raw)
			if d.Continue != tt.wantContinue {
				t.Errorf("Continue = %v, want %v", d.Continue, tt.wantContinue)
			}
			if d.NextQuestion != tt.wantQuestion {
				t.Errorf("NextQuestion = %q, want %q", d.NextQuestion, tt.wantQuestion)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"prefix {\"a\": 1} suffix", `{"a": 1}`},
		{"no json here", "no json here"},
	}
	for _, tt := range tests {
		if got := extractJSONObject(tt.in); got != tt.want {
			t.Errorf("extractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
