package repository

import "testing"

func TestEscapeLikePattern(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text untouched", input: "away day", want: "away day"},
		{name: "percent escaped", input: "100%", want: `100\%`},
		{name: "underscore escaped", input: "cup_final", want: `cup\_final`},
		{name: "backslash escaped first", input: `50\%`, want: `50\\\%`},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeLikePattern(tt.input); got != tt.want {
				t.Errorf("escapeLikePattern(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
