package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_LevelParsing(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, c := range cases {
		if got := New(c.in, "test").GetLevel(); got != c.want {
			t.Errorf("New(%q): expected level %s, got %s", c.in, c.want, got)
		}
	}
}
