package logger

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "empty", in: "", max: 10, want: ""},
		{name: "plain", in: "react hooks", max: 0, want: "react hooks"},
		{name: "strips newlines", in: "line1\nINFO fake entry\r", max: 0, want: "line1INFO fake entry"},
		{name: "strips escapes", in: "a\x1b[31mb", max: 0, want: "a[31mb"},
		{name: "truncates", in: "abcdefgh", max: 4, want: "abcd..."},
		{name: "invalid utf8", in: "ok\xffok", max: 0, want: "okok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.in, tt.max); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestSanitizeString_DoesNotSplitRunes(t *testing.T) {
	t.Parallel()

	got := SanitizeString(strings.Repeat("é", 10), 5)
	if !utf8.ValidString(got) {
		t.Errorf("result is not valid UTF-8: %q", got)
	}
	if got != "éé..." {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if SanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
	long := errors.New(strings.Repeat("x", MaxErrorMessageLength+50))
	if got := SanitizeError(long); len(got) != MaxErrorMessageLength+3 {
		t.Errorf("len = %d", len(got))
	}
}

func TestSanitizeTags(t *testing.T) {
	t.Parallel()

	var in []string
	for i := 0; i < MaxLoggedTags+5; i++ {
		in = append(in, fmt.Sprintf("tag\n%d", i))
	}
	got := SanitizeTags(in)
	if len(got) != MaxLoggedTags {
		t.Fatalf("len = %d, want %d", len(got), MaxLoggedTags)
	}
	if got[0] != "tag0" {
		t.Errorf("got[0] = %q", got[0])
	}
	if out := SanitizeTags(nil); out == nil || len(out) != 0 {
		t.Errorf("SanitizeTags(nil) = %v", out)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"json", "console", ""} {
		log, err := New(format, true)
		if err != nil {
			t.Fatalf("New(%q) error = %v", format, err)
		}
		if !log.Core().Enabled(-1) {
			t.Errorf("New(%q, true) should enable debug", format)
		}
	}
	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) = %v", err)
	}
}
