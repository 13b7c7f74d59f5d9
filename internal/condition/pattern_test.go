package condition

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestParse(t *testing.T) {
	cases := []struct {
		raw      string
		negate   bool
		kind     Kind
		operand  string
		fieldRef bool
	}{
		{"disk full", false, KindContains, "disk full", false},
		{"^disk", true, KindContains, "disk", false},
		{"~^INC\\d+$", false, KindRegex, "^INC\\d+$", false},
		{"^~foo|bar", true, KindRegex, "foo|bar", false},
		{"=", false, KindEquals, "", false},
		{"=exact", false, KindEquals, "exact", false},
		{"*caller_id", false, KindContains, "caller_id", true},
		{"^=*opened_by", true, KindEquals, "opened_by", true},
		{"", false, KindContains, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			p, err := Parse(tc.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tc.raw, err)
			}
			if p.Negate != tc.negate || p.Kind != tc.kind || p.Operand != tc.operand || p.FieldRef != tc.fieldRef {
				t.Errorf("Parse(%q) = {neg:%v kind:%v op:%q ref:%v}", tc.raw, p.Negate, p.Kind, p.Operand, p.FieldRef)
			}
		})
	}
}

func TestParse_Window(t *testing.T) {
	cases := []struct {
		raw    string
		base   string
		before bool
		dur    time.Duration
	}{
		{"@now - 2h", "now", true, 2 * time.Hour},
		{"^@now - 12h30m", "now", true, 12*time.Hour + 30*time.Minute},
		{"@2024-01-01 12:00:00 + 1d", "2024-01-01 12:00:00", false, 24 * time.Hour},
		{"@*opened_at plus 90s", "*opened_at", false, 90 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			p, err := Parse(tc.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tc.raw, err)
			}
			if p.Kind != KindWindow || p.Window == nil {
				t.Fatalf("Parse(%q) kind = %v", tc.raw, p.Kind)
			}
			w := p.Window
			if w.Base != tc.base || w.Before != tc.before || w.Duration != tc.dur {
				t.Errorf("Parse(%q) window = %+v", tc.raw, *w)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		"~(unclosed",
		"@now - ",
		"@now - 2x",
		"@yesterday - 2h",
		"*",
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			if _, err := Parse(raw); err == nil {
				t.Errorf("expected parse error for %q, got nil", raw)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"8h", 8 * time.Hour, false},
		{"2d8h5m20s", 56*time.Hour + 5*time.Minute + 20*time.Second, false},
		{"2m4s", 2*time.Minute + 4*time.Second, false},
		{"30m", 30 * time.Minute, false},
		{"", 0, true},
		{"h", 0, true},
		{"5m2h", 0, true},
		{"1.5h", 0, true},
		{"106751d", 106751 * 24 * time.Hour, false},
		{"200000d", 0, true},
		{"106751d23h59m", 0, true},
		{"99999999999999999999s", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDuration(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestClip_KeepsRunesWhole(t *testing.T) {
	cases := []string{
		"short",
		strings.Repeat("a", 34) + "é tail",
		strings.Repeat("ä", 40),
		strings.Repeat("x", 33) + "日本語",
	}
	for _, in := range cases {
		got := clip(in)
		if !utf8.ValidString(got) {
			t.Errorf("clip(%q) = %q is not valid UTF-8", in, got)
		}
		if len(got) > 35 || !strings.HasPrefix(in, got) {
			t.Errorf("clip(%q) = %q", in, got)
		}
	}
}
