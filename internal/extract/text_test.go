package extract

import (
	"strings"
	"testing"
)

func TestVisibleText(t *testing.T) {
	html := `
	<html>
	<head><style>.x{color:red}</style><script>var a = 1;</script></head>
	<body>
		<p>Solar capacity reached <b>70 GW</b> in 2023.</p>
		<noscript>enable javascript</noscript>
	</body>
	</html>
	`

	text := VisibleText(html)
	if !strings.Contains(text, "Solar capacity reached 70 GW in 2023.") {
		t.Errorf("Expected body text, got %q", text)
	}
	for _, hidden := range []string{"color:red", "var a", "enable javascript"} {
		if strings.Contains(text, hidden) {
			t.Errorf("Expected %q to be stripped, got %q", hidden, text)
		}
	}
}

func TestVisibleText_PlainText(t *testing.T) {
	if got := VisibleText("  plain   summary\ntext "); got != "plain summary text" {
		t.Errorf("Unexpected text: %q", got)
	}
}

func TestClean(t *testing.T) {
	long := strings.Repeat("a", 310)

	tests := []struct {
		desc string
		text string
		max  int
		want string
	}{
		{"collapses whitespace", " a \n\t b  c ", 300, "a b c"},
		{"short text untouched", "short", 300, "short"},
		{"truncates with ellipsis", long, 300, strings.Repeat("a", 297) + "..."},
		{"exact length untouched", strings.Repeat("b", 300), 300, strings.Repeat("b", 300)},
		{"no limit", long, 0, long},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := Clean(tt.text, tt.max)
			if got != tt.want {
				t.Errorf("Clean() = %q (len %d), want len %d", got, len(got), len(tt.want))
			}
		})
	}
}

func TestAchievementYear(t *testing.T) {
	tests := []struct {
		desc     string
		text     string
		after    int
		notAfter int
		want     int
		ok       bool
	}{
		{
			desc:     "verb phrase wins",
			text:     "Projected for 2025, the target was achieved in 2018",
			after:    2000,
			notAfter: 2026,
			want:     2018,
			ok:       true,
		},
		{
			desc:     "falls back to first year after reference",
			text:     "A forecast from 2000 expected the milestone in 2025",
			after:    2000,
			notAfter: 2026,
			want:     2025,
			ok:       true,
		},
		{
			desc:     "future years ignored",
			text:     "Vision 2000 sets a goal for 2040",
			after:    2000,
			notAfter: 2026,
			ok:       false,
		},
		{
			desc:     "no years",
			text:     "No dates mentioned",
			after:    2000,
			notAfter: 2026,
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, ok := AchievementYear(tt.text, tt.after, tt.notAfter)
			if ok != tt.ok || got != tt.want {
				t.Errorf("AchievementYear() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestYears(t *testing.T) {
	got := Years("Between 1991 and 2024, not 12345 or 3000")
	if len(got) != 2 || got[0] != 1991 || got[1] != 2024 {
		t.Errorf("Unexpected years: %v", got)
	}
}
