package console

import "testing"

func TestProgressTitle(t *testing.T) {
	tests := []struct {
		stage   string
		percent int
		want    string
	}{
		{"downloading", 42, "lwjgl3ify installer - downloading 42%"},
		{"extracting", 150, "lwjgl3ify installer - extracting 100%"},
		{"downloading", -1, "lwjgl3ify installer - downloading 0%"},
	}
	for _, tt := range tests {
		if got := ProgressTitle(tt.stage, tt.percent); got != tt.want {
			t.Errorf("ProgressTitle(%q, %d) = %q, want %q", tt.stage, tt.percent, got, tt.want)
		}
	}
}

func TestSanitizeTitle(t *testing.T) {
	if got := sanitizeTitle("a\x07b\x1b]c\n"); got != "ab]c" {
		t.Errorf("sanitizeTitle() = %q, want %q", got, "ab]c")
	}
}

func TestSetTitle_Quiet(t *testing.T) {
	Init(true)
	defer Init(false)
	attached = true
	defer func() { attached = false }()

	if err := SetTitle("x"); err != nil {
		t.Errorf("SetTitle() in quiet mode error = %v", err)
	}
}
