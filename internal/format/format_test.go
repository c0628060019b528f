package format_test

import (
	"strings"
	"testing"

	"fermi/internal/format"
)

func TestASCII_ConfigTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Name", "Version", "Template")
	tb.Row("realFP", "1.0.0", format.BoolMark(false))
	tb.Row("synthFP", "1.0.0", format.BoolMark(true))
	out := tb.String()

	for _, want := range []string{"Name", "realFP", "synthFP", "✓", "✗"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "───") {
		t.Errorf("expected box-drawing characters in ASCII output:\n%s", out)
	}
}

func TestMarkdown_WithFooter(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("URL", "Size")
	tb.Row("https://example.org/train.json", format.FmtBytes(2048))
	tb.Footer("TOTAL", format.FmtBytes(2048))
	out := tb.String()

	if !strings.Contains(out, "| URL") {
		t.Errorf("expected markdown header with '| URL':\n%s", out)
	}
	if !strings.Contains(out, "TOTAL") || !strings.Contains(out, "2.0 KiB") {
		t.Errorf("expected footer in output:\n%s", out)
	}
}

func TestColumns_MaxWidth(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Name", "Description")
	tb.Row("realFP", strings.Repeat("word ", 40))
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignLeft, MaxWidth: 30})
	out := tb.String()

	for _, line := range strings.Split(out, "\n") {
		if n := len([]rune(line)); n > 60 {
			t.Errorf("line wider than expected (%d runes): %q", n, line)
		}
	}
}

func TestFmtBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{5 * 1 << 20, "5.0 MiB"},
	}
	for _, tc := range tests {
		if got := format.FmtBytes(tc.in); got != tc.want {
			t.Errorf("FmtBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"abcdef", 3, "abc"},
		{"ééééé", 4, "é..."},
	}
	for _, tc := range tests {
		if got := format.Truncate(tc.in, tc.maxLen); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

func TestOneLine(t *testing.T) {
	if got := format.OneLine("a\n  b\tc\n"); got != "a b c" {
		t.Errorf("OneLine = %q", got)
	}
}

func TestColumns_RightAlignTotal(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Split", "Examples")
	tb.Row("train", 7)
	tb.Row("test", 1234)
	tb.Footer("TOTAL", 1241)
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	out := tb.String()

	var trainLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "train") {
			trainLine = line
		}
	}
	if !strings.Contains(trainLine, "    7 ") {
		t.Errorf("count should be right-aligned under a 4-digit value: %q", trainLine)
	}
	if !strings.Contains(out, "TOTAL") || !strings.Contains(out, "1241") {
		t.Errorf("expected footer in output:\n%s", out)
	}
}
