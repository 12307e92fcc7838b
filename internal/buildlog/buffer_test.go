package buildlog

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		stderr bool
		hint   Kind
		want   Kind
	}{
		{"stdout info", "compiling core", false, KindInfo, KindInfo},
		{"stdout warn hint", "deprecated syntax", false, KindWarn, KindWarn},
		{"stderr always error", "anything at all", true, KindInfo, KindError},
		{"stdout error marker", "build failed: 2 errors", false, KindInfo, KindError},
		{"stdout diagnostic code", "[E4021] type mismatch", false, KindInfo, KindError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer()
			buf.Classify(tt.line, tt.stderr, tt.hint)

			records := buf.Flush()
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}
			if records[0].Kind != tt.want {
				t.Fatalf("Classify(%q) kind = %s, want %s", tt.line, records[0].Kind, tt.want)
			}
		})
	}
}

func TestClassify_SkipsEmptyLines(t *testing.T) {
	buf := NewBuffer()
	buf.Classify("", false, KindInfo)
	buf.Classify("   ", false, KindInfo)
	buf.Classify("\t", true, KindInfo)

	if buf.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d records", buf.Len())
	}
}

func TestFlush_ReadAndClear(t *testing.T) {
	buf := NewBuffer()
	buf.Classify("one", false, KindInfo)
	buf.Classify("two", true, KindInfo)

	first := buf.Flush()
	if len(first) != 2 {
		t.Fatalf("expected 2 records, got %d", len(first))
	}
	if first[0].Text != "one" || first[1].Text != "two" {
		t.Fatalf("records out of order: %v", first)
	}

	if second := buf.Flush(); len(second) != 0 {
		t.Fatalf("second flush returned %d records, want 0", len(second))
	}
	if len(buf.Errors()) != 0 {
		t.Fatal("flush must clear the error partition too")
	}
}

func TestClearErrors_KeepsInfo(t *testing.T) {
	buf := NewBuffer()
	buf.Classify("compiling", false, KindInfo)
	buf.Classify("boom", true, KindInfo)
	buf.Classify("still compiling", false, KindInfo)

	if len(buf.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(buf.Errors()))
	}

	buf.ClearErrors()

	if len(buf.Errors()) != 0 {
		t.Fatal("error partition not cleared")
	}

	records := buf.Flush()
	if len(records) != 2 {
		t.Fatalf("expected 2 info records after ClearErrors, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Kind == KindError {
			t.Fatalf("error record survived ClearErrors: %v", rec)
		}
	}
}

func TestPrinter_WritesAllRecords(t *testing.T) {
	var sb strings.Builder
	p := NewPrinter(&sb)

	p.Print([]Record{
		{Text: "hello", Kind: KindInfo},
		{Text: "careful", Kind: KindWarn},
		{Text: "broken", Kind: KindError},
	})

	out := sb.String()
	for _, want := range []string{"hello", "careful", "broken"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 3 {
		t.Fatalf("expected 3 lines, got %d", got)
	}
}
