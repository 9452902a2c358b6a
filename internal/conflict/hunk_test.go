package conflict

import "testing"

func TestParse_SingleHunkNoBase(t *testing.T) {
	body := "line1\n<<<<<<< HEAD\nconst X = 2;\n=======\nconst X = 3;\n>>>>>>> task\nline2\n"

	hunks := Parse(body)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	h := hunks[0]
	if h.HasBase {
		t.Errorf("expected no base section")
	}
	if h.OursLines != "const X = 2;\n" {
		t.Errorf("unexpected ours: %q", h.OursLines)
	}
	if h.TheirsLines != "const X = 3;\n" {
		t.Errorf("unexpected theirs: %q", h.TheirsLines)
	}
}

func TestParse_HunkWithBase(t *testing.T) {
	body := "<<<<<<< HEAD\nours\n||||||| base\nbase\n=======\ntheirs\n>>>>>>> task\n"

	hunks := Parse(body)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	if !hunks[0].HasBase {
		t.Fatalf("expected base section present")
	}
	if hunks[0].BaseLines != "base\n" {
		t.Errorf("unexpected base: %q", hunks[0].BaseLines)
	}
}

func TestParse_NoHunks(t *testing.T) {
	body := "plain\ntext\nno conflicts\n"
	if hunks := Parse(body); len(hunks) != 0 {
		t.Errorf("expected no hunks, got %d", len(hunks))
	}
}

func TestParse_MultipleHunksNonOverlapping(t *testing.T) {
	body := "a\n<<<<<<< HEAD\n1\n=======\n2\n>>>>>>> task\nb\n<<<<<<< HEAD\n3\n=======\n4\n>>>>>>> task\nc\n"

	hunks := Parse(body)
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(hunks))
	}
	if hunks[0].StartLine >= hunks[1].StartLine {
		t.Errorf("expected hunks left to right, got %+v", hunks)
	}
}

func TestReassemble_RoundTripsWithOursChosenEverywhere(t *testing.T) {
	body := "pre\n<<<<<<< HEAD\nours text\n=======\ntheirs text\n>>>>>>> task\npost\n"

	hunks := Parse(body)
	resolutions := make([]string, len(hunks))
	for i, h := range hunks {
		resolutions[i] = h.OursLines
	}

	got := Reassemble(body, hunks, resolutions)
	want := "pre\nours text\npost\n"
	if got != want {
		t.Errorf("Reassemble() = %q, want %q", got, want)
	}
}

func TestReassemble_NoHunksReturnsBodyUnchanged(t *testing.T) {
	body := "no conflicts here\n"
	if got := Reassemble(body, nil, nil); got != body {
		t.Errorf("expected unchanged body, got %q", got)
	}
}

func TestReassemble_PreservesSurroundingLinesByteForByte(t *testing.T) {
	body := "keep me\r\nexactly\n<<<<<<< HEAD\nx\n=======\ny\n>>>>>>> task\ntrailing\n"

	hunks := Parse(body)
	got := Reassemble(body, hunks, []string{"resolved\n"})
	want := "keep me\r\nexactly\nresolved\ntrailing\n"
	if got != want {
		t.Errorf("Reassemble() = %q, want %q", got, want)
	}
}
