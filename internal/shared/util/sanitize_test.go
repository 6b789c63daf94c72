package util

import (
	"errors"
	"testing"
)

func TestCleanKey(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "resume.pdf", want: "resume.pdf"},
		{in: "batch/./jane.pdf", want: "batch/jane.pdf"},
		{in: `batch\john.pdf`, want: "batch/john.pdf"},
		{in: "../etc/passwd", wantErr: true},
		{in: "a/../../b", wantErr: true},
		{in: "/abs/path.pdf", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tc := range cases {
		got, err := CleanKey(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("CleanKey(%q): expected ErrInvalidKey, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("CleanKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestReplaceExt(t *testing.T) {
	if got := ReplaceExt("batch/Jane.Doe.PDF", ".json"); got != "batch/Jane.Doe.json" {
		t.Fatalf("unexpected %q", got)
	}
	if got := ReplaceExt("noext", ".json"); got != "noext.json" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" resumes/all.zip ")
	if err != nil || got != "resumes_all.zip" {
		t.Fatalf("unexpected %q, %v", got, err)
	}
	if _, err := SanitizeFileName("../x.zip"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}
