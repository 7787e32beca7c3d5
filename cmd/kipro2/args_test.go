package main

import (
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func TestParseArgsCommentMatchesConvention(t *testing.T) {
	src := "// ARGS: --pre 3 --post c\nnat c;\n"
	got, ok := parseArgsComment(src)
	if !ok {
		t.Fatalf("parseArgsComment() should recognize the // ARGS: convention")
	}
	if got != "--pre 3 --post c" {
		t.Fatalf("parseArgsComment() = %q, want %q", got, "--pre 3 --post c")
	}
}

func TestParseArgsCommentRequiresPreOrPost(t *testing.T) {
	src := "// ARGS: --ceiling 10\nnat c;\n"
	if _, ok := parseArgsComment(src); ok {
		t.Fatalf("parseArgsComment() should not match a comment lacking --pre/--post")
	}
}

func TestParseArgsCommentIgnoresUnrelatedComment(t *testing.T) {
	src := "// just a normal comment\nnat c;\n"
	if _, ok := parseArgsComment(src); ok {
		t.Fatalf("parseArgsComment() should not match an unrelated leading comment")
	}
}

func TestSplitShellWordsHonorsQuotes(t *testing.T) {
	got, err := splitShellWords(`--post "c + 1" --pre 3`)
	if err != nil {
		t.Fatalf("splitShellWords() error: %v", err)
	}
	want := []string{"--post", "c + 1", "--pre", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitShellWords() = %v, want %v", got, want)
	}
}

func TestStripFirstLineDropsConsumedComment(t *testing.T) {
	got := stripFirstLine("// ARGS: --pre 3\nnat c;\n")
	if got != "nat c;\n" {
		t.Fatalf("stripFirstLine() = %q, want %q", got, "nat c;\n")
	}
}

// TestApplyDefaultsFromCommentRespectsExplicitFlags is the
// "_read_args_from_code" precedence rule: a flag the user set explicitly
// on the real command line must win over the program's embedded default.
func TestApplyDefaultsFromCommentRespectsExplicitFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("post", "default-post", "")
	fs.String("pre", "default-pre", "")

	explicit := map[string]bool{"pre": true}
	if err := applyDefaultsFromComment(fs, "--post c --pre 3", explicit); err != nil {
		t.Fatalf("applyDefaultsFromComment() error: %v", err)
	}
	if got, _ := fs.GetString("post"); got != "c" {
		t.Fatalf("post = %q, want %q (comment default should apply)", got, "c")
	}
	if got, _ := fs.GetString("pre"); got != "default-pre" {
		t.Fatalf("pre = %q, want %q (explicit flag should win over comment default)", got, "default-pre")
	}
}
