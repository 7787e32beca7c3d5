package main

import (
	"regexp"
	"strings"

	"github.com/spf13/pflag"
)

// argsCommentPattern matches the first line of a program file that
// supplies default flag values, e.g. "// ARGS: --post x --pre 3".
// Grounded on `original_source/kipro2/utils/cmd.py`'s
// `_read_args_from_code`, translated from click's parser to pflag.
var argsCommentPattern = regexp.MustCompile(`^(?://|#)\s*ARGS:(.*--(?:pre|post).*)$`)

// parseArgsComment extracts the flag string from a program's first line,
// if it matches the "// ARGS:"/"# ARGS:" convention and mentions --pre or
// --post (the same guard the teacher's click extension used, to avoid
// misreading an unrelated leading comment as a flag list).
func parseArgsComment(programCode string) (string, bool) {
	lines := strings.SplitN(programCode, "\n", 2)
	if len(lines) == 0 {
		return "", false
	}
	m := argsCommentPattern.FindStringSubmatch(strings.TrimRight(lines[0], "\r"))
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// applyDefaultsFromComment parses the comment-supplied argument string
// and applies each flag's value as the new default on fs, but only for
// flags the user did not already set explicitly on the real command
// line (explicitSet) — mirroring `_read_args_from_code`'s
// "sysargs"-vs-"args_values" precedence: explicit command-line flags
// always win over the program file's embedded defaults.
func applyDefaultsFromComment(fs *pflag.FlagSet, argsStr string, explicitSet map[string]bool) error {
	fields, err := splitShellWords(argsStr)
	if err != nil {
		return err
	}
	overrides, err := parseFlagTokens(fields)
	if err != nil {
		return err
	}
	for name, value := range overrides {
		if explicitSet[name] {
			continue
		}
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		_ = f.Value.Set(value)
	}
	return nil
}

// parseFlagTokens does a minimal "--flag value" / "--flag=value" /
// "--bool-flag" scan over an already shell-split token list. It does not
// need to know each flag's type: pflag.Value.Set parses the string form
// for any concrete flag type.
func parseFlagTokens(tokens []string) (map[string]string, error) {
	out := map[string]string{}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") {
			continue
		}
		name := strings.TrimPrefix(tok, "--")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			out[name[:eq]] = name[eq+1:]
			continue
		}
		if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "--") {
			out[name] = tokens[i+1]
			i++
			continue
		}
		out[name] = "true"
	}
	return out, nil
}

// stripFirstLine removes a program's leading line (used to drop a
// consumed "// ARGS:"/"# ARGS:" line before handing the remainder to the
// pgcl parser).
func stripFirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// splitShellWords splits a string on whitespace honoring single and
// double quotes, the Go-side equivalent of Python's shlex.split used by
// the original comment-args reader.
func splitShellWords(s string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inQuote rune
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			inQuote = r
		case r == ' ' || r == '\t':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words, nil
}
