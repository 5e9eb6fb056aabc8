package transform

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SubstitutionRule is a compiled pattern. It is safe for concurrent use.
type SubstitutionRule struct {
	pattern string
	re      *regexp.Regexp
}

// CompilePattern compiles pattern with Go's regexp (RE2) syntax.
func CompilePattern(pattern string) (*SubstitutionRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalidPattern(err)
	}
	return &SubstitutionRule{pattern: pattern, re: re}, nil
}

// Pattern returns the source pattern.
func (r *SubstitutionRule) Pattern() string {
	return r.pattern
}

// NumGroups returns the number of capturing groups.
func (r *SubstitutionRule) NumGroups() int {
	return r.re.NumSubexp()
}

// ReplaceAll replaces every non-overlapping match in s. tmpl must come from
// PrepareTemplate.
func (r *SubstitutionRule) ReplaceAll(s, tmpl string) string {
	return r.re.ReplaceAllString(s, tmpl)
}

// PrepareTemplate returns replacement in Go expansion syntax ($1, ${name},
// $$) after checking that every group it names exists in the pattern.
//
// Templates written with backslash references (\1, \g<name>) are translated
// first; in that style '$' is a literal dollar sign. Otherwise only the
// control escapes \a \f \n \r \t \v are translated.
func (r *SubstitutionRule) PrepareTemplate(replacement string) (string, error) {
	tmpl := replacement
	if usesBackslashRefs(replacement) {
		var err error
		if tmpl, err = translateBackslashTemplate(replacement); err != nil {
			return "", err
		}
	} else {
		tmpl = translateControlEscapes(replacement)
	}
	if err := r.checkGroupRefs(tmpl); err != nil {
		return "", err
	}
	return tmpl, nil
}

func usesBackslashRefs(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '\\' {
			continue
		}
		next := s[i+1]
		if next >= '1' && next <= '9' || next == 'g' && i+2 < len(s) && s[i+2] == '<' {
			return true
		}
		i++
	}
	return false
}

var backslashEscapes = map[byte]string{
	'a':  "\a",
	'b':  "\b",
	'f':  "\f",
	'n':  "\n",
	'r':  "\r",
	't':  "\t",
	'v':  "\v",
	'\\': `\`,
}

// translateControlEscapes rewrites control escapes in a $-style template.
// A doubled backslash is copied through untouched, so `\\t` stays literal.
func translateControlEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		next := s[i+1]
		if esc, ok := backslashEscapes[next]; ok && next != '\\' && next != 'b' {
			b.WriteString(esc)
			i++
			continue
		}
		b.WriteByte(c)
		if next == '\\' {
			b.WriteByte(next)
			i++
		}
	}
	return b.String()
}

func translateBackslashTemplate(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '$' {
			b.WriteString("$$")
			continue
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}

		if i+1 >= len(s) {
			return "", fmt.Errorf("bad escape (end of pattern) at position %d", i)
		}
		i++
		c = s[i]

		switch {
		case c == '0':
			// Octal escape: \0 plus up to two more octal digits.
			j := i + 1
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 8)
			b.WriteString(string(rune(v)))
			i = j - 1

		case c >= '1' && c <= '9':
			j := i + 1
			if j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			b.WriteString("${" + s[i:j] + "}")
			i = j - 1

		case c == 'g':
			if i+1 >= len(s) || s[i+1] != '<' {
				return "", fmt.Errorf("missing < after \\g at position %d", i-1)
			}
			end := strings.IndexByte(s[i+2:], '>')
			if end < 0 {
				return "", fmt.Errorf("missing >, unterminated name at position %d", i+2)
			}
			name := s[i+2 : i+2+end]
			if name == "" {
				return "", fmt.Errorf("missing group name at position %d", i+2)
			}
			b.WriteString("${" + name + "}")
			i += 2 + end

		default:
			if esc, ok := backslashEscapes[c]; ok {
				b.WriteString(esc)
				continue
			}
			if c < utf8.RuneSelf && unicode.IsLetter(rune(c)) {
				return "", fmt.Errorf("bad escape \\%c at position %d", c, i-1)
			}
			b.WriteByte('\\')
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// checkGroupRefs walks tmpl the way regexp.Expand does and rejects
// references to groups the pattern lacks, which Expand would otherwise
// silently replace with nothing.
func (r *SubstitutionRule) checkGroupRefs(tmpl string) error {
	for {
		_, after, ok := strings.Cut(tmpl, "$")
		if !ok {
			return nil
		}
		tmpl = after
		if tmpl != "" && tmpl[0] == '$' {
			tmpl = tmpl[1:]
			continue
		}

		name, num, rest, ok := extractRef(tmpl)
		if !ok {
			continue
		}
		tmpl = rest

		if num >= 0 {
			if num > r.re.NumSubexp() {
				return fmt.Errorf("invalid group reference %d", num)
			}
			continue
		}
		if !slices.Contains(r.re.SubexpNames()[1:], name) {
			return fmt.Errorf("unknown group name %q", name)
		}
	}
}

// extractRef parses $name or ${name} at the start of s (the '$' already
// consumed). num is -1 when name is not a decimal group number.
func extractRef(s string) (name string, num int, rest string, ok bool) {
	if s == "" {
		return "", 0, "", false
	}
	brace := false
	if s[0] == '{' {
		brace = true
		s = s[1:]
	}

	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		i += size
	}
	if i == 0 {
		return "", 0, "", false
	}
	name = s[:i]
	if brace {
		if i >= len(s) || s[i] != '}' {
			return "", 0, "", false
		}
		i++
	}

	num = 0
	for j := 0; j < len(name); j++ {
		if name[j] < '0' || name[j] > '9' || num >= 1e8 {
			num = -1
			break
		}
		num = num*10 + int(name[j]-'0')
	}
	if name[0] == '0' && len(name) > 1 {
		num = -1
	}

	return name, num, s[i:], true
}
