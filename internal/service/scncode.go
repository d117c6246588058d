package service

import (
	"regexp"
	"strings"
)

// scnPattern matches codes such as IB06, ERROR-01, IB02_WIT, INV4.1.
var scnPattern = regexp.MustCompile(`(?i)\b[A-Z]{1,5}[-_]?\d+(?:\.\d+)?(?:[-_][A-Z]+)?\b`)

var (
	leadingLetters = regexp.MustCompile(`^[A-Za-z]+`)
	firstDigits    = regexp.MustCompile(`\d+`)
)

// ScenarioCode is one code found in free text.
type ScenarioCode struct {
	Raw        string // as written, uppercased
	Normalized string // separators unified to "-"
	Core       string // leading letters + first digit run, e.g. IB02
	Canonical  string // Core hyphenated, e.g. IB-02
}

// ScriptKey renders the code the way script templates are keyed (IB02_WIT).
func (c ScenarioCode) ScriptKey() string {
	return NormalizeScriptKey(c.Raw)
}

// ExtractScenarioCodes returns every scenario code in text, in order of appearance.
func ExtractScenarioCodes(text string) []ScenarioCode {
	matches := scnPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	codes := make([]ScenarioCode, 0, len(matches))
	for _, m := range matches {
		raw := strings.ToUpper(m)
		letters := leadingLetters.FindString(raw)
		digits := firstDigits.FindString(raw)
		codes = append(codes, ScenarioCode{
			Raw:        raw,
			Normalized: NormalizeCode(raw),
			Core:       letters + digits,
			Canonical:  letters + "-" + digits,
		})
	}
	return codes
}

// ContainsScenarioCode reports whether text mentions any scenario code.
func ContainsScenarioCode(text string) bool {
	return scnPattern.MatchString(text)
}

// NormalizeCode uppercases a code and unifies "_" to "-".
func NormalizeCode(code string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(code)), "_", "-")
}

// NormalizeScriptKey uppercases a code and unifies "-" to "_".
func NormalizeScriptKey(code string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(code)), "-", "_")
}

// CoreCode reduces a code to its leading letters and first digit run.
func CoreCode(code string) string {
	upper := strings.ToUpper(code)
	return leadingLetters.FindString(upper) + firstDigits.FindString(upper)
}

// SameScenario compares two codes ignoring case and separator spelling.
func SameScenario(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.ReplaceAll(NormalizeCode(a), "-", "") == strings.ReplaceAll(NormalizeCode(b), "-", "")
}

// patterns lists the distinct search strings for a code.
func (c ScenarioCode) patterns() []string {
	seen := make(map[string]struct{}, 4)
	var out []string
	for _, p := range []string{c.Raw, c.Normalized, c.Core, c.Canonical} {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
