package analyzer

import (
	"regexp"
	"strings"

	"github.com/surya021104/bug-tracker/internal/model"
)

// Classification is the heuristic guess used to fill fields the enricher
// left empty.
type Classification struct {
	Severity model.Severity
	Category string
}

type severityRule struct {
	re       *regexp.Regexp
	severity model.Severity
}

type categoryRule struct {
	re       *regexp.Regexp
	category string
}

var severityRules = []severityRule{
	{regexp.MustCompile(`(?i)\b(crash|panic|fatal|security|unauthorized|white screen)\b`), model.SeverityCritical},
	{regexp.MustCompile(`(?i)\b(error|failed|exception|timeout|null|undefined)\b`), model.SeverityHigh},
	{regexp.MustCompile(`(?i)\b(warning|bug|validation|incorrect)\b`), model.SeverityMedium},
}

var categoryRules = []categoryRule{
	{regexp.MustCompile(`(?i)\b(api|network|fetch|axios|xhr|dns|gateway|404|500)\b`), model.CategoryNetwork},
	{regexp.MustCompile(`(?i)\b(login|auth|token|session|password)\b`), model.CategoryAuthentication},
	{regexp.MustCompile(`(?i)\b(css|ui|ux|layout|responsive|overlap)\b`), model.CategoryUIUX},
	{regexp.MustCompile(`(?i)\b(slow|lag|performance|load time|memory|cpu)\b`), model.CategoryPerformance},
}

// Classify applies the first matching keyword rule for severity and for
// category independently. Keywords match whole words only.
func Classify(title, description string) Classification {
	text := title + " " + description

	result := Classification{Severity: model.SeverityLow, Category: model.CategoryFunctional}
	for _, r := range severityRules {
		if r.re.MatchString(text) {
			result.Severity = r.severity
			break
		}
	}
	for _, r := range categoryRules {
		if r.re.MatchString(text) {
			result.Category = r.category
			break
		}
	}
	return result
}

// LooseTitleKey groups near-identical titles for reconciliation: lowercase,
// digit runs replaced by N, bracket characters dropped.
func LooseTitleKey(title string) string {
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	key := digitsRe.ReplaceAllString(strings.ToLower(title), "N")
	key = bracketRe.ReplaceAllString(key, "")
	return strings.TrimSpace(key)
}

var (
	digitsRe  = regexp.MustCompile(`\d+`)
	bracketRe = regexp.MustCompile(`[()\[\]]`)
)
