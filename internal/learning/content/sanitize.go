package content

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

type scrubRule struct {
	Label       string
	Re          *regexp.Regexp
	Replacement string
}

var (
	spaceRunRE = regexp.MustCompile(`[ \t]{2,}`)
	blankRunRE = regexp.MustCompile(`\n{3,}`)
)

// Chat-style asides the model sometimes leaves in lesson text.
var metaScrubRules = []scrubRule{
	{Label: "sure, here", Re: regexp.MustCompile(`(?im)^[ \t]*(sure|certainly|of course)[,!]?[ \t]+here(?:'s| is)[^\n]*:[ \t]*$`), Replacement: ""},
	{Label: "here's the plan", Re: regexp.MustCompile(`(?i)here's the plan`), Replacement: "overview"},
	{Label: "here is the plan", Re: regexp.MustCompile(`(?i)here is the plan`), Replacement: "overview"},
	{Label: "before we dive in", Re: regexp.MustCompile(`(?i)before we dive in,?[ \t]*`), Replacement: ""},
	{Label: "i can tailor this", Re: regexp.MustCompile(`(?i)i can tailor this[^.\n]*[.]?`), Replacement: ""},
	{Label: "if you want to go deeper", Re: regexp.MustCompile(`(?i)if you(?:'d like| want) to go deeper[^.\n]*[.]?`), Replacement: ""},
	{Label: "let me know if", Re: regexp.MustCompile(`(?i)let me know if[^.\n]*[.!]?`), Replacement: ""},
	{Label: "hope this helps", Re: regexp.MustCompile(`(?i)i hope this helps[.!]?`), Replacement: ""},
}

// ScrubMeta strips assistant chatter from generated lesson text and reports
// which rules fired. Markdown line structure is preserved.
func ScrubMeta(s string) (string, []string) {
	if strings.TrimSpace(s) == "" {
		return s, nil
	}
	orig := s
	hit := make([]string, 0)
	for _, r := range metaScrubRules {
		if r.Re.MatchString(s) {
			s = r.Re.ReplaceAllString(s, r.Replacement)
			hit = append(hit, r.Label)
		}
	}
	if s != orig {
		s = spaceRunRE.ReplaceAllString(s, " ")
		s = strings.ReplaceAll(s, " \n", "\n")
		s = blankRunRE.ReplaceAllString(s, "\n\n")
		s = strings.TrimSpace(s)
	}
	return s, lo.Uniq(hit)
}
