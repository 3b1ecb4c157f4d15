package llm

import (
	"regexp"
	"strings"
)

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|all|earlier)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)forget\s+(all|everything|previous)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s+`),
	regexp.MustCompile(`(?i)system\s*:\s*(override|ignore|bypass)`),
	regexp.MustCompile(`(?i)output\s+(secrets?|passwords?|keys?|tokens?)`),
	regexp.MustCompile(`(?i)call\s+(this\s+)?(url|api|endpoint)`),
	regexp.MustCompile(`(?i)execute\s+(this\s+)?(code|command|script)`),
	regexp.MustCompile(`(?i)disregard\s+(previous|all)`),
	regexp.MustCompile(`(?i)pretend\s+(you\s+are|to\s+be)`),
	regexp.MustCompile(`(?i)roleplay\s+as`),
	regexp.MustCompile(`(?i)act\s+as\s+(if\s+you\s+are\s+)?(a|an)\b`),
}

// DetectInjection returns the phrases in text that look like attempts to
// steer the model. Callers only log them.
func DetectInjection(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var found []string
	for _, re := range injectionPatterns {
		if m := re.FindString(text); m != "" {
			found = append(found, strings.ToLower(m))
		}
	}
	return found
}
