// internal/conversation/extractor/extractor.go
package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"careescapes-workers/internal/models"
)

// nameToken matches a single capitalized name word. Lead phrases are matched
// case-insensitively, name tokens are not.
const nameToken = `([A-Z][A-Za-z'\-]*)`

type introPattern struct {
	re     *regexp.Regexp
	groups int
}

// Evaluated top to bottom, first match wins.
var introPatterns = []introPattern{
	{regexp.MustCompile(`\b(?i:my\s+name\s+is)\s+` + nameToken + `\s+` + nameToken + `\b`), 2},
	{regexp.MustCompile(`\b(?i:i\s+am|i'm|im)\s+` + nameToken + `\s+` + nameToken + `\b`), 2},
	{regexp.MustCompile(`\b(?i:this\s+is)\s+` + nameToken + `\s+` + nameToken + `\b`), 2},
	{regexp.MustCompile(`\b` + nameToken + `\s+` + nameToken + `\s+(?i:here)\b`), 2},
	{regexp.MustCompile(`\b(?i:my\s+name\s+is|name\s+is|name's|call\s+me)\s+` + nameToken + `\b`), 1},
	{regexp.MustCompile(`\b(?i:i\s+am|i'm|im)\s+` + nameToken + `\b`), 1},
}

var trailingName = regexp.MustCompile(`^\s+` + nameToken + `\b`)

// ExtractNames pulls first_name and last_name out of a self-introduction.
// When no introduction pattern matches, the first two consecutive
// capitalized words are used. The result is empty when neither applies.
func ExtractNames(text string) models.EntityBag {
	if bag, ok := MatchIntroduction(text); ok {
		return bag
	}
	return scanCapitalized(text)
}

// MatchIntroduction applies only the ordered introduction patterns.
func MatchIntroduction(text string) (models.EntityBag, bool) {
	for _, p := range introPatterns {
		loc := p.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}

		bag := models.EntityBag{}
		first := text[loc[2]:loc[3]]

		if p.groups == 2 {
			last := text[loc[4]:loc[5]]
			if first == "" || last == "" {
				continue
			}
			bag.Set(models.EntityFirstName, capitalize(first))
			bag.Set(models.EntityLastName, capitalize(last))
			return bag, true
		}

		bag.Set(models.EntityFirstName, capitalize(first))
		if m := trailingName.FindStringSubmatch(text[loc[3]:]); m != nil {
			bag.Set(models.EntityLastName, capitalize(m[1]))
		}
		return bag, true
	}
	return models.EntityBag{}, false
}

// scanCapitalized is the naive fallback. Single-letter words ("I") and
// first-person contractions ("I'm", "I'll") never count.
func scanCapitalized(text string) models.EntityBag {
	words := strings.Fields(text)
	for i := 0; i+1 < len(words); i++ {
		a := trimPunct(words[i])
		b := trimPunct(words[i+1])
		if isCapitalizedWord(a) && isCapitalizedWord(b) {
			return models.EntityBag{
				models.EntityFirstName: capitalize(a),
				models.EntityLastName:  capitalize(b),
			}
		}
	}
	return models.EntityBag{}
}

func trimPunct(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func isCapitalizedWord(word string) bool {
	runes := []rune(word)
	if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
		return false
	}
	if runes[0] == 'I' && (runes[1] == '\'' || runes[1] == '’') {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) && r != '\'' && r != '-' {
			return false
		}
	}
	return true
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
