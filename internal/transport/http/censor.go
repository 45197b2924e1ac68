package http

import (
	"regexp"
	"strconv"
	"strings"

	"reveal-party-service/internal/domain"
)

const censorMask = "***"

// CensorAnswer redacts the active trivia answer from public chat, along
// with its numeral/word equivalents for numeric questions, so guests
// cannot leak the answer to the room while a round is open.
func CensorAnswer(text, answer string, kind domain.QuestionKind) string {
	forms := []string{strings.TrimSpace(answer)}
	if kind == domain.KindNumber {
		if n, err := strconv.Atoi(strings.TrimSpace(answer)); err == nil {
			if word := numberWord(n); word != "" {
				forms = append(forms, word)
			}
		}
	}

	for _, form := range forms {
		if form == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(form))
		if err != nil {
			continue
		}
		text = re.ReplaceAllString(text, censorMask)
	}
	return text
}

var smallNumberWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven",
	"eight", "nine", "ten", "eleven", "twelve", "thirteen", "fourteen",
	"fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
}

var tensWords = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

// numberWord spells out 0-99; larger values are left to the numeral form.
func numberWord(n int) string {
	switch {
	case n < 0 || n > 99:
		return ""
	case n < 20:
		return smallNumberWords[n]
	case n%10 == 0:
		return tensWords[n/10]
	default:
		return tensWords[n/10] + "-" + smallNumberWords[n%10]
	}
}
