package parsers

import (
	"strings"
	"unicode"

	"github.com/Chative-support-router/server/internal/agent/model"
)

// Short names some models answer with instead of the canonical label.
var intentAliases = map[string]model.IntentLabel{
	"rag":         model.IntentKnowledgeQuery,
	"knowledge":   model.IntentKnowledgeQuery,
	"tools":       model.IntentDataQuery,
	"data":        model.IntentDataQuery,
	"general":     model.IntentGeneralChat,
	"chat":        model.IntentGeneralChat,
	"cannot_help": model.IntentOutOfScope,
}

// ParseIntent maps raw classifier output onto the closed label set.
// Anything that is not exactly one known label yields out_of_scope and false.
func ParseIntent(raw string) (model.IntentLabel, bool) {
	text := normalize(raw)
	if text == "" {
		return model.IntentOutOfScope, false
	}

	label := model.IntentLabel(text)
	if label.Valid() {
		return label, true
	}
	if alias, ok := intentAliases[text]; ok {
		return alias, true
	}

	// "label: data_query" and similar prefixes
	if i := strings.LastIndexAny(text, ":="); i >= 0 {
		return ParseIntent(text[i+1:])
	}
	return model.IntentOutOfScope, false
}

func normalize(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	text = strings.Trim(text, "`*_\"' \t\r\n.!")
	text = strings.TrimSpace(text)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range text {
		switch {
		case r == ' ' || r == '-' || r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case r == ':' || r == '=' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	return strings.Trim(b.String(), "_")
}
