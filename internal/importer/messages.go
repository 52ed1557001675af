package importer

import "golang.org/x/text/language"

// Messages holds the user-visible placeholder strings for one locale.
type Messages struct {
	NoMessages string
	Untitled   string
}

var (
	supportedLocales = []language.Tag{language.English, language.Japanese}

	catalog = []Messages{
		{NoMessages: "(no messages)", Untitled: "(untitled)"},
		{NoMessages: "（メッセージなし）", Untitled: "無題"},
	}

	localeMatcher = language.NewMatcher(supportedLocales)
)

// MessagesFor returns the placeholder table best matching locale
// (a BCP 47 tag or Accept-Language style list). Unknown or empty locales
// get English.
func MessagesFor(locale string) Messages {
	if locale == "" {
		return catalog[0]
	}
	_, idx := language.MatchStrings(localeMatcher, locale)
	if idx < 0 || idx >= len(catalog) {
		return catalog[0]
	}
	return catalog[idx]
}
