package action

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stoewer/go-strcase"
)

// CommandPrefix namespaces every derived command id.
const CommandPrefix = "fonline."

// CommandID derives the invocable id of an action from its label: all spaces
// are removed and the first character is lower-cased. Labels that differ only
// in spaces therefore share an id.
func CommandID(label string) string {
	name := strings.ReplaceAll(label, " ", "")
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return CommandPrefix
	}
	return CommandPrefix + string(unicode.ToLower(r)) + name[size:]
}

// KebabName is the command line friendly form of a label: "Build All"
// becomes "build-all".
func KebabName(label string) string {
	return strcase.KebabCase(strings.ReplaceAll(label, " ", ""))
}

// aliases lists every name Lookup accepts for an action besides its id.
func aliases(label, id string) []string {
	return []string{
		label,
		strings.TrimPrefix(id, CommandPrefix),
		KebabName(label),
	}
}
