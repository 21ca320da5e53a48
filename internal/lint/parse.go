package lint

import (
	"regexp"
	"strconv"

	"ide-go/internal/ide"
)

// Matches pylint's parseable format in both the old "[E0602, hint]" and the
// newer "[E0602(undefined-variable), hint]" spellings.
var messagePattern = regexp.MustCompile(`^([^:]+):(\d+): \[([EW]) ?\d*(?:\([^)]*\))?(?:, ([^\]]+))?\] (.*)$`)

// ParseLine converts one line of pylint output into a Diagnostic. ok is false
// for lines that are not messages.
func ParseLine(line string) (ide.Diagnostic, bool) {
	m := messagePattern.FindStringSubmatch(line)
	if m == nil {
		return ide.Diagnostic{}, false
	}
	lineNo, err := strconv.Atoi(m[2])
	if err != nil {
		return ide.Diagnostic{}, false
	}
	severity := ide.SeverityError
	if m[3] == "W" {
		severity = ide.SeverityWarning
	}
	return ide.Diagnostic{
		File:     m[1],
		Line:     lineNo,
		Message:  m[5],
		Hint:     m[4],
		Severity: severity,
	}, true
}
