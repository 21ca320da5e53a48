package git

import (
	"fmt"
	"strconv"
	"strings"

	"ide-go/internal/ide"
)

const fieldSeparator = "\x1f"

// ParseLog parses `git log --pretty=format:%H%x1f%aN <%aE>%x1f%at%x1f%s`
// output. The subject is the last field and is taken whole.
func ParseLog(out string) ([]ide.Revision, error) {
	revs := []ide.Revision{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, fieldSeparator, 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("parsing log line %q: expected 4 fields, got %d", line, len(fields))
		}
		ts, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing log time %q: %w", fields[2], err)
		}
		revs = append(revs, ide.Revision{
			Hash:    fields[0],
			Author:  fields[1],
			Time:    ts,
			Message: fields[3],
		})
	}
	return revs, nil
}
