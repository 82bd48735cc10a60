package ingest

import (
	"strings"
)

// MatchScripts fills in ScriptExists for every record: a case with a
// non-blank number matches when <number>.py is present in the script
// set (exact, case-sensitive). Blank numbers never match. One hash
// lookup per case.
func MatchScripts(records []CaseRecord, scripts map[string]struct{}) {
	for i := range records {
		number := strings.TrimSpace(records[i].Number)
		if number == "" {
			records[i].ScriptExists = false
			continue
		}
		_, ok := scripts[records[i].Number+scriptSuffix]
		records[i].ScriptExists = ok
	}
}
