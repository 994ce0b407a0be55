package core

import (
	"bytes"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// GenerateDiff builds a +/- line diff between the current and desired
// content of a file, for dry-run previews.
func GenerateDiff(name, current, desired string) string {
	dmp := diffmatchpatch.New()

	a, b, c := dmp.DiffLinesToChars(current, desired)
	diffs := dmp.DiffMain(a, b, false)
	result := dmp.DiffCharsToLines(diffs, c)

	var buff bytes.Buffer
	buff.WriteString("--- " + name + "\n")
	for _, diff := range result {
		lines := strings.Split(strings.TrimRight(diff.Text, "\n"), "\n")
		for _, line := range lines {
			switch diff.Type {
			case diffmatchpatch.DiffInsert:
				buff.WriteString("+ " + line + "\n")
			case diffmatchpatch.DiffDelete:
				buff.WriteString("- " + line + "\n")
			default:
				buff.WriteString("  " + line + "\n")
			}
		}
	}
	return buff.String()
}
