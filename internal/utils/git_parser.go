package utils

import (
	"strings"
)

// ParseFileList splits the name-only listings GitSource reads (ls-files,
// ls-tree -r --name-only --full-tree) into repository-relative paths. git
// runs with core.quotepath=off, so each line is a raw path and spaces inside
// it, including leading and trailing ones, belong to the name. Only a
// trailing carriage return is dropped.
func ParseFileList(output string) []string {
	files := []string{}
	for line := range strings.SplitSeq(output, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}
