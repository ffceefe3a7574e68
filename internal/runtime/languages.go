package runtime

import (
	"path/filepath"
	"strings"
)

// Python is the only language this module parses.
const Python = "python"

var pythonExts = map[string]bool{".py": true, ".pyi": true, ".pyw": true}

// LanguageForFile reports Python for .py, .pyi and .pyw paths, any case.
func LanguageForFile(path string) (string, bool) {
	if pythonExts[strings.ToLower(filepath.Ext(path))] {
		return Python, true
	}
	return "", false
}
