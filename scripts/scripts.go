// Package scripts embeds helper programs shipped with the module.
package scripts

import _ "embed"

// ASTDump is python/astdump.py, the program run by the CPython backend.
//
//go:embed python/astdump.py
var ASTDump string
