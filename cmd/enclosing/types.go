package main

import "github.com/RohanNethala/enclosing"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	File    string `json:"file,omitempty"`
	Backend string `json:"backend,omitempty"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIFind is the answer for one --lines range.
type CLIFind struct {
	Lines            enclosing.LineRange         `json:"lines"`
	EnclosingContext *enclosing.EnclosingContext `json:"enclosingContext"`
}
