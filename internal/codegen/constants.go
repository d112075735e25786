// Package codegen provides code generation helpers and constants.
package codegen

// Import paths and identifiers referenced by generated code.
const (
	RegscanPath = "github.com/KromDaniel/regscan/pkg/regscan"
	SyncPath    = "sync"

	PatternsSuffix = "Patterns"
	ModeSuffix     = "Mode"
	DatabaseSuffix = "Database"

	onceSuffix = "Once"
	dbSuffix   = "DB"
	errSuffix  = "Err"
)

// GeneratedHeader marks generated files.
const GeneratedHeader = "Code generated by regscan. DO NOT EDIT."

// LowerFirst converts the first character of a string to lowercase.
func LowerFirst(s string) string {
	if s == "" || !isASCIILetter(s[0]) {
		return s
	}
	return string(s[0]|0x20) + s[1:]
}

// UpperFirst converts the first character of a string to uppercase.
func UpperFirst(s string) string {
	if s == "" || !isASCIILetter(s[0]) {
		return s
	}
	return string(s[0]&^0x20) + s[1:]
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
