// Package format parses raw configuration text into generic documents.
//
// Built-in parsers cover JSON, JSONC, TOML and YAML. RON and Pkl are known
// formats without a bundled parser; register one with Register.
//
// Example:
//
//	doc, err := format.Parse(format.YAML, "config.yaml", content)
//	var perr *format.ParserError
//	if errors.As(err, &perr) {
//	    fmt.Println(perr.Render())
//	}
package format
