// Package env parses environment variable text into configuration values.
//
// Parsers are attached to fields with the `parse_env:<name>` tag directive
// (comma, colon, semicolon, space, bool) or programmatically. Fields without
// a parser use Parse, which relies on the target type's standard text form.
//
// Example:
//
//	type Config struct {
//	    Hosts []string `conf:"env:HOSTS,parse_env:comma"`
//	    Debug bool     `conf:"env:DEBUG,parse_env:bool"`
//	}
package env
