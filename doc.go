// Package schematic loads layered configuration into typed structs.
//
// Quick Start:
//
//	type Config struct {
//	    Extends schematic.ExtendsFrom `conf:"name:extends"`
//	    Port    int                   `conf:"default:8080,min:1024,env:PORT"`
//	    Host    string                `conf:"required"`
//	    Tags    []string              `conf:"merge:append,parse_env:comma,env:TAGS"`
//	}
//
//	cfg, err := schematic.NewLoader[Config]().
//	    WithFile("config.yaml").
//	    WithEnvPrefix("APP_").
//	    Load(context.Background())
//
// Layers are merged in order: field defaults, every source in the order it
// was added (each preceded by the documents it extends), then environment
// variables. Each field is merged with its strategy (replace by default),
// nested structs are merged field by field.
//
// Tag directives: name:key, env:VAR, env_prefix:PFX_, parse_env:comma|colon|semicolon|space|bool,
// default:val, merge:replace|append|prepend|preserve|discard|map|set,
// required, min:N, max:N, oneof:a,b,c, secret, deprecated, hidden, skip.
//
// Types implementing FieldConfigurer can attach default, merge, validate
// and env parsing functions to their fields.
package schematic
