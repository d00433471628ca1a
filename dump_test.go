package schematic

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type dumpDB struct {
	Host     string
	Password string `conf:"secret"`
}

type dumpServer struct {
	Port int
}

type dumpTestConfig struct {
	Name    string
	Port    int
	Debug   bool
	Ratio   float64
	Timeout time.Duration
	Tags    []string
	Token   string `conf:"secret"`
	Region  Optional[string]
	DB      dumpDB `conf:"name:db"`
	Cache   *dumpDB
	Servers []dumpServer
	Pools   map[string]dumpServer
}

func newDumpConfig() *dumpTestConfig {
	return &dumpTestConfig{
		Name:    "svc",
		Port:    8080,
		Debug:   true,
		Ratio:   0.5,
		Timeout: 2 * time.Second,
		Tags:    []string{"a", "b"},
		Token:   "s3cret",
		DB:      dumpDB{Host: "db.local", Password: "pw"},
		Servers: []dumpServer{{Port: 1}, {Port: 2}},
		Pools:   map[string]dumpServer{"green": {Port: 4}, "blue": {Port: 3}},
	}
}

func TestDumpEffective_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpEffective(&buf, newDumpConfig()); err != nil {
		t.Fatalf("DumpEffective failed: %v", err)
	}

	want := strings.Join([]string{
		`name: "svc"`,
		`port: 8080`,
		`debug: true`,
		`ratio: 0.5`,
		`timeout: 2s`,
		`tags: [a, b]`,
		`token: ***redacted***`,
		`region: <not set>`,
		`db.host: "db.local"`,
		`db.password: ***redacted***`,
		`cache: <not set>`,
		`servers[0].port: 1`,
		`servers[1].port: 2`,
		`pools.blue.port: 3`,
		`pools.green.port: 4`,
	}, "\n") + "\n"

	if got := buf.String(); got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestDumpEffective_WithSources(t *testing.T) {
	cfg := newDumpConfig()
	cfg.Region = Some("eu")
	cfg.Cache = &dumpDB{Host: "cache.local"}

	storeProvenance(cfg, &Provenance{Fields: []FieldProvenance{
		{FieldPath: "Name", KeyPath: "name", SourceName: "default"},
		{FieldPath: "Port", KeyPath: "port", SourceName: "env:APP_PORT"},
		{FieldPath: "DB.Host", KeyPath: "db.host", SourceName: "file:config.yaml"},
		{FieldPath: "Cache.Host", KeyPath: "cache.host", SourceName: "code:<code>"},
		{FieldPath: "Servers", KeyPath: "servers", SourceName: "file:servers.yaml"},
	}})
	t.Cleanup(func() { ForgetProvenance(cfg) })

	var buf bytes.Buffer
	if err := DumpEffective(&buf, cfg, WithSources()); err != nil {
		t.Fatalf("DumpEffective failed: %v", err)
	}
	output := buf.String()

	for _, line := range []string{
		`name: "svc" (source: default)`,
		`port: 8080 (source: env:APP_PORT)`,
		`region: "eu"` + "\n",
		`db.host: "db.local" (source: file:config.yaml)`,
		`db.password: ***redacted***` + "\n",
		`cache.host: "cache.local" (source: code:<code>)`,
		`servers[0].port: 1 (source: file:servers.yaml)`,
		`servers[1].port: 2 (source: file:servers.yaml)`,
		`pools.blue.port: 3` + "\n",
	} {
		if !strings.Contains(output, line) {
			t.Errorf("expected %q in output:\n%s", line, output)
		}
	}
}

func TestDumpEffective_SourcesOmittedByDefault(t *testing.T) {
	cfg := newDumpConfig()
	storeProvenance(cfg, &Provenance{Fields: []FieldProvenance{
		{FieldPath: "Name", KeyPath: "name", SourceName: "default"},
	}})
	t.Cleanup(func() { ForgetProvenance(cfg) })

	var buf bytes.Buffer
	if err := DumpEffective(&buf, cfg); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "source:") {
		t.Errorf("sources should only be printed with WithSources:\n%s", buf.String())
	}
}

func TestDumpEffective_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpEffective(&buf, newDumpConfig(), AsJSON()); err != nil {
		t.Fatalf("DumpEffective failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "\n  \"name\": \"svc\"") {
		t.Errorf("expected two-space indentation by default:\n%s", output)
	}
	if strings.Contains(output, "s3cret") || strings.Contains(output, `"pw"`) {
		t.Errorf("secrets leaked into output:\n%s", output)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	checks := map[string]any{
		"name":    "svc",
		"port":    float64(8080),
		"debug":   true,
		"timeout": "2s",
		"token":   redacted,
		"region":  nil,
		"cache":   nil,
	}
	for key, want := range checks {
		if got[key] != want {
			t.Errorf("%s = %#v, want %#v", key, got[key], want)
		}
	}

	db := got["db"].(map[string]any)
	if db["host"] != "db.local" || db["password"] != redacted {
		t.Errorf("unexpected db: %#v", db)
	}
	servers := got["servers"].([]any)
	if len(servers) != 2 || servers[1].(map[string]any)["port"] != float64(2) {
		t.Errorf("unexpected servers: %#v", servers)
	}
	pools := got["pools"].(map[string]any)
	if pools["blue"].(map[string]any)["port"] != float64(3) {
		t.Errorf("unexpected pools: %#v", pools)
	}
}

func TestDumpEffective_JSONIndent(t *testing.T) {
	var compact bytes.Buffer
	if err := DumpEffective(&compact, newDumpConfig(), AsJSON(), WithIndent("")); err != nil {
		t.Fatal(err)
	}
	if strings.Count(compact.String(), "\n") != 1 {
		t.Errorf("expected a single line of JSON, got:\n%s", compact.String())
	}

	var tabs bytes.Buffer
	if err := DumpEffective(&tabs, newDumpConfig(), AsJSON(), WithIndent("\t")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tabs.String(), "\n\t\"name\"") {
		t.Errorf("expected tab indentation, got:\n%s", tabs.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestDumpEffective_Errors(t *testing.T) {
	var nilCfg *dumpTestConfig
	if err := DumpEffective(&bytes.Buffer{}, nilCfg); err == nil {
		t.Error("expected error for nil config")
	}

	n := 1
	if err := DumpEffective(&bytes.Buffer{}, &n); err == nil {
		t.Error("expected error for non-struct config")
	}

	for name, opts := range map[string][]DumpOption{
		"text": nil,
		"json": {AsJSON()},
	} {
		err := DumpEffective(failingWriter{}, newDumpConfig(), opts...)
		if err == nil || !strings.Contains(err.Error(), "disk full") {
			t.Errorf("%s: expected write error, got %v", name, err)
		}
	}
}
