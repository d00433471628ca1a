package schematic

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azhovan/schematic/schema"
)

type schemaServer struct {
	Host string `conf:"required" doc:"Server host"`
	Port uint16 `conf:"min:1,max:65535"`
}

type schemaConfig struct {
	Extends  ExtendsFrom `conf:"name:extends"`
	Name     string      `conf:"required,min:1,max:32,env:NAME"`
	Mode     string      `conf:"oneof:dev,prod"`
	Workers  int         `conf:"oneof:1,2,4"`
	Ratio    float32     `conf:"min:0,max:1"`
	Timeout  time.Duration
	Started  time.Time
	Debug    Optional[bool]
	Tags     []string `conf:"max:3"`
	Labels   map[string]string
	OldName  string `conf:"deprecated:use name"`
	Internal string `conf:"hidden"`
	Primary  schemaServer
	Backup   *schemaServer
	Servers  []schemaServer
	Pools    map[string]schemaServer
}

func TestSchemaOf(t *testing.T) {
	g := schema.NewGenerator()
	ref, err := SchemaOf[schemaConfig](g, false)
	require.NoError(t, err)

	assert.Equal(t, &schema.ReferenceType{Name: "schemaConfig"}, ref)
	require.Len(t, g.Schemas(), 2, "nested structs are registered once")
	assert.True(t, g.Has("schemaServer"))

	resolved, err := g.Resolve(ref)
	require.NoError(t, err)
	st := resolved.(*schema.StructType)
	assert.Equal(t, []string{"name"}, st.Required)
	assert.False(t, st.Partial)

	field := func(name string) *schema.Field {
		f, ok := st.Field(name)
		require.True(t, ok, name)
		return f
	}

	name := field("name")
	assert.Equal(t, "NAME", name.Env)
	assert.False(t, name.Optional)
	assert.Equal(t, &schema.StringType{MinLength: schema.Ptr(1), MaxLength: schema.Ptr(32)}, name.Type)

	mode := field("mode").Type.(*schema.UnionType)
	assert.Equal(t, schema.OneOf, mode.Operator)
	assert.Equal(t, []schema.Type{schema.NewLiteral("dev"), schema.NewLiteral("prod")}, mode.Variants)

	workers := field("workers").Type.(*schema.UnionType)
	assert.Equal(t, schema.NewLiteral(4), workers.Variants[2])

	assert.Equal(t, &schema.FloatType{Width: schema.Float32, Min: schema.Ptr(0.0), Max: schema.Ptr(1.0)}, field("ratio").Type)
	assert.Equal(t, &schema.StringType{Format: "duration"}, field("timeout").Type)
	assert.Equal(t, &schema.StringType{Format: "date-time"}, field("started").Type)

	debug := field("debug")
	assert.True(t, debug.Nullable)
	assert.Equal(t, schema.NewNullable(&schema.BooleanType{}), debug.Type)

	tags := field("tags").Type.(*schema.ArrayType)
	assert.Equal(t, &schema.StringType{}, tags.Items)
	assert.Equal(t, schema.Ptr(3), tags.MaxLength)

	assert.Equal(t, schema.NewObject(&schema.StringType{}, &schema.StringType{}), field("labels").Type)
	assert.Equal(t, "use name", field("oldName").Deprecated)
	assert.True(t, field("internal").Hidden)

	assert.Equal(t, &schema.ReferenceType{Name: "schemaServer"}, field("primary").Type)
	assert.Equal(t, schema.NewNullable(&schema.ReferenceType{Name: "schemaServer"}), field("backup").Type)
	assert.Equal(t, schema.NewArray(&schema.ReferenceType{Name: "schemaServer"}), field("servers").Type)
	assert.Equal(t, schema.NewObject(&schema.StringType{}, &schema.ReferenceType{Name: "schemaServer"}), field("pools").Type)
	assert.Equal(t, schema.AnyOf, field("extends").Type.(*schema.UnionType).Operator)

	server, ok := g.Lookup("schemaServer")
	require.True(t, ok)
	serverType := server.Type.(*schema.StructType)
	host, _ := serverType.Field("host")
	assert.Equal(t, "Server host", host.Description)
	port, _ := serverType.Field("port")
	assert.Equal(t, &schema.IntegerType{Width: schema.Uint16, Min: schema.Ptr(int64(1)), Max: schema.Ptr(int64(65535))}, port.Type)
}

func TestSchemaOf_Partial(t *testing.T) {
	g := schema.NewGenerator()
	ref, err := SchemaOf[schemaConfig](g, true)
	require.NoError(t, err)

	assert.Equal(t, &schema.ReferenceType{Name: "PartialschemaConfig"}, ref)
	resolved, err := g.Resolve(ref)
	require.NoError(t, err)

	st := resolved.(*schema.StructType)
	assert.True(t, st.Partial)
	assert.Empty(t, st.Required)
	assert.True(t, g.Has("PartialschemaServer"))
}

func TestSchemaOf_Recursive(t *testing.T) {
	g := schema.NewGenerator()
	_, err := SchemaOf[recursiveNode](g, false)
	require.NoError(t, err)
	assert.Len(t, g.Schemas(), 1)
}

func TestGenerateSchema(t *testing.T) {
	names := schema.RendererFunc(func(schemas []*schema.Schema) (string, error) {
		out := make([]string, len(schemas))
		for i, s := range schemas {
			out[i] = s.Name
		}
		return strings.Join(out, ","), nil
	})

	out, err := GenerateSchema[schemaConfig](names)
	require.NoError(t, err)
	assert.Equal(t, "schemaConfig,schemaServer", out)

	_, err = GenerateSchema[int](names)
	assert.Error(t, err)
}
