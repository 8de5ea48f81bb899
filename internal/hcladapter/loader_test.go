package hcladapter

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/ctxlog"
	"github.com/vk/girder/internal/source"
)

// testContext returns a context with a quiet logger, as the loader requires
// one to be present.
func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return ctxlog.WithLogger(context.Background(), logger)
}

// loadString writes the given files under a temp dir and loads them.
func loadString(t *testing.T, files map[string]string) (*config.Model, source.Model, error) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return NewLoader().Load(testContext(t), root)
}

func TestLoader_Declarations(t *testing.T) {
	model, _, err := loadString(t, map[string]string{
		"core.hcl": `
			contract "Logger" {
				type = object({ level = string })
			}

			implementation "ConsoleLogger" {
				implements = ["Logger"]
				produces   = object({ level = string })
			}

			implementation "Database" {
				param "log" {
					type = Logger
				}
				param "hosts" {
					type = list(string)
				}
				param "extra" {}
			}

			alias "Log" {
				target = "Logger"
			}

			external "legacy" {
				tokens = ["Database"]
			}
		`,
	})
	require.NoError(t, err)

	t.Run("contract carries its concrete type", func(t *testing.T) {
		c, ok := model.Contracts["Logger"]
		require.True(t, ok)
		assert.True(t, c.Type.IsObjectType())
		assert.Equal(t, "core.hcl", c.File)
	})

	t.Run("implementation params keep declared order and typing", func(t *testing.T) {
		impl, ok := model.Implementations["Database"]
		require.True(t, ok)
		require.Len(t, impl.Params, 3)

		assert.Equal(t, "log", impl.Params[0].Name)
		assert.True(t, impl.Params[0].HasType)
		assert.Equal(t, "Logger", impl.Params[0].TypeName)

		assert.Equal(t, "hosts", impl.Params[1].Name)
		assert.Equal(t, "", impl.Params[1].TypeName)
		assert.True(t, impl.Params[1].Type.Equals(cty.List(cty.String)))

		assert.Equal(t, "extra", impl.Params[2].Name)
		assert.False(t, impl.Params[2].HasType)
	})

	t.Run("alias and external are registered", func(t *testing.T) {
		require.Contains(t, model.Aliases, "Log")
		assert.Equal(t, "Logger", model.Aliases["Log"].For)

		require.Contains(t, model.Externals, "legacy")
		assert.Equal(t, []string{"Database"}, model.Externals["legacy"].Tokens)
	})
}

func TestLoader_Units(t *testing.T) {
	model, _, err := loadString(t, map[string]string{
		"wiring.hcl": `
			implementation "Cache" {}

			fragment {
				name = "shared"
				register "Cache" {}
			}

			container {
				name      = "App"
				fragments = ["shared"]

				register "Cache" {
					override  = true
					lifecycle = "transient"
				}

				property "Cache" "size" {
					value = 64
				}
			}

			container {
				register "Cache" {}
			}
		`,
	})
	require.NoError(t, err)
	require.Len(t, model.Units, 3)

	t.Run("fragment", func(t *testing.T) {
		frag := model.Units[0]
		assert.Equal(t, config.UnitFragment, frag.Kind)
		assert.Equal(t, "shared", frag.Name)
		assert.True(t, frag.ExplicitName)
		require.Len(t, frag.Registers, 1)
		assert.Equal(t, "Cache", frag.Registers[0].Token)
	})

	t.Run("named container", func(t *testing.T) {
		app := model.Units[1]
		assert.Equal(t, config.UnitComposite, app.Kind)
		assert.Equal(t, []string{"shared"}, app.Fragments)
		require.Len(t, app.Registers, 1)
		assert.True(t, app.Registers[0].Override)
		assert.Equal(t, "transient", app.Registers[0].Lifecycle)
		require.Len(t, app.Properties, 1)
		assert.Equal(t, "Cache", app.Properties[0].Implementation)
		assert.Equal(t, "size", app.Properties[0].Parameter)
		assert.Equal(t, "64", app.Properties[0].ValueText)
		assert.True(t, app.Properties[0].Value.RawEquals(cty.NumberIntVal(64)))
	})

	t.Run("anonymous container keeps its source text", func(t *testing.T) {
		anon := model.Units[2]
		assert.False(t, anon.ExplicitName)
		assert.Contains(t, anon.SourceText, `register "Cache"`)
	})
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		hcl         string
		errContains string
	}{
		{
			name:        "contract without type",
			hcl:         `contract "Logger" {}`,
			errContains: "type",
		},
		{
			name: "contract type must not be a reference",
			hcl: `
				contract "Logger" {
					type = SomethingElse
				}
			`,
			errContains: "not a reference",
		},
		{
			name: "duplicate contract",
			hcl: `
				contract "Logger" { type = string }
				contract "Logger" { type = string }
			`,
			errContains: "already declared",
		},
		{
			name: "container label is rejected",
			hcl: `
				container "App" {}
			`,
			errContains: "take no labels",
		},
		{
			name: "fragment cannot compose",
			hcl: `
				fragment {
					parent = "App"
				}
			`,
			errContains: "only containers compose",
		},
		{
			name: "to and factory are mutually exclusive",
			hcl: `
				implementation "Cache" {}
				container {
					register "Cache" {
						to      = Cache
						factory = lambda("Cache")
					}
				}
			`,
			errContains: "mutually exclusive",
		},
		{
			name: "property value must be static",
			hcl: `
				container {
					property "Cache" "size" {
						value = var.size
					}
				}
			`,
			errContains: "statically evaluable",
		},
		{
			name:        "unsupported top-level block",
			hcl:         `widget "x" {}`,
			errContains: "unsupported block type",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := loadString(t, map[string]string{"main.hcl": tc.hcl})
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.errContains)
		})
	}
}

func TestLoader_AbsentOptionalExpressions(t *testing.T) {
	// Absent optional attributes must come back as truly absent, not as a
	// synthesized null expression.
	model, _, err := loadString(t, map[string]string{
		"main.hcl": `
			implementation "Cache" {
				param "size" {}
			}

			container {
				name = "App"
				register "Cache" {}
			}
		`,
	})
	require.NoError(t, err)

	t.Run("bare register is self-bound", func(t *testing.T) {
		require.Len(t, model.Units, 1)
		require.Len(t, model.Units[0].Registers, 1)
		reg := model.Units[0].Registers[0]
		assert.Nil(t, reg.To)
		assert.Nil(t, reg.Factory)
	})

	t.Run("implementation without produces has no declared type", func(t *testing.T) {
		impl, ok := model.Implementations["Cache"]
		require.True(t, ok)
		assert.Equal(t, cty.NilType, impl.Produces)
	})

	t.Run("typeless param stays untyped", func(t *testing.T) {
		impl := model.Implementations["Cache"]
		require.Len(t, impl.Params, 1)
		assert.False(t, impl.Params[0].HasType)
	})
}

func TestLoader_DeclaringLocationsAreRootRelative(t *testing.T) {
	model, _, err := loadString(t, map[string]string{
		"sub/infra.hcl": `implementation "Cache" {}`,
	})
	require.NoError(t, err)

	impl, ok := model.Implementations["Cache"]
	require.True(t, ok)
	assert.Equal(t, "sub/infra.hcl", impl.File, "locations are root-relative and slash-separated")
}
