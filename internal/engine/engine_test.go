package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/girder/internal/analysis"
	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/testutil"
)

const engineDecls = `
	contract "Logger" {
		type = object({ level = string })
	}

	implementation "ConsoleLogger" {
		implements = ["Logger"]
	}

	implementation "Database" {
		param "log" {
			type = Logger
		}
	}

	implementation "Api" {
		param "db" {
			type = Database
		}
		param "log" {
			type = Logger
		}
	}
`

func TestEngine_CleanCompositeGetsAPlan(t *testing.T) {
	result := testutil.RunAnalysisTest(t, map[string]string{
		"decls.hcl": engineDecls,
		"wiring.hcl": `
			container {
				name = "App"
				register "Api" {}
				register "Database" {}
				register "Logger" {
					to = ConsoleLogger
				}
			}
		`,
	})
	require.NoError(t, result.LoadErr)
	require.NoError(t, result.RunErr)

	res := testutil.ResultFor(t, result.Results, "App")
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Plan)
	require.Len(t, res.Plan.Nodes, 3)

	t.Run("every dependency appears strictly earlier", func(t *testing.T) {
		position := make(map[string]int)
		for i, n := range res.Plan.Nodes {
			position[n.ID] = i
		}
		for _, n := range res.Plan.Nodes {
			for _, dep := range n.Deps {
				depPos, ok := position[dep]
				if !ok {
					continue
				}
				assert.Less(t, depPos, position[n.ID],
					"dependency %q must be placed before %q", dep, n.ID)
			}
		}
	})

	t.Run("the api node depends on database and logger in parameter order", func(t *testing.T) {
		var apiDeps []string
		for _, n := range res.Plan.Nodes {
			if n.Service.Provider == "Api" {
				apiDeps = n.Deps
			}
		}
		require.Len(t, apiDeps, 2)
	})
}

func TestEngine_FragmentsValidateButGetNoPlan(t *testing.T) {
	result := testutil.RunAnalysisTest(t, map[string]string{
		"decls.hcl": engineDecls,
		"wiring.hcl": `
			fragment {
				name = "shared"
				register "Database" {}
			}
		`,
	})
	require.NoError(t, result.RunErr)

	res := testutil.ResultFor(t, result.Results, "shared")
	assert.Equal(t, config.UnitFragment, res.Config.Kind)
	assert.Nil(t, res.Plan)
	// The fragment's own scope lacks Logger; the finding belongs to the
	// fragment, not to some future consumer.
	require.Len(t, res.Errors, 1)
	assert.True(t, errors.Is(res.Errors[0], analysis.ErrMissing))
}

func TestEngine_ServiceCycle(t *testing.T) {
	result := testutil.RunAnalysisTest(t, map[string]string{
		"wiring.hcl": `
			implementation "A" {
				param "b" {
					type = B
				}
			}

			implementation "B" {
				param "a" {
					type = A
				}
			}

			container {
				name = "App"
				register "A" {}
				register "B" {}
			}
		`,
	})
	require.NoError(t, result.RunErr)

	res := testutil.ResultFor(t, result.Results, "App")
	require.Len(t, res.Errors, 1)
	assert.True(t, errors.Is(res.Errors[0], analysis.ErrCycle))
	assert.Equal(t, "service", res.Errors[0].Context["kind"])
	assert.Contains(t, res.Errors[0].Context["chain"], "A -> B -> A")
	assert.Nil(t, res.Plan)
}

func TestEngine_InheritedClosureIsEmitted(t *testing.T) {
	result := testutil.RunAnalysisTest(t, map[string]string{
		"decls.hcl": engineDecls,
		"wiring.hcl": `
			container {
				name = "Base"
				register "Logger" {
					to = ConsoleLogger
				}
			}

			container {
				name   = "App"
				parent = "Base"
				register "Database" {}
			}
		`,
	})
	require.NoError(t, result.RunErr)

	res := testutil.ResultFor(t, result.Results, "App")
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Plan)
	require.Len(t, res.Plan.Nodes, 2, "the plan covers the whole closure")
	assert.Equal(t, "Base", res.Plan.Parent)

	fromAbove := 0
	for _, n := range res.Plan.Nodes {
		if n.FromAbove {
			fromAbove++
		}
	}
	assert.Equal(t, 1, fromAbove, "the inherited logger is marked as contributed from above")
}

func TestEngine_ExternalParentBecomesADelegate(t *testing.T) {
	result := testutil.RunAnalysisTest(t, map[string]string{
		"decls.hcl": engineDecls,
		"wiring.hcl": `
			external "legacy" {
				tokens = ["Logger"]
			}

			container {
				name   = "App"
				parent = "legacy"
				register "Database" {}
			}
		`,
	})
	require.NoError(t, result.RunErr)

	res := testutil.ResultFor(t, result.Results, "App")
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Plan)
	assert.Equal(t, []string{"legacy"}, res.Plan.Delegates)
	assert.Empty(t, res.Plan.Parent)
}

func TestEngine_AnalysisIsIdempotent(t *testing.T) {
	files := map[string]string{
		"decls.hcl": engineDecls,
		"wiring.hcl": `
			fragment {
				name = "logging"
				register "Logger" {
					to = ConsoleLogger
				}
			}

			container {
				name      = "App"
				fragments = ["logging"]
				register "Api" {}
				register "Database" {}
			}
		`,
	}

	first := testutil.RunAnalysisTest(t, files)
	require.NoError(t, first.RunErr)
	second := testutil.RunAnalysisTest(t, files)
	require.NoError(t, second.RunErr)

	require.Len(t, second.Results, len(first.Results))
	for i := range first.Results {
		a, b := first.Results[i], second.Results[i]
		assert.Equal(t, a.Config.Name, b.Config.Name)
		assert.Equal(t, a.Config.Order, b.Config.Order, "token ids are stable across runs")
		if a.Plan != nil {
			require.NotNil(t, b.Plan)
			assert.Equal(t, a.Plan.NodeIDs(), b.Plan.NodeIDs(), "plan ordering is stable across runs")
		}
	}
}
