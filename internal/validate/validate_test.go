package validate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/girder/internal/analysis"
	"github.com/vk/girder/internal/testutil"
)

// analyze runs the full pipeline and returns the findings for one config.
func analyze(t *testing.T, files map[string]string, config string) []analysis.Error {
	t.Helper()
	result := testutil.RunAnalysisTest(t, files)
	require.NoError(t, result.LoadErr)
	require.NoError(t, result.RunErr)
	return testutil.ResultFor(t, result.Results, config).Errors
}

func kindsOf(errs []analysis.Error) []analysis.Kind {
	kinds := make([]analysis.Kind, len(errs))
	for i, e := range errs {
		kinds[i] = e.Kind
	}
	return kinds
}

func TestDuplicateRule(t *testing.T) {
	t.Run("local duplicate names the first site", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				implementation "Cache" {}

				container {
					name = "App"
					register "Cache" {}
					register "Cache" {}
				}
			`,
		}, "App")

		require.Len(t, errs, 1)
		assert.True(t, errors.Is(errs[0], analysis.ErrDuplicate))
		assert.Contains(t, errs[0].Message, "already registered")
		assert.Contains(t, errs[0].Message, "set override = true")
		assert.NotEmpty(t, errs[0].Context["first"])
	})

	t.Run("shadowing an inherited token names the ancestor", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				implementation "Cache" {}

				container {
					name = "Base"
					register "Cache" {}
				}

				container {
					name   = "App"
					parent = "Base"
					register "Cache" {}
				}
			`,
		}, "App")

		require.Len(t, errs, 1)
		assert.True(t, errors.Is(errs[0], analysis.ErrDuplicate))
		assert.Contains(t, errs[0].Message, `already provided by parent "Base"`)
		assert.Equal(t, "Base", errs[0].Context["ancestor"])
	})

	t.Run("shadowing a fragment token names the fragment", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				implementation "Cache" {}

				fragment {
					name = "shared"
					register "Cache" {}
				}

				container {
					name      = "App"
					fragments = ["shared"]
					register "Cache" {}
				}
			`,
		}, "App")

		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, `already provided by fragment "shared"`)
	})

	t.Run("override suppresses the finding", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				implementation "Cache" {}

				container {
					name = "Base"
					register "Cache" {}
				}

				container {
					name   = "App"
					parent = "Base"
					register "Cache" {
						override = true
					}
				}
			`,
		}, "App")

		assert.Empty(t, errs)
	})
}

func TestTypeCompatibilityRule(t *testing.T) {
	t.Run("incompatible binding is reported once", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				contract "Logger" {
					type = object({ level = string })
				}

				implementation "BrokenLogger" {
					produces = number
				}

				container {
					name = "App"
					register "Logger" {
						to = BrokenLogger
					}
				}
			`,
		}, "App")

		require.Len(t, errs, 1)
		assert.True(t, errors.Is(errs[0], analysis.ErrTypeMismatch))
		assert.Contains(t, errs[0].Message, `"BrokenLogger" is not assignable to capability "Logger"`)
	})

	t.Run("declared implements satisfies the contract", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				contract "Logger" {
					type = object({ level = string })
				}

				implementation "ConsoleLogger" {
					implements = ["Logger"]
				}

				container {
					name = "App"
					register "Logger" {
						to = ConsoleLogger
					}
				}
			`,
		}, "App")

		assert.Empty(t, errs)
	})

	t.Run("self-bound registrations are exempt", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				implementation "Cache" {}

				container {
					name = "App"
					register "Cache" {}
				}
			`,
		}, "App")

		assert.Empty(t, errs)
	})
}

func TestMissingDependencyRule(t *testing.T) {
	t.Run("undeclared binding target", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				contract "Logger" {
					type = string
				}

				container {
					name = "App"
					register "Logger" {
						to = GhostLogger
					}
				}
			`,
		}, "App")

		require.Len(t, errs, 1)
		assert.True(t, errors.Is(errs[0], analysis.ErrMissing))
		assert.Contains(t, errs[0].Message, `implementation "GhostLogger" bound to token "Logger" is not declared`)
	})

	t.Run("unsatisfied constructor parameter names all three parties", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				contract "Logger" {
					type = string
				}

				implementation "Database" {
					param "log" {
						type = Logger
					}
				}

				container {
					name = "App"
					register "Database" {}
				}
			`,
		}, "App")

		require.Len(t, errs, 1)
		assert.True(t, errors.Is(errs[0], analysis.ErrMissing))
		assert.Contains(t, errs[0].Message, `dependency "Logger" of "Database" (parameter "log")`)
		assert.Equal(t, "Database", errs[0].Context["dependent"])
	})

	t.Run("inherited registration satisfies the dependency", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				contract "Logger" {
					type = string
				}

				implementation "ConsoleLogger" {
					implements = ["Logger"]
				}

				implementation "Database" {
					param "log" {
						type = Logger
					}
				}

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
		}, "App")

		assert.Empty(t, errs)
	})

	t.Run("property token satisfies its scoped parameter", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				contract "Logger" {
					type = string
				}

				implementation "Database" {
					param "log" {
						type = Logger
					}
				}

				container {
					name = "App"
					register "Database" {}
					property "Database" "log" {
						value = "stdout"
					}
				}
			`,
		}, "App")

		assert.Empty(t, errs)
	})

	t.Run("capability registered without a binding", func(t *testing.T) {
		// A bare register on a contract token has no constructor behind it:
		// nothing would back the token in the emitted container.
		errs := analyze(t, map[string]string{
			"main.hcl": `
				contract "Logger" {
					type = string
				}

				container {
					name = "App"
					register "Logger" {}
				}
			`,
		}, "App")

		require.Len(t, errs, 1)
		assert.True(t, errors.Is(errs[0], analysis.ErrMissing))
		assert.Contains(t, errs[0].Message, `capability token "Logger" has no implementation`)
		assert.Contains(t, errs[0].Message, "bind it with 'to' or register a factory")
	})

	t.Run("untyped parameters are skipped", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				implementation "Database" {
					param "anything" {}
				}

				container {
					name = "App"
					register "Database" {}
				}
			`,
		}, "App")

		assert.Empty(t, errs)
	})

	t.Run("factories are out of scope", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				contract "Logger" {
					type = string
				}

				implementation "Database" {
					param "log" {
						type = Logger
					}
				}

				container {
					name = "App"
					register "Database" {
						factory = lambda("db")
					}
				}
			`,
		}, "App")

		assert.Empty(t, errs)
	})

	t.Run("externally declared tokens count as reachable", func(t *testing.T) {
		errs := analyze(t, map[string]string{
			"main.hcl": `
				contract "Logger" {
					type = string
				}

				implementation "Database" {
					param "log" {
						type = Logger
					}
				}

				external "legacy" {
					tokens = ["Logger"]
				}

				container {
					name   = "App"
					parent = "legacy"
					register "Database" {}
				}
			`,
		}, "App")

		assert.Empty(t, errs)
	})
}

func TestRulesAccumulate(t *testing.T) {
	// One config with a duplicate, a mismatch and a missing dependency: all
	// three surface in one pass.
	errs := analyze(t, map[string]string{
		"main.hcl": `
			contract "Logger" {
				type = object({ level = string })
			}

			implementation "BrokenLogger" {
				produces = number
			}

			implementation "Database" {
				param "cache" {
					type = Cache
				}
			}

			contract "Cache" {
				type = string
			}

			container {
				name = "App"
				register "Logger" {
					to = BrokenLogger
				}
				register "Logger" {
					to = BrokenLogger
				}
				register "Database" {}
			}
		`,
	}, "App")

	kinds := kindsOf(errs)
	assert.Contains(t, kinds, analysis.KindDuplicate)
	assert.Contains(t, kinds, analysis.KindTypeMismatch)
	assert.Contains(t, kinds, analysis.KindMissing)
	assert.Len(t, errs, 3)
}
