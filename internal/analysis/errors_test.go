package analysis

import (
	"errors"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subjectRange() hcl.Range {
	return hcl.Range{
		Filename: "main.hcl",
		Start:    hcl.Pos{Line: 3, Column: 1, Byte: 10},
		End:      hcl.Pos{Line: 3, Column: 9, Byte: 18},
	}
}

func TestError_SentinelMapping(t *testing.T) {
	testCases := []struct {
		kind     Kind
		sentinel error
	}{
		{KindDuplicate, ErrDuplicate},
		{KindTypeMismatch, ErrTypeMismatch},
		{KindMissing, ErrMissing},
		{KindCycle, ErrCycle},
	}

	for _, tc := range testCases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			err := Errorf(tc.kind, subjectRange(), nil, "boom")
			assert.True(t, errors.Is(err, tc.sentinel))
		})
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf(KindMissing, subjectRange(), map[string]string{"config": "App"}, "token %q not found", "Logger")

	assert.Equal(t, `token "Logger" not found`, err.Message)
	assert.Equal(t, "App", err.Context["config"])
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), "main.hcl")
}

func TestDiagnostics(t *testing.T) {
	errs := []Error{
		Errorf(KindDuplicate, subjectRange(), nil, "first"),
		Errorf(KindCycle, subjectRange(), nil, "second"),
	}

	diags := Diagnostics(errs)
	require.Len(t, diags, 2)
	assert.Equal(t, hcl.DiagError, diags[0].Severity)
	assert.Equal(t, "duplicate", diags[0].Summary)
	assert.Equal(t, "first", diags[0].Detail)
	require.NotNil(t, diags[1].Subject)
	assert.Equal(t, "main.hcl", diags[1].Subject.Filename)
}
