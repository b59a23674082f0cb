package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/diag"
	"github.com/velalang/velac/types"
)

func TestTypeMismatchErrorMessage(t *testing.T) {
	err := &diag.TypeMismatchError{
		Span: ast.Span{Line: 3, Column: 5},
		Want: types.U32(),
		Got:  types.U1(),
	}
	assert.Contains(t, err.Error(), "expected u32")
	assert.Contains(t, err.Error(), "got u1")
}

func TestWithExplainAppendsReason(t *testing.T) {
	base := &diag.TypeMismatchError{Span: ast.Span{}, Want: types.U32(), Got: types.U1()}
	explained := base.WithExplain("field %s differs", "count")
	assert.Contains(t, explained.Error(), "field count differs")
	assert.NotContains(t, base.Error(), "field count differs")
}

func TestRenderWritesOneLinePerError(t *testing.T) {
	buf := diag.NewBufferPrinter()
	diag.Render(buf, []error{
		&diag.ConstexprError{Span: ast.Span{}, Message: "loop bound depends on runtime value"},
		&diag.ArgumentError{Span: ast.Span{}, Message: "missing argument 'width'"},
	})
	out := buf.String()
	assert.Contains(t, out, "not a constant expression")
	assert.Contains(t, out, "missing argument 'width'")
}
