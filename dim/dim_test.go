package dim_test

import (
	"testing"
	"text/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
)

func TestConstFolding(t *testing.T) {
	d := dim.NewAdd(dim.NewConst(3), dim.NewConst(4))
	assert.True(t, d.IsConst())
	assert.Equal(t, uint64(7), d.ConstValue())
}

func TestEqualityIsSyntacticNotCommutative(t *testing.T) {
	n := symbol.Intern("N")
	m := symbol.Intern("M")
	a := dim.NewAdd(dim.NewSymbol(n, scanner.Position{}), dim.NewSymbol(m, scanner.Position{}))
	b := dim.NewAdd(dim.NewSymbol(m, scanner.Position{}), dim.NewSymbol(n, scanner.Position{}))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a))
}

func TestEvalResolvesSymbol(t *testing.T) {
	n := symbol.Intern("N")
	env := dim.NewEnv()
	env.PushFrame()
	env.BindConcrete(n, 8)
	d := dim.NewMul(dim.NewSymbol(n, scanner.Position{}), dim.NewConst(2))
	r := dim.Eval(d, env)
	assert.NotNil(t, r.Value)
	assert.Equal(t, uint64(16), *r.Value)
}

func TestEvalPropagatesResidual(t *testing.T) {
	n := symbol.Intern("UnboundSym")
	env := dim.NewEnv()
	env.PushFrame()
	d := dim.NewAdd(dim.NewSymbol(n, scanner.Position{}), dim.NewConst(1))
	r := dim.Eval(d, env)
	assert.Nil(t, r.Value)
	assert.NotNil(t, r.Residual)
}
