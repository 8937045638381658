package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomyShape(t *testing.T) {
	for _, b := range Default().Bases() {
		depth := 0
		for p := b.Kind.Parent(); p != nil; p = p.Parent() {
			depth++
		}
		// Category bases sit one or two levels below the root.
		assert.True(t, depth == 1 || depth == 2, "%s depth %d", b.Kind.Name(), depth)

		for _, leaf := range b.Leaves {
			assert.Same(t, b.Kind, leaf.Parent(), leaf.Name())
			assert.False(t, leaf.IsGroup(), leaf.Name())
			assert.Equal(t, b.Kind.Category(), leaf.Category(), leaf.Name())
		}
	}
}

func TestGroupsHaveNoCode(t *testing.T) {
	for _, g := range []*Kind{FunctionGeneral, Register, Memory, Variable, Breakpoint, MmuTranslation} {
		_, ok := g.Code()
		assert.False(t, ok, g.Name())
		assert.True(t, g.IsGroup())
		assert.Equal(t, CategoryFunction, g.Category())
		assert.Same(t, Function, g.Parent())
	}
}

func TestCategories(t *testing.T) {
	assert.Equal(t, CategoryClient, ClientMallocFail.Category())
	assert.Equal(t, CategoryStandard, Fatal.Category())
	assert.Equal(t, CategoryFunction, ReadVariableAccessFailed.Category())
	assert.Equal(t, "function", CategoryFunction.String())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "TargetRunning(2)", TargetRunning.String())
	assert.Equal(t, "ReadRegisterByNameNotFound(0x1010)", ReadRegisterByNameNotFound.String())
	assert.Equal(t, "Register", Register.String())
	assert.Equal(t, "ClientReceiveFail(-1)", ClientReceiveFail.String())
}

func TestWithin(t *testing.T) {
	assert.True(t, FunctionFn2.Within(FunctionGeneral))
	assert.True(t, FunctionFn2.Within(Function))
	assert.True(t, FunctionFn2.Within(Generic))
	assert.False(t, FunctionFn2.Within(Register))
	assert.True(t, Bus.Within(Bus))
}
