package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	perrors "github.com/pogliamarci/llvm-float-range/internal/errors"
)

func TestFatalf_WrapsSentinelAndUnwraps(t *testing.T) {
	err := perrors.Fatalf("rangeanalysis.VisitPhi", perrors.ErrPhiNoDominatingOperand, "%%%s", "acc")
	assert.True(t, stderrors.Is(err, perrors.ErrPhiNoDominatingOperand))
	assert.False(t, stderrors.Is(err, perrors.ErrUnsupportedInstruction))
}

func TestPassError_MessageIncludesContext(t *testing.T) {
	err := perrors.Fatalf("dataflow.Analyze", perrors.ErrUnsupportedInstruction, "opcode %s", "fneg")
	msg := err.Error()
	assert.Contains(t, msg, "fatal")
	assert.Contains(t, msg, "dataflow.Analyze")
	assert.Contains(t, msg, "opcode fneg")
}

func TestPassError_NoContextOmitsExtraSeparator(t *testing.T) {
	err := &perrors.PassError{Kind: perrors.Warning, Func: "f2f.reconvertOperands", Err: perrors.ErrUnsupportedConvOperand}
	assert.Equal(t, "warning: f2f.reconvertOperands: float-to-fixed operand producer is neither an instruction nor an argument", err.Error())
}
