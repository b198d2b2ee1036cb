package gorelay

import "testing"

func Test_Operator_Valid(t *testing.T) {
	for _, op := range []Operator{OperatorEQ, OperatorNEQ, OperatorLT, OperatorLTE, OperatorGT, OperatorGTE} {
		if !op.Valid() {
			t.Errorf("operator %q should be valid", op)
		}
	}

	for _, op := range []Operator{"", "LIKE", "==", "!=", "; DROP TABLE x"} {
		if op.Valid() {
			t.Errorf("operator %q should be invalid", op)
		}
	}
}

func Test_Operator_Flip_And_IsSeek(t *testing.T) {
	if OperatorGT.Flip() != OperatorLT || OperatorLT.Flip() != OperatorGT {
		t.Errorf("GT and LT should flip into each other")
	}

	if !OperatorGT.IsSeek() || !OperatorLT.IsSeek() || OperatorGTE.IsSeek() || OperatorEQ.IsSeek() {
		t.Errorf("only GT and LT drive seeking")
	}

	defer func() {
		if recover() == nil {
			t.Errorf("flipping EQ should panic")
		}
	}()
	_ = OperatorEQ.Flip()
}
