package commitment

import "testing"

func TestCalcHeatDeterministic(t *testing.T) {
	a := CalcHeat(7, []byte("burn-1"))
	b := CalcHeat(7, []byte("burn-1"))
	if a != b {
		t.Fatalf("CalcHeat must be deterministic")
	}
}

func TestVerifyHeatRoundTrip(t *testing.T) {
	c := CalcHeat(42, []byte("data"))
	if !Verify(c, uint64(42), []byte("data")) {
		t.Fatalf("expected verify to succeed on the original payload")
	}
	if Verify(c, uint64(42), []byte("other")) {
		t.Fatalf("expected verify to fail on a different payload")
	}
}

func TestVerifyYieldRoundTrip(t *testing.T) {
	c := CalcYield(1.5, []byte("data"))
	if !Verify(c, 1.5, []byte("data")) {
		t.Fatalf("expected verify to succeed")
	}
	if Verify(c, 1.6, []byte("data")) {
		t.Fatalf("expected verify to fail for a different factor")
	}
}

func TestHeatYieldDontCollide(t *testing.T) {
	heat := CalcHeat(1, []byte("x"))
	yield := CalcYield(1, []byte("x"))
	if heat == yield {
		t.Fatalf("HEAT and Yield commitments must use distinct domain tags")
	}
}
