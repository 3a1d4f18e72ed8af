package indicators

import "testing"

func TestRollingStdWarmupIsZero(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := RollingStd(values, 3)
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("expected zeros before first full window, got %v", out[:2])
	}
}

func TestRollingStdSampleVariance(t *testing.T) {
	values := []float64{2, 4, 6}
	out := RollingStd(values, 3)
	// Sample std of {2,4,6} is 2.
	if !almostEqual(out[2], 2) {
		t.Errorf("out[2] = %v, want 2", out[2])
	}
}

func TestRollingStdConstantWindowIsZero(t *testing.T) {
	values := []float64{7, 7, 7, 7, 7, 7}
	out := RollingStd(values, 4)
	for i := 3; i < len(out); i++ {
		if !almostEqual(out[i], 0) {
			t.Errorf("constant window should give 0, out[%d] = %v", i, out[i])
		}
	}
}

func TestRollingStdShortInput(t *testing.T) {
	out := RollingStd([]float64{1, 2}, 5)
	for i, v := range out {
		if v != 0 {
			t.Errorf("short input should give zeros, out[%d] = %v", i, v)
		}
	}
}
