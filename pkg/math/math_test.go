package math

import "testing"

func TestDivRoundUp(t *testing.T) {
	for _, tc := range []struct {
		a, b, wanted int64
	}{
		{a: 0, b: 500, wanted: 0},
		{a: 1, b: 500, wanted: 1},
		{a: 500, b: 500, wanted: 1},
		{a: 501, b: 500, wanted: 2},
		{a: 5000, b: 500, wanted: 10},
	} {
		if found := DivRoundUp(tc.a, tc.b); found != tc.wanted {
			t.Fatalf(
				"DivRoundUp(%d, %d): wanted `%d`; found `%d`",
				tc.a,
				tc.b,
				tc.wanted,
				found,
			)
		}
	}
}

func TestAlignUp(t *testing.T) {
	if found := AlignUp(uint32(81), 8); found != 88 {
		t.Fatalf("AlignUp(81, 8): wanted `88`; found `%d`", found)
	}
	if found := AlignUp(uint32(80), 8); found != 80 {
		t.Fatalf("AlignUp(80, 8): wanted `80`; found `%d`", found)
	}
}

func TestMinMax(t *testing.T) {
	if found := Min(3, 7); found != 3 {
		t.Fatalf("Min(3, 7): wanted `3`; found `%d`", found)
	}
	if found := Max(uint8(3), 7); found != 7 {
		t.Fatalf("Max(3, 7): wanted `7`; found `%d`", found)
	}
}
