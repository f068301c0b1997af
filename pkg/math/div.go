package math

func DivRoundUp[T Integer](a, b T) T {
	if a%b == 0 {
		return a / b
	}
	return a/b + 1
}

// AlignUp rounds `a` up to the nearest multiple of `b`.
func AlignUp[T Integer](a, b T) T { return DivRoundUp(a, b) * b }
