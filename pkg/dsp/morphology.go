package dsp

// BinaryDilate grows true runs of mask by one element per iteration on
// each side. Elements outside the mask replicate the nearest edge value.
func BinaryDilate(mask []bool, iterations int) []bool {
	return morph(mask, iterations, true)
}

// BinaryErode shrinks true runs of mask by one element per iteration on
// each side. Elements outside the mask replicate the nearest edge value,
// so an all-true mask stays all-true.
func BinaryErode(mask []bool, iterations int) []bool {
	return morph(mask, iterations, false)
}

func morph(mask []bool, iterations int, dilate bool) []bool {
	cur := make([]bool, len(mask))
	copy(cur, mask)
	if len(mask) == 0 {
		return cur
	}
	next := make([]bool, len(mask))
	last := len(mask) - 1
	for range iterations {
		for i := range cur {
			left := cur[max(i-1, 0)]
			right := cur[min(i+1, last)]
			if dilate {
				next[i] = cur[i] || left || right
			} else {
				next[i] = cur[i] && left && right
			}
		}
		cur, next = next, cur
	}
	return cur
}
