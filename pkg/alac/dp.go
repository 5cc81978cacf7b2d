// ABOUTME: Adaptive linear predictor for ALAC channels
// ABOUTME: Forward (residual) and inverse (reconstruction) block filters
package alac

const (
	denShiftDefault = 9
	pbFactorDefault = 4
	numActiveFirst  = 31 // numActive value meaning "first difference only"

	coefInitA = 38
	coefInitB = -29
	coefInitC = -2
)

// initCoefs returns the starting predictor coefficients for n taps.
func initCoefs(denShift uint, n int) []int16 {
	coefs := make([]int16, n)
	den := int32(1) << denShift
	if n > 0 {
		coefs[0] = int16((coefInitA * den) >> 4)
	}
	if n > 1 {
		coefs[1] = int16((coefInitB * den) >> 4)
	}
	if n > 2 {
		coefs[2] = int16((coefInitC * den) >> 4)
	}
	return coefs
}

func signOf(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func signExtend(v int32, shift uint) int32 {
	return (v << shift) >> shift
}

func denHalf(denShift uint) int32 {
	if denShift == 0 {
		return 0
	}
	return int32(1) << (denShift - 1)
}

// predict returns the filter output for position j of x.
func predict(x []int32, j int, coefs []int16, denShift uint) (top, pred int32) {
	numActive := len(coefs)
	top = x[j-numActive-1]
	var sum int32
	for k := 0; k < numActive; k++ {
		sum += int32(coefs[k]) * (x[j-1-k] - top)
	}
	return top, (sum + denHalf(denShift)) >> denShift
}

// adapt nudges coefs toward the sign of residual del, stopping once the
// accumulated correction has cancelled it.
func adapt(x []int32, j int, coefs []int16, del int32, denShift uint) {
	numActive := len(coefs)
	top := x[j-numActive-1]
	switch {
	case del > 0:
		for k := numActive - 1; k >= 0; k-- {
			dd := top - x[j-1-k]
			sgn := signOf(dd)
			coefs[k] -= int16(sgn)
			del -= int32(numActive-k) * ((sgn * dd) >> denShift)
			if del <= 0 {
				break
			}
		}
	case del < 0:
		for k := numActive - 1; k >= 0; k-- {
			dd := top - x[j-1-k]
			sgn := -signOf(dd)
			coefs[k] -= int16(sgn)
			del -= int32(numActive-k) * ((sgn * dd) >> denShift)
			if del >= 0 {
				break
			}
		}
	}
}

// pcBlock writes the prediction residuals of in to pc, adapting coefs
// in place. len(coefs) is the number of active taps.
func pcBlock(in, pc []int32, coefs []int16, chanBits, denShift uint) {
	n := len(in)
	if n == 0 {
		return
	}
	chanShift := 32 - chanBits
	numActive := len(coefs)

	pc[0] = in[0]
	if numActive == 0 {
		copy(pc, in)
		return
	}
	if numActive == numActiveFirst {
		for j := 1; j < n; j++ {
			pc[j] = signExtend(in[j]-in[j-1], chanShift)
		}
		return
	}

	for j := 1; j <= numActive && j < n; j++ {
		pc[j] = signExtend(in[j]-in[j-1], chanShift)
	}
	for j := numActive + 1; j < n; j++ {
		top, pred := predict(in, j, coefs, denShift)
		del := signExtend(in[j]-top-pred, chanShift)
		pc[j] = del
		adapt(in, j, coefs, del, denShift)
	}
}

// unpcBlock reconstructs samples from residuals pc into out. pc and out
// may alias only when numActive is 0 or 31.
func unpcBlock(pc, out []int32, coefs []int16, numActive int, chanBits, denShift uint) {
	n := len(pc)
	if n == 0 {
		return
	}
	chanShift := 32 - chanBits

	out[0] = pc[0]
	if numActive == 0 {
		copy(out, pc)
		return
	}
	if numActive == numActiveFirst {
		prev := out[0]
		for j := 1; j < n; j++ {
			prev = signExtend(pc[j]+prev, chanShift)
			out[j] = prev
		}
		return
	}

	coefs = coefs[:numActive]
	for j := 1; j <= numActive && j < n; j++ {
		out[j] = signExtend(pc[j]+out[j-1], chanShift)
	}
	for j := numActive + 1; j < n; j++ {
		top, pred := predict(out, j, coefs, denShift)
		out[j] = signExtend(pc[j]+top+pred, chanShift)
		adapt(out, j, coefs, pc[j], denShift)
	}
}
