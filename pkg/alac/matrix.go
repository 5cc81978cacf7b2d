// ABOUTME: Stereo matrixing for ALAC
// ABOUTME: Converts left/right into weighted mid and side channels and back
package alac

const (
	mixBitsDefault = 2
	mixResMax      = 4
)

// mix16 splits interleaved stereo into u (weighted mid) and v (side).
// With mixRes 0 the channels pass through unchanged.
func mix16(in []int16, u, v []int32, mixBits uint, mixRes int32) {
	n := len(u)
	if mixRes == 0 {
		for j := 0; j < n; j++ {
			u[j] = int32(in[2*j])
			v[j] = int32(in[2*j+1])
		}
		return
	}
	m2 := int32(1)<<mixBits - mixRes
	for j := 0; j < n; j++ {
		l := int32(in[2*j])
		r := int32(in[2*j+1])
		u[j] = (mixRes*l + m2*r) >> mixBits
		v[j] = l - r
	}
}

// unmix16 is the inverse of mix16, writing interleaved stereo to out.
func unmix16(u, v []int32, out []int16, mixBits uint, mixRes int32) {
	n := len(u)
	if mixRes == 0 {
		for j := 0; j < n; j++ {
			out[2*j] = int16(u[j])
			out[2*j+1] = int16(v[j])
		}
		return
	}
	for j := 0; j < n; j++ {
		l := u[j] + v[j] - (mixRes*v[j])>>mixBits
		out[2*j] = int16(l)
		out[2*j+1] = int16(l - v[j])
	}
}
