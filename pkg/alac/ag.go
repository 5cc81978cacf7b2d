// ABOUTME: Adaptive Golomb-Rice entropy coding
// ABOUTME: Codes prediction residuals with a running mean and zero-run mode
package alac

import "math/bits"

const (
	qbShift       = 9
	qb            = 1 << qbShift
	mmulShift     = 2
	mdenShift     = qbShift - mmulShift - 1
	moff          = 1 << (mdenShift - 2)
	bitOff        = 24
	maxPrefix     = 9
	maxRunBits    = 16
	maxZeroRun    = 65535
	nMaxMeanClamp = 0xffff
	nMeanClampVal = 0xffff
)

// agParams holds the adaptive Golomb state seeds for one channel.
type agParams struct {
	mb0 uint32
	pb  uint32
	kb  uint32
	wb  uint32
}

func newAGParams(mb, pb, kb uint32) agParams {
	return agParams{mb0: mb, pb: pb, kb: kb, wb: 1<<kb - 1}
}

// lg3a returns floor(log2(x + 3)).
func lg3a(x uint32) uint32 {
	return uint32(bits.Len32(x+3)) - 1
}

// runK returns the Rice parameter used for a zero run at mean mb.
func runK(mb uint32) uint32 {
	return uint32(bits.LeadingZeros32(mb)) - bitOff + (mb+moff)>>mdenShift
}

// writeCode emits n as a Rice code with divisor m = 2^k-1, escaping to
// a raw maxBits field when the unary prefix would be too long.
func writeCode(w *bitWriter, m, k, maxBits, n uint32) {
	q := n / m
	if q >= maxPrefix {
		w.write(1<<maxPrefix-1, maxPrefix)
		w.write(n, uint(maxBits))
		return
	}
	w.write((1<<q-1)<<1, uint(q+1))
	if k == 1 {
		return
	}
	if r := n - q*m; r == 0 {
		w.write(0, uint(k-1))
	} else {
		w.write(r+1, uint(k))
	}
}

// readCode is the inverse of writeCode.
func readCode(r *bitReader, m, k, maxBits uint32) (uint32, error) {
	var q uint32
	for q < maxPrefix {
		b, err := r.read(1)
		if err != nil {
			return 0, err
		}
		if b == 0 {
			break
		}
		q++
	}
	if q >= maxPrefix {
		return r.read(uint(maxBits))
	}
	if k == 1 {
		return q, nil
	}
	v, err := r.read(uint(k - 1))
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return q * m, nil
	}
	low, err := r.read(1)
	if err != nil {
		return 0, err
	}
	return q*m + (v<<1 | low) - 1, nil
}

// agEncode codes residuals in into w.
func agEncode(w *bitWriter, p agParams, in []int32, maxBits uint32) {
	mb := p.mb0
	var zmode uint32
	n := len(in)
	for c := 0; c < n; {
		k := lg3a(mb >> qbShift)
		if k > p.kb {
			k = p.kb
		}
		m := uint32(1)<<k - 1

		del := in[c]
		c++
		var folded uint32
		if del < 0 {
			folded = uint32(-del)*2 - 1
		} else {
			folded = uint32(del) * 2
		}
		v := folded - zmode
		writeCode(w, m, k, maxBits, v)

		mb = p.pb*(v+zmode) + mb - (p.pb*mb)>>qbShift
		if v > nMaxMeanClamp {
			mb = nMeanClampVal
		}

		zmode = 0
		if mb<<mmulShift < qb && c < n {
			zmode = 1
			var run uint32
			for c < n && in[c] == 0 {
				c++
				run++
				if run >= maxZeroRun {
					zmode = 0
					break
				}
			}
			k := runK(mb)
			mz := (uint32(1)<<k - 1) & p.wb
			writeCode(w, mz, k, maxRunBits, run)
			mb = 0
		}
	}
}

// agDecode fills out with residuals read from r.
func agDecode(r *bitReader, p agParams, out []int32, maxBits uint32) error {
	mb := p.mb0
	var zmode uint32
	n := len(out)
	for c := 0; c < n; {
		k := lg3a(mb >> qbShift)
		if k > p.kb {
			k = p.kb
		}
		m := uint32(1)<<k - 1

		v, err := readCode(r, m, k, maxBits)
		if err != nil {
			return err
		}
		folded := v + zmode
		del := int32((folded + 1) >> 1)
		if folded&1 != 0 {
			del = -del
		}
		out[c] = del
		c++

		mb = p.pb*(v+zmode) + mb - (p.pb*mb)>>qbShift
		if v > nMaxMeanClamp {
			mb = nMeanClampVal
		}

		zmode = 0
		if mb<<mmulShift < qb && c < n {
			zmode = 1
			k := runK(mb)
			mz := (uint32(1)<<k - 1) & p.wb
			run, err := readCode(r, mz, k, maxRunBits)
			if err != nil {
				return err
			}
			if c+int(run) > n {
				return ErrCorruptPacket
			}
			for j := uint32(0); j < run; j++ {
				out[c] = 0
				c++
			}
			if run >= maxZeroRun {
				zmode = 0
			}
			mb = 0
		}
	}
	return nil
}
