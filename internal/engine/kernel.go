package engine

import (
	"fmt"
	"runtime"
)

// kernel is the accelerated decay path: the batch is walked in lane-sized
// blocks matching the platform's vector width, with full-slice tails
// handled element-wise. The block bodies use three-index slices so the
// compiler can drop bounds checks and vectorize the multiply.
type kernel struct {
	lanes int
}

// newKernel selects a lane profile for the host architecture. Unknown
// architectures have no profile; callers fall back to the scalar loop.
func newKernel() (*kernel, error) {
	switch runtime.GOARCH {
	case "amd64":
		return &kernel{lanes: 8}, nil // AVX2: 8 float32 per op
	case "arm64":
		return &kernel{lanes: 4}, nil // NEON: 4 float32 per op
	default:
		return nil, fmt.Errorf("no vector lane profile for %s", runtime.GOARCH)
	}
}

// run decays src into dst. Same float32 multiply and floor snap as the
// scalar path, so results are bit-identical.
func (k *kernel) run(dst, src []float32, factor, floor float32) {
	n := len(src)
	i := 0
	for ; i+k.lanes <= n; i += k.lanes {
		d := dst[i : i+k.lanes : i+k.lanes]
		s := src[i : i+k.lanes : i+k.lanes]
		for j := range s {
			d[j] = s[j] * factor
		}
		for j := range d {
			if d[j] < floor && d[j] > -floor {
				d[j] = 0
			}
		}
	}
	for ; i < n; i++ {
		dst[i] = decayOne(src[i], factor, floor)
	}
}
