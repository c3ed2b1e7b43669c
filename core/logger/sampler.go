package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler passes num out of every den events on a rolling counter,
// so allowed events are spread evenly instead of bursting at the start.
type ratioSampler struct {
	// ratio packs numerator (high 32 bits) and denominator (low 32
	// bits) into one word so Allow reads both without a lock. Zero
	// means sampling is disabled.
	ratio   atomic.Uint64
	counter atomic.Uint64
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

// Set replaces the sampling ratio. Non-positive values disable sampling,
// every event passes.
func (s *ratioSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		s.ratio.Store(0)
		return
	}
	if num > den {
		num = den
	}
	s.ratio.Store(uint64(num)<<32 | uint64(den))
	s.counter.Store(0)
}

// Allow reports whether the current event passes sampling.
func (s *ratioSampler) Allow() bool {
	packed := s.ratio.Load()
	if packed == 0 {
		return true
	}
	num := packed >> 32
	den := packed & 0xffffffff
	n := s.counter.Add(1)
	return (n-1)%den < num
}

// parseRatioSpec understands "num/den" ("1/50") and a bare denominator
// ("50" means 1/50). Anything else disables sampling.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if numPart, denPart, found := strings.Cut(spec, "/"); found {
		num, errN := strconv.Atoi(strings.TrimSpace(numPart))
		den, errD := strconv.Atoi(strings.TrimSpace(denPart))
		if errN != nil || errD != nil {
			return 0, 0
		}
		return num, den
	}
	v, err := strconv.Atoi(spec)
	if err != nil || v <= 0 {
		return 0, 0
	}
	return 1, v
}
