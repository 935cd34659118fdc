package service

import (
	"fmt"

	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
)

// Cut partitions a catalogue into the haloes whose lensing effect the
// tidal approximation captures and those it does not. A halo survives
// when its own single-plane convergence stays at or below kappaMax and
// its flexion residual Del stays at or below delMax. The catalogue must
// already carry own single-plane annotations.
//
// Both thresholds are caller-supplied; nothing here has a default.
func Cut(cat *domain.Catalogue, kappaMax, delMax float64) (surviving, discarded *domain.Catalogue, err error) {
	n := cat.Len()
	keep := make([]int, 0, n)
	drop := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if cat.KappaOwn[i] <= kappaMax && cat.Del[i] <= delMax {
			keep = append(keep, i)
		} else {
			drop = append(drop, i)
		}
	}
	surviving = cat.Select(keep)
	discarded = cat.Select(drop)

	if surviving.Len()+discarded.Len() != n {
		return nil, nil, fmt.Errorf("cut conservation violated: %d + %d != %d",
			surviving.Len(), discarded.Len(), n)
	}
	return surviving, discarded, nil
}
