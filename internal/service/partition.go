package service

import "github.com/nataliehogg/los-proof-of-concept/internal/domain"

// Partition splits a catalogue at the main lens plane: foreground haloes
// sit in [zObs, zLens), background haloes in [zLens, zSource). A halo
// exactly at zLens goes to the background; the half-open boundary decides
// which correction formula applies downstream, so it must not move.
// Partitions are disjoint and exhaustive for any catalogue whose
// redshifts satisfy the ordering contract.
func Partition(cat *domain.Catalogue, zObs, zLens float64) (foreground, background *domain.Catalogue) {
	n := cat.Len()
	fg := make([]int, 0, n)
	bg := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if cat.Z[i] >= zObs && cat.Z[i] < zLens {
			fg = append(fg, i)
		} else {
			bg = append(bg, i)
		}
	}
	return cat.Select(fg), cat.Select(bg)
}
