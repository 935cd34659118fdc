package service

import (
	"testing"

	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
)

func TestPartition_CompleteAndDisjoint(t *testing.T) {
	cat := domain.CatalogueFromHaloes([]domain.Halo{
		{Z: 0.05}, {Z: 0.2}, {Z: 0.49}, {Z: 0.5}, {Z: 0.9}, {Z: 1.4},
	})

	fg, bg := Partition(cat, 0, 0.5)
	if fg.Len()+bg.Len() != cat.Len() {
		t.Fatalf("partition not exhaustive: %d + %d != %d", fg.Len(), bg.Len(), cat.Len())
	}
	for i := 0; i < fg.Len(); i++ {
		if fg.Z[i] >= 0.5 {
			t.Fatalf("foreground halo at z %v", fg.Z[i])
		}
	}
	for i := 0; i < bg.Len(); i++ {
		if bg.Z[i] < 0.5 {
			t.Fatalf("background halo at z %v", bg.Z[i])
		}
	}
}

func TestPartition_BoundaryGoesToBackground(t *testing.T) {
	// A halo exactly at the lens redshift is background by convention;
	// the rule decides which correction formula applies and must hold
	// exactly.
	cat := domain.CatalogueFromHaloes([]domain.Halo{{Z: 0.5}})

	fg, bg := Partition(cat, 0, 0.5)
	if fg.Len() != 0 {
		t.Fatalf("expected empty foreground, got %d", fg.Len())
	}
	if bg.Len() != 1 {
		t.Fatalf("expected boundary halo in background, got %d", bg.Len())
	}
}

func TestPartition_Empty(t *testing.T) {
	fg, bg := Partition(domain.NewCatalogue(0), 0, 0.5)
	if fg.Len() != 0 || bg.Len() != 0 {
		t.Fatal("expected empty partitions")
	}
}
