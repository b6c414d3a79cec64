package cluster

import (
	"errors"
	"testing"

	"github.com/thoughtflow/mindmap/internal/domain"
)

func TestPartition_TwoGroups(t *testing.T) {
	points := [][]float64{
		{0, 0},
		{0.1, 0},
		{10, 0},
		{10.1, 0},
	}

	labels, err := Partition(points, 2)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	expected := []int{0, 0, 1, 1}
	for i, want := range expected {
		if labels[i] != want {
			t.Errorf("labels = %v, expected %v", labels, expected)
			break
		}
	}
}

func TestPartition_LabelsOrderedBySmallestMember(t *testing.T) {
	// Point 0 sits in the spatially second group; its group must still
	// receive label 0.
	points := [][]float64{
		{10, 0},
		{0, 0},
		{10.1, 0},
		{0.1, 0},
	}

	labels, err := Partition(points, 2)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	expected := []int{0, 1, 0, 1}
	for i, want := range expected {
		if labels[i] != want {
			t.Errorf("labels = %v, expected %v", labels, expected)
			break
		}
	}
}

func TestPartition_Deterministic(t *testing.T) {
	points := [][]float64{
		{0, 0}, {1, 1}, {2, 0}, {10, 10}, {11, 11}, {12, 10}, {5, 5},
	}

	first, err := Partition(points, 3)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	for run := 0; run < 5; run++ {
		labels, err := Partition(points, 3)
		if err != nil {
			t.Fatalf("Partition failed on run %d: %v", run, err)
		}
		for i := range labels {
			if labels[i] != first[i] {
				t.Fatalf("run %d produced %v, first run produced %v", run, labels, first)
			}
		}
	}
}

func TestPartition_KEqualsN(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 0}, {2, 0}}

	labels, err := Partition(points, 3)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	for i, l := range labels {
		if l != i {
			t.Errorf("labels = %v, expected identity", labels)
			break
		}
	}
}

func TestPartition_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
		k      int
	}{
		{"k below two", [][]float64{{0}, {1}}, 1},
		{"fewer points than groups", [][]float64{{0}, {1}}, 3},
		{"all identical", [][]float64{{1, 2}, {1, 2}, {1, 2}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Partition(tt.points, tt.k)
			if !errors.Is(err, domain.ErrClusterDegenerate) {
				t.Errorf("expected ErrClusterDegenerate, got %v", err)
			}
		})
	}
}
