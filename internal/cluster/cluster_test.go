package cluster

import (
	"testing"

	"github.com/groceryroute/tourplanner/internal/domain"
)

func order(id string, start, end int) domain.Order {
	return domain.Order{
		ID:     id,
		Kind:   domain.RealDelivery,
		Window: domain.TimeWindow{Start: start, End: end},
	}
}

func TestRun_SplitsOnLargeGap(t *testing.T) {
	orders := []domain.Order{
		order("a", 480, 540),
		order("b", 500, 560),
		order("c", 900, 960),
	}
	clusters := Run(orders, Config{GapThresholdMinutes: 60, MinClusterSize: 1})
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if len(clusters[0].Orders) != 2 {
		t.Fatalf("expected first cluster to hold 2 orders, got %d", len(clusters[0].Orders))
	}
	if len(clusters[1].Orders) != 1 {
		t.Fatalf("expected second cluster to hold 1 order, got %d", len(clusters[1].Orders))
	}
}

func TestRun_MergesSmallClusterIntoPredecessor(t *testing.T) {
	orders := []domain.Order{
		order("a", 480, 540),
		order("b", 500, 560),
		order("c", 900, 910),
	}
	clusters := Run(orders, Config{GapThresholdMinutes: 60, MinClusterSize: 2})
	if len(clusters) != 1 {
		t.Fatalf("expected the undersized trailing cluster to merge, got %d clusters", len(clusters))
	}
	if len(clusters[0].Orders) != 3 {
		t.Fatalf("expected merged cluster to hold all 3 orders, got %d", len(clusters[0].Orders))
	}
}

func TestRun_MergesSmallLeadingClusterIntoSuccessor(t *testing.T) {
	orders := []domain.Order{
		order("a", 480, 490),
		order("b", 900, 910),
		order("c", 905, 960),
	}
	clusters := Run(orders, Config{GapThresholdMinutes: 60, MinClusterSize: 2})
	if len(clusters) != 1 {
		t.Fatalf("expected the undersized leading cluster to merge, got %d clusters", len(clusters))
	}
}

func TestRun_RenumbersContiguously(t *testing.T) {
	orders := []domain.Order{
		order("a", 480, 490),
		order("b", 900, 910),
		order("c", 1400, 1410),
	}
	clusters := Run(orders, Config{GapThresholdMinutes: 60, MinClusterSize: 1})
	for i, c := range clusters {
		if c.ID != i {
			t.Fatalf("expected cluster %d to have ID %d, got %d", i, i, c.ID)
		}
	}
}

func TestRun_Empty(t *testing.T) {
	if got := Run(nil, Config{}); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
