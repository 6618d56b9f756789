// Package cluster implements the Time-Window Clusterer (spec §4.4): it
// splits one source's order set into temporal phases separated by idle
// gaps. Grounded on
// original_source/src/utils/time_window_clustering.py.
package cluster

import (
	"fmt"
	"sort"

	"github.com/groceryroute/tourplanner/internal/domain"
)

// Cluster is one temporal phase of a source's order set.
type Cluster struct {
	ID            int
	Orders        []domain.Order
	EarliestStart int
	LatestEnd     int
}

func (c Cluster) String() string {
	return fmt.Sprintf("Cluster(%d, %d orders, %02d:%02d-%02d:%02d)",
		c.ID, len(c.Orders), c.EarliestStart/60, c.EarliestStart%60, c.LatestEnd/60, c.LatestEnd%60)
}

// Config parameterizes the clusterer.
type Config struct {
	GapThresholdMinutes int
	MinClusterSize      int
}

// Run groups orders into chronological phases. Orders are sorted by window
// start; a new cluster begins whenever the gap to the running maximum
// window end exceeds GapThresholdMinutes. Clusters smaller than
// MinClusterSize are merged into their chronological predecessor (or, for
// the first cluster, into the successor).
func Run(orders []domain.Order, cfg Config) []Cluster {
	return run(orders, cfg)
}

func run(orders []domain.Order, cfg Config) []Cluster {
	if len(orders) == 0 {
		return nil
	}

	sorted := make([]domain.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Window.Start < sorted[j].Window.Start
	})

	var clusters []Cluster
	current := []domain.Order{sorted[0]}
	currentEnd := sorted[0].Window.End

	for _, o := range sorted[1:] {
		gap := o.Window.Start - currentEnd
		if gap > cfg.GapThresholdMinutes {
			clusters = append(clusters, makeCluster(len(clusters), current))
			current = []domain.Order{o}
			currentEnd = o.Window.End
			continue
		}
		current = append(current, o)
		if o.Window.End > currentEnd {
			currentEnd = o.Window.End
		}
	}
	clusters = append(clusters, makeCluster(len(clusters), current))

	clusters = mergeSmall(clusters, cfg.MinClusterSize)

	for i := range clusters {
		clusters[i].ID = i
	}
	return clusters
}

func makeCluster(id int, orders []domain.Order) Cluster {
	start, end := orders[0].Window.Start, orders[0].Window.End
	for _, o := range orders[1:] {
		if o.Window.Start < start {
			start = o.Window.Start
		}
		if o.Window.End > end {
			end = o.Window.End
		}
	}
	return Cluster{ID: id, Orders: orders, EarliestStart: start, LatestEnd: end}
}

func mergeSmall(clusters []Cluster, minSize int) []Cluster {
	if len(clusters) <= 1 {
		return clusters
	}

	var result []Cluster
	for _, c := range clusters {
		if len(c.Orders) < minSize && len(result) > 0 {
			prev := result[len(result)-1]
			merged := append(append([]domain.Order{}, prev.Orders...), c.Orders...)
			result[len(result)-1] = makeCluster(prev.ID, merged)
			continue
		}
		result = append(result, c)
	}

	if len(result) > 1 && len(result[0].Orders) < minSize {
		merged := append(append([]domain.Order{}, result[0].Orders...), result[1].Orders...)
		result[1] = makeCluster(0, merged)
		result = result[1:]
	}

	return result
}
