// Package oracle implements the Distance Oracle Adapter (spec §4.1): it
// consumes a location list and returns symmetric-by-convention distance and
// duration matrices, caching by a content hash of the coordinate sequence
// and falling back to great-circle distance whenever the upstream oracle
// fails. Grounded on original_source/src/utils/distance_calculator.py (the
// Radar-API client with pickle caching) and on the nextmv-sdk OSRM client's
// use of an in-memory LRU (github.com/hashicorp/golang-lru) layered in front
// of a slower backing store.
package oracle

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/groceryroute/tourplanner/internal/domain"
	"github.com/groceryroute/tourplanner/internal/geo"
)

var errNoClient = errors.New("no oracle client configured")

// Matrices is the pair this package produces.
type Matrices = domain.Matrices

// FallbackSpeedKmh is the constant speed used to synthesize a duration
// estimate alongside a great-circle distance fallback.
const FallbackSpeedKmh = 30.0

// Adapter is the Distance Oracle Adapter: in-memory LRU -> disk cache ->
// network client -> great-circle fallback, in that preference order.
type Adapter struct {
	client    Client
	disk      *diskCache
	memory    *lru.Cache
	log       *logrus.Logger
	lastFallback bool // set during the most recent Matrices call
}

// Config parameterizes the adapter's caching behavior, mirroring the
// `cache: {enabled, directory, ttl_hours}` section of the fleet/hub config
// document.
type Config struct {
	CacheEnabled   bool
	CacheDirectory string
	CacheTTLHours  int
	MemoryEntries  int
}

// New builds an Adapter. client may be nil, in which case every call falls
// back to great-circle distance (useful for tests and for offline runs).
func New(client Client, cfg Config, log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.New()
	}
	memEntries := cfg.MemoryEntries
	if memEntries <= 0 {
		memEntries = 32
	}
	memCache, _ := lru.New(memEntries)

	return &Adapter{
		client: client,
		disk:   newDiskCache(cfg.CacheDirectory, cfg.CacheTTLHours, cfg.CacheEnabled),
		memory: memCache,
		log:    log,
	}
}

// UsedFallback reports whether the most recent Matrices call fell back to
// great-circle distance (for surfacing the oracle-failure diagnostic).
func (a *Adapter) UsedFallback() bool { return a.lastFallback }

// Matrices returns the distance/duration matrices for locations, in the
// order given. It is a pure function of its input from the caller's
// perspective: any internal parallelism for network fetches is fully joined
// before this returns.
func (a *Adapter) Matrices(locations []domain.Location) Matrices {
	a.lastFallback = false

	points := make([]domain.Point, len(locations))
	for i, l := range locations {
		points[i] = l.Coordinates
	}
	key := cacheKey(points)

	if v, ok := a.memory.Get(key); ok {
		return v.(Matrices)
	}
	if m, ok := a.disk.load(key); ok {
		a.memory.Add(key, m)
		return m
	}

	m, err := a.fetch(points)
	if err != nil {
		a.log.WithError(err).Warn("distance oracle failed, falling back to great-circle distance")
		a.lastFallback = true
		m = a.greatCircleMatrices(points)
	}

	a.memory.Add(key, m)
	if err := a.disk.save(key, m); err != nil {
		a.log.WithError(err).Warn("failed to persist distance matrix cache entry")
	}
	return m
}

func (a *Adapter) fetch(points []domain.Point) (Matrices, error) {
	if a.client == nil {
		return Matrices{}, errNoClient
	}
	distance, duration, err := a.client.Table(context.Background(), points)
	if err != nil {
		return Matrices{}, err
	}
	return Matrices{Distance: distance, Duration: duration}, nil
}

// greatCircleMatrices computes a dense Haversine-distance matrix and a
// constant-speed duration estimate, used whenever the network oracle is
// unavailable for any reason.
func (a *Adapter) greatCircleMatrices(points []domain.Point) Matrices {
	n := len(points)
	distance := domain.NewMatrix(n)
	duration := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := geo.HaversineKm(points[i].Lat, points[i].Lng, points[j].Lat, points[j].Lng)
			distance[i][j] = d
			duration[i][j] = geo.ConstantSpeedMinutes(d, FallbackSpeedKmh)
		}
	}
	return Matrices{Distance: distance, Duration: duration}
}
