package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/groceryroute/tourplanner/internal/domain"
)

// Client is the external routing-service collaborator: given an ordered
// list of points it returns a dense distance (km) and duration (minute)
// table. Implementations are treated purely through the data they return;
// the HTTP shape below is one concrete oracle among many a deployment could
// plug in.
type Client interface {
	Table(ctx context.Context, points []domain.Point) (distance, duration domain.Matrix, err error)
}

// maxParallelFetches bounds the worker pool used to fetch batched O/D pairs,
// per the concurrency model: "bounded worker pool, e.g., <=5".
const maxParallelFetches = 5

// HTTPClient calls a table endpoint on a road-network routing service (e.g.
// an OSRM-compatible server) in row batches, fanning the batches out across
// a small worker pool and joining before returning.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
	BatchSize  int
}

// NewHTTPClient builds an HTTPClient with sane defaults.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BatchSize:  200,
	}
}

type tableResponse struct {
	Distances [][]float64 `json:"distances"` // meters
	Durations [][]float64 `json:"durations"` // seconds
}

// Table implements Client by issuing one request per row batch against
// BaseURL/table, bounded to maxParallelFetches concurrent requests, and
// assembling the results into a single dense matrix pair.
func (c *HTTPClient) Table(ctx context.Context, points []domain.Point) (domain.Matrix, domain.Matrix, error) {
	n := len(points)
	distance := domain.NewMatrix(n)
	duration := domain.NewMatrix(n)

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = n
	}
	if batchSize == 0 {
		return distance, duration, nil
	}

	type batch struct{ start, end int }
	var batches []batch
	for i := 0; i < n; i += batchSize {
		end := i + batchSize
		if end > n {
			end = n
		}
		batches = append(batches, batch{i, end})
	}

	sem := make(chan struct{}, maxParallelFetches)
	var wg sync.WaitGroup
	errs := make(chan error, len(batches))

	for _, b := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(b batch) {
			defer wg.Done()
			defer func() { <-sem }()

			resp, err := c.fetchRows(ctx, points, b.start, b.end)
			if err != nil {
				errs <- err
				return
			}
			for ri, row := range resp.Distances {
				for ci, metersVal := range row {
					distance[b.start+ri][ci] = metersVal / 1000.0
				}
			}
			for ri, row := range resp.Durations {
				for ci, secondsVal := range row {
					duration[b.start+ri][ci] = secondsVal / 60.0
				}
			}
		}(b)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}

	return distance, duration, nil
}

func (c *HTTPClient) fetchRows(ctx context.Context, points []domain.Point, start, end int) (tableResponse, error) {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
	}
	sources := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		sources = append(sources, strconv.Itoa(i))
	}

	url := fmt.Sprintf("%s/table/v1/driving/%s?sources=%s&annotations=distance,duration",
		c.BaseURL, strings.Join(coords, ";"), strings.Join(sources, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return tableResponse{}, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return tableResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return tableResponse{}, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var out tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return tableResponse{}, fmt.Errorf("malformed oracle response: %w", err)
	}
	return out, nil
}
