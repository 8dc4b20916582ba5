package community

import (
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"

	"github.com/chainbreak/chainview/pkg/cache"
	"github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/graph"
	"github.com/chainbreak/chainview/pkg/httputil"
)

// DefaultResolution is the Louvain resolution parameter used when the
// caller does not override it.
const DefaultResolution = 1.0

// Params tunes one detection request.
type Params struct {
	Resolution float64 `json:"resolution"`
}

// Client requests community partitions from the detection service.
type Client struct {
	baseURL string
	http    *httputil.Client
	cache   cache.Cache
	logger  *log.Logger
}

// NewClient creates a detection client. cache may be nil to disable result
// caching; logger may be nil for a silent client.
func NewClient(baseURL string, c cache.Cache, logger *log.Logger) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Client{
		baseURL: baseURL,
		http:    httputil.NewClient(nil),
		cache:   c,
		logger:  logger,
	}
}

// Wire types matching the detection service's contract.
type requestNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"type"`
}

type requestEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

type detectRequest struct {
	Nodes      []requestNode `json:"nodes"`
	Edges      []requestEdge `json:"edges"`
	Resolution float64       `json:"resolution"`
}

type detectResponse struct {
	Success bool       `json:"success"`
	Data    *Partition `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Detect runs community detection over the model and returns the validated
// partition. On any failure - network, service error, malformed response -
// it returns a COMMUNITY_DETECTION error and no partial result, so existing
// coloring is never disturbed.
//
// Detection never blocks the simulation: the session issues Detect on its
// own goroutine and merges the result on the next turn of its loop.
func (c *Client) Detect(ctx context.Context, model *graph.Model, params Params) (*Partition, error) {
	if params.Resolution <= 0 {
		params.Resolution = DefaultResolution
	}

	req := buildRequest(model, params)
	key, cacheable := c.requestKey(req)
	if cacheable {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			var p Partition
			if err := json.Unmarshal(data, &p); err == nil {
				c.logger.Debug("detection cache hit", "communities", p.Count)
				return &p, nil
			}
		}
	}

	var resp detectResponse
	err := httputil.RetryWithBackoff(ctx, func() error {
		resp = detectResponse{}
		return c.http.PostJSON(ctx, c.baseURL+"/api/louvain", req, &resp)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCommunityDetection, err, "detection service unreachable")
	}
	if !resp.Success {
		return nil, errors.New(errors.ErrCodeCommunityDetection, "detection service failed: %s", resp.Error)
	}

	p, err := validate(resp.Data)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if data, err := json.Marshal(p); err == nil {
			_ = c.cache.Set(ctx, key, data, cache.TTLDetection)
		}
	}
	c.logger.Info("community detection complete",
		"communities", p.Count,
		"modularity", p.Modularity,
		"quality", p.Quality())
	return p, nil
}

// buildRequest projects the model into the service's wire shape.
func buildRequest(model *graph.Model, params Params) detectRequest {
	req := detectRequest{Resolution: params.Resolution}
	for _, n := range model.Nodes() {
		req.Nodes = append(req.Nodes, requestNode{ID: n.ID, Label: n.DisplayLabel(), Kind: n.Kind})
	}
	for _, e := range model.Edges() {
		req.Edges = append(req.Edges, requestEdge{Source: e.Source, Target: e.Target, Value: e.Weight})
	}
	return req
}

// requestKey derives the cache key for a request. The model's node order is
// deterministic, so identical payloads hash identically.
func (c *Client) requestKey(req detectRequest) (string, bool) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", false
	}
	return cache.DetectionKey(cache.Hash(data), req.Resolution), true
}

// validate checks the partition for structural sanity. Nodes missing from
// the assignment are tolerated (they keep their prior color downstream);
// an absent or empty assignment is malformed.
func validate(p *Partition) (*Partition, error) {
	if p == nil || len(p.Communities) == 0 {
		return nil, errors.New(errors.ErrCodeCommunityDetection, "response contains no partition")
	}
	for id, idx := range p.Communities {
		if idx < 0 {
			return nil, errors.New(errors.ErrCodeCommunityDetection, "negative community index for node %s", id)
		}
	}
	if p.Count <= 0 {
		distinct := make(map[int]struct{})
		for _, idx := range p.Communities {
			distinct[idx] = struct{}{}
		}
		p.Count = len(distinct)
	}
	if p.Modularity < -1 || p.Modularity > 1 {
		return nil, errors.New(errors.ErrCodeCommunityDetection, "modularity %v out of range", p.Modularity)
	}
	return p, nil
}
