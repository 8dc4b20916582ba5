package intel

import (
	"context"

	"github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/httputil"
)

// Provider supplies the current illicit-address flags for a set of
// addresses. Implementations must be side-effect free with respect to the
// engine: the returned flags are consumed read-only.
type Provider interface {
	Check(ctx context.Context, addresses []string) ([]Flag, error)
}

// =============================================================================
// Static Provider
// =============================================================================

// StaticProvider serves a fixed flag list, for tests and offline usage.
type StaticProvider struct {
	flags []Flag
}

// NewStaticProvider creates a provider over a fixed flag list.
func NewStaticProvider(flags []Flag) *StaticProvider {
	return &StaticProvider{flags: flags}
}

// Check returns the subset of flags matching the requested addresses.
func (p *StaticProvider) Check(ctx context.Context, addresses []string) ([]Flag, error) {
	want := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		want[a] = true
	}
	var out []Flag
	for _, f := range p.flags {
		if want[f.Address] {
			out = append(out, f)
		}
	}
	return out, nil
}

var _ Provider = (*StaticProvider)(nil)

// =============================================================================
// HTTP Provider
// =============================================================================

// HTTPProvider checks addresses against the threat-intelligence service.
type HTTPProvider struct {
	baseURL string
	http    *httputil.Client
}

// NewHTTPProvider creates a provider against the given service base URL.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{baseURL: baseURL, http: httputil.NewClient(nil)}
}

type checkRequest struct {
	Addresses []string `json:"addresses"`
}

type checkResponse struct {
	Success bool `json:"success"`
	Data    struct {
		IllicitAddresses []Flag `json:"illicit_addresses"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Check queries the service for flags on the given addresses. An empty
// result is normal; only transport or service failures are errors.
func (p *HTTPProvider) Check(ctx context.Context, addresses []string) ([]Flag, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	var resp checkResponse
	err := httputil.RetryWithBackoff(ctx, func() error {
		resp = checkResponse{}
		return p.http.PostJSON(ctx, p.baseURL+"/api/threat-intelligence/check-graph", checkRequest{Addresses: addresses}, &resp)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "threat-intel service unreachable")
	}
	if !resp.Success {
		return nil, errors.New(errors.ErrCodeNetwork, "threat-intel service failed: %s", resp.Error)
	}
	return resp.Data.IllicitAddresses, nil
}

var _ Provider = (*HTTPProvider)(nil)
