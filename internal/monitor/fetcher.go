package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
)

// FetchResult is the outcome of polling a single host.
// Exactly one of Status and Err is set.
type FetchResult struct {
	Host    string
	Status  *HostStatus
	Err     error
	Latency time.Duration
}

// OK reports whether the host returned a usable status.
func (r FetchResult) OK() bool {
	return r.Err == nil && r.Status != nil
}

// Fetcher polls every configured host for its GPU status.
type Fetcher struct {
	endpoints config.EndpointConfig
	client    *http.Client
	log       logger.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the client used for status requests.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout bounds each status request. Zero leaves the client untouched.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			c := *f.client
			c.Timeout = d
			f.client = &c
		}
	}
}

// WithFetchLogger sets the diagnostic logger for dropped hosts.
func WithFetchLogger(l logger.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFetcher creates a fetcher for the given endpoints.
func NewFetcher(endpoints config.EndpointConfig, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		endpoints: endpoints,
		client:    &http.Client{},
		log:       logger.NewEnvLogger("[fetch]"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Hosts returns the hosts this fetcher polls, in config order.
func (f *Fetcher) Hosts() []string {
	return f.endpoints.Hosts()
}

// FetchResults polls all hosts in parallel and returns one result per host
// in config order. It returns only after every request has finished.
func (f *Fetcher) FetchResults(ctx context.Context) []FetchResult {
	hosts := f.endpoints.Hosts()
	results := make([]FetchResult, len(hosts))

	var wg sync.WaitGroup
	for i, host := range hosts {
		wg.Add(1)
		go func(i int, host string) {
			defer wg.Done()

			start := time.Now()
			status, err := f.fetchOne(ctx, host)
			results[i] = FetchResult{
				Host:    host,
				Status:  status,
				Err:     err,
				Latency: time.Since(start),
			}
		}(i, host)
	}

	wg.Wait()
	return results
}

// FetchAll polls all hosts and returns the statuses that were retrieved.
// Hosts that fail for any reason are left out.
func (f *Fetcher) FetchAll(ctx context.Context) []HostStatus {
	results := f.FetchResults(ctx)
	statuses := make([]HostStatus, 0, len(results))
	for _, r := range results {
		if !r.OK() {
			f.log.Debug("dropping %s: %s", r.Host, describe(r.Err))
			continue
		}
		statuses = append(statuses, *r.Status)
	}
	return statuses
}

// fetchOne performs a single status request.
func (f *Fetcher) fetchOne(ctx context.Context, host string) (*HostStatus, error) {
	target, err := statusURL(f.endpoints, host)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrFetch,
			"Can't build request for "+host, "")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrFetch,
			"Request to "+host+" failed", "")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, errors.New(errors.ErrFetch,
			fmt.Sprintf("%s answered with status %d", host, resp.StatusCode), "")
	}

	status, err := DecodeStatus(resp.Body)
	if err != nil {
		return nil, err
	}

	status.SourceAddress = host
	if status.Hostname == "" {
		status.Hostname = host
	}
	return status, nil
}

// statusURL builds and checks the status URL for a host.
func statusURL(endpoints config.EndpointConfig, host string) (string, error) {
	raw := endpoints.URL(host)
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrFetch,
			fmt.Sprintf("Malformed host '%s'", host), "")
	}
	if u.Hostname() == "" {
		return "", errors.New(errors.ErrFetch,
			fmt.Sprintf("Malformed host '%s'", host), "")
	}
	return u.String(), nil
}

func describe(err error) string {
	if err == nil {
		return "empty response"
	}
	if e, ok := err.(*errors.Error); ok {
		return e.Short()
	}
	return err.Error()
}
