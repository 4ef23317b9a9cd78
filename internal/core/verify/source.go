package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agenthands/sentinel/internal/model"
)

// Signal is an environmental hazard reading independent of the post text.
type Signal struct {
	Severity float64 `json:"severity"`
	Source   string  `json:"source"`
}

// SignalSource fetches a hazard signal for coordinates. coords is nil when the
// post has no location, in which case a location-agnostic baseline is expected.
type SignalSource interface {
	Fetch(ctx context.Context, coords *model.Coordinates) (Signal, error)
}

// StaticSource always returns the same reading. It backs deployments without a
// hazard feed and tests.
type StaticSource struct {
	Value Signal
}

func (s StaticSource) Fetch(ctx context.Context, coords *model.Coordinates) (Signal, error) {
	return s.Value, nil
}

// HTTPSource queries a JSON endpoint: GET {base}?lat=..&lon=.. returning {"severity": x, "source": "..."}.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &HTTPSource{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout, Transport: tr},
	}
}

func (h *HTTPSource) Fetch(ctx context.Context, coords *model.Coordinates) (Signal, error) {
	u, err := url.Parse(h.BaseURL)
	if err != nil {
		return Signal{}, fmt.Errorf("signal url: %w", err)
	}
	if coords != nil {
		q := u.Query()
		q.Set("lat", strconv.FormatFloat(coords.Lat, 'f', 4, 64))
		q.Set("lon", strconv.FormatFloat(coords.Lon, 'f', 4, 64))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Signal{}, fmt.Errorf("signal request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return Signal{}, fmt.Errorf("signal fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Signal{}, fmt.Errorf("signal fetch: HTTP %d", resp.StatusCode)
	}

	var sig Signal
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&sig); err != nil {
		return Signal{}, fmt.Errorf("signal decode: %w", err)
	}
	if sig.Severity < 0 || sig.Severity > 1 {
		return Signal{}, errors.New("signal severity out of range")
	}
	if sig.Source == "" {
		sig.Source = u.Host
	}
	return sig, nil
}
