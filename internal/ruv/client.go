package ruv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jofsarpur/internal/logging"
	"jofsarpur/internal/services"
)

const (
	defaultBaseURL      = "https://www.ruv.is/gql/"
	defaultHTTPTimeout  = 30 * time.Second
	defaultMaxAttempts  = 10
	defaultRetryBackoff = time.Second

	referer = "https://www.ruv.is/sjonvarp"
	origin  = "https://www.ruv.is"

	seriesOperation = "getEpisode"
	seriesQueryHash = "f3f957a3a577be001eccf93a76cf2ae1b6d10c95e67305c56e4273279115bb93"
	streamOperation = "getProgramType"
	streamQueryHash = "9d18a07f82fcd469ad52c0656f47fb8e711dc2436983b53754e0c09bad61ca29"

	// FirstRunLayout is the layout of the "firstrun" broadcast timestamp.
	FirstRunLayout = "2006-01-02 15:04:05"
)

// Config describes the client configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// MaxAttempts bounds how often one query is tried. 0 retries forever.
	MaxAttempts  int
	RetryBackoff time.Duration
	Logger       *slog.Logger
}

// Client fetches programme metadata.
type Client struct {
	baseURL      *url.URL
	http         *http.Client
	maxAttempts  int
	retryBackoff time.Duration
	logger       *slog.Logger
}

// Episode is one broadcast of a programme.
type Episode struct {
	ID    string
	Title string
	// FirstRun is the first broadcast time; zero when the API omits it or
	// sends an unparseable value.
	FirstRun time.Time
}

// Series is a programme and its currently available episodes, in the order
// the API lists them.
type Series struct {
	ID       string
	Title    string
	Episodes []Episode
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("ruv: parse base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	attempts := cfg.MaxAttempts
	if attempts < 0 {
		attempts = defaultMaxAttempts
	}
	backoff := cfg.RetryBackoff
	if backoff < 0 {
		backoff = defaultRetryBackoff
	}
	return &Client{
		baseURL:      baseURL,
		http:         client,
		maxAttempts:  attempts,
		retryBackoff: backoff,
		logger:       logging.NewComponentLogger(cfg.Logger, "ruv"),
	}, nil
}

type programResponse struct {
	Data *struct {
		Program *struct {
			Title    string `json:"title"`
			Episodes []struct {
				ID       string `json:"id"`
				Title    string `json:"title"`
				FirstRun string `json:"firstrun"`
				File     string `json:"file"`
			} `json:"episodes"`
		} `json:"Program"`
	} `json:"data"`
}

// Series returns the programme with its episode listing.
func (c *Client) Series(ctx context.Context, seriesID string) (*Series, error) {
	programID, err := strconv.ParseUint(seriesID, 10, 64)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ruv", "series", fmt.Sprintf("programme id %q is not numeric", seriesID), err)
	}
	variables := map[string]any{"programID": programID}

	payload, err := c.query(ctx, seriesOperation, seriesQueryHash, variables)
	if err != nil {
		return nil, err
	}
	program := payload.Data.Program
	if program == nil {
		return nil, services.Wrap(services.ErrMetadataFetch, "ruv", "series", "programme "+seriesID, services.ErrNotFound)
	}

	series := &Series{ID: seriesID, Title: strings.TrimSpace(program.Title)}
	for _, raw := range program.Episodes {
		episode := Episode{ID: raw.ID, Title: strings.TrimSpace(raw.Title)}
		if raw.FirstRun != "" {
			firstRun, err := time.ParseInLocation(FirstRunLayout, raw.FirstRun, time.UTC)
			if err != nil {
				c.logger.Debug("unparseable first broadcast time",
					logging.Series(seriesID),
					logging.Episode(raw.ID),
					logging.String("firstrun", raw.FirstRun),
				)
			} else {
				episode.FirstRun = firstRun
			}
		}
		series.Episodes = append(series.Episodes, episode)
	}
	return series, nil
}

// StreamURL returns the stream location of one episode.
func (c *Client) StreamURL(ctx context.Context, seriesID, episodeID string) (string, error) {
	programID, err := strconv.ParseUint(seriesID, 10, 64)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "ruv", "stream", fmt.Sprintf("programme id %q is not numeric", seriesID), err)
	}
	variables := map[string]any{"id": programID, "episodeId": []string{episodeID}}

	payload, err := c.query(ctx, streamOperation, streamQueryHash, variables)
	if err != nil {
		return "", err
	}
	program := payload.Data.Program
	if program == nil || len(program.Episodes) == 0 {
		return "", services.Wrap(services.ErrMetadataFetch, "ruv", "stream", "episode "+seriesID+":"+episodeID, services.ErrNotFound)
	}
	file := strings.TrimSpace(program.Episodes[0].File)
	if file == "" {
		return "", services.Wrap(services.ErrMetadataFetch, "ruv", "stream", "episode "+seriesID+":"+episodeID+" has no stream", services.ErrNotFound)
	}
	return file, nil
}

// query runs a persisted query until it returns a "data" object or the
// attempt budget is spent.
func (c *Client) query(ctx context.Context, operation, hash string, variables map[string]any) (*programResponse, error) {
	endpoint, err := c.endpoint(operation, hash, variables)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; c.maxAttempts == 0 || attempt <= c.maxAttempts; attempt++ {
		payload, err := c.fetch(ctx, endpoint)
		if err == nil {
			return payload, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}
		c.logger.Debug("metadata query failed, retrying",
			logging.String("operation", operation),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", c.retryBackoff),
			logging.Error(err),
		)
		if err := sleepWithContext(ctx, c.retryBackoff); err != nil {
			return nil, err
		}
	}
	return nil, services.Wrap(services.ErrMetadataFetch, "ruv", operation,
		fmt.Sprintf("gave up after %d attempts", c.maxAttempts), lastErr)
}

func (c *Client) endpoint(operation, hash string, variables map[string]any) (string, error) {
	encodedVars, err := json.Marshal(variables)
	if err != nil {
		return "", fmt.Errorf("ruv: encode variables: %w", err)
	}
	extensions, err := json.Marshal(map[string]any{
		"persistedQuery": map[string]any{"version": 1, "sha256Hash": hash},
	})
	if err != nil {
		return "", fmt.Errorf("ruv: encode extensions: %w", err)
	}
	params := url.Values{}
	params.Set("operationName", operation)
	params.Set("variables", string(encodedVars))
	params.Set("extensions", string(extensions))

	endpoint := *c.baseURL
	endpoint.RawQuery = params.Encode()
	return endpoint.String(), nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*programResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", referer)
	req.Header.Set("Origin", origin)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload programResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Data == nil {
		return nil, errors.New("response carries no data object")
	}
	return &payload, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
