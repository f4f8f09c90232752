// README: HTTP client for the user mobility pass service (retries and timeout live here).
package usersummary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	ierr "mobility-pricing/internal/errors"
	"mobility-pricing/internal/logger"
)

type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
}

func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = 500 * time.Millisecond
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}
	if log != nil {
		rc.Logger = retryablehttp.LeveledLogger(leveled{log})
	} else {
		rc.Logger = nil
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), http: rc}
}

// GetSummary fetches the summary for a user. Any transport error, non-200 status or
// undecodable body is returned marked as ErrDependency.
func (c *Client) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	endpoint := fmt.Sprintf("%s/api/users/summary/%s", c.baseURL, url.PathEscape(userID))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("build summary request").Mark(ierr.ErrDependency)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ierr.WithError(err).WithMessagef("user summary %s", userID).Mark(ierr.ErrDependency)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, ierr.NewError(fmt.Sprintf("user summary status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))).
			Mark(ierr.ErrDependency)
	}

	var s Summary
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, ierr.WithError(err).WithMessage("decode user summary").Mark(ierr.ErrDependency)
	}
	return &s, nil
}

// leveled adapts the zap logger to retryablehttp.LeveledLogger.
type leveled struct {
	log *logger.Logger
}

func (l leveled) Error(msg string, kv ...interface{}) { l.log.Errorw(msg, kv...) }
func (l leveled) Info(msg string, kv ...interface{})  { l.log.Debugw(msg, kv...) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.log.Debugw(msg, kv...) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.log.Warnw(msg, kv...) }
