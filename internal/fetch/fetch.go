// Package fetch downloads web pages the bot is asked to learn from.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iamwavecut/tool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iamwavecut/shrek-bot/internal/html"
	"github.com/iamwavecut/shrek-bot/resources/consts"
)

var (
	ErrInvalidURL  = errors.New("invalid url")
	ErrStatus      = errors.New("unexpected status")
	ErrContentType = errors.New("unsupported content type")

	// errPermanent marks failures another attempt cannot fix.
	errPermanent = errors.New("permanent")
)

type Fetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxBytes   int64
	attempts   int
	retryDelay time.Duration
}

func New() *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: consts.DurationFetchTimeout},
		limiter:    rate.NewLimiter(rate.Every(consts.MinTimeBetweenRequests), 1),
		maxBytes:   consts.IntMaxPageBytes,
		attempts:   consts.IntRetryAttempts,
		retryDelay: consts.DurationRetryRequest,
	}
}

// Text downloads rawURL and returns its readable text.
func (f *Fetcher) Text(ctx context.Context, rawURL string) (string, error) {
	target, err := normalize(rawURL)
	if err != nil {
		return "", err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var (
		text      string
		permanent error
	)
	err = tool.RetryFunc(f.attempts, f.retryDelay, func() error {
		var err error
		text, err = f.get(ctx, target)
		if err != nil {
			log.WithError(err).WithField("url", target).Warnln("fetch failed")
		}
		if errors.Is(err, errPermanent) {
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		return "", permanent
	}
	return text, err
}

func (f *Fetcher) get(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %w: %s", ErrStatus, errPermanent, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	body := io.LimitReader(resp.Body, f.maxBytes)
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return html.Text(body)
	case strings.HasPrefix(mediaType, "text/"):
		data, err := io.ReadAll(body)
		return string(data), err
	}
	return "", fmt.Errorf("%w: %w: %s", ErrContentType, errPermanent, mediaType)
}

// normalize accepts bare hosts and the <url> or <url|label> forms chat
// clients wrap links in.
func normalize(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	rawURL = strings.TrimSuffix(strings.TrimPrefix(rawURL, "<"), ">")
	if i := strings.Index(rawURL, "|"); i >= 0 {
		rawURL = rawURL[:i]
	}
	if rawURL == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return u.String(), nil
}
