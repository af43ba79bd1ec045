package fetch

import (
	"fmt"
	mathrand "math/rand"
	"net/http"
	"time"

	"sjsage522/productworker/helpers"
	"sjsage522/productworker/logger"
	"sjsage522/productworker/pkg/errors"
	"sjsage522/productworker/services/cache"
)

// SiteProfile describes per-site request behavior: fixed headers, the
// age-verification cookie, and an optional age-gate landing page that must
// be visited once before real requests are accepted.
type SiteProfile struct {
	Name       string
	UserAgent  string
	Headers    map[string]string
	Cookies    []*http.Cookie
	AgeGateURL string
}

// Fetcher issues polite HTTP requests for one site: a fixed base delay plus
// random jitter before every request, bounded retry on transport errors and
// 5xx, and a block key in the cache when the site rate-limits us.
type Fetcher struct {
	Profile     SiteProfile
	BaseDelay   time.Duration
	Jitter      time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	BlockTime   time.Duration
	CacheSvc    cache.CacheService

	ageGateDone bool
	rnd         *mathrand.Rand
	sleep       func(time.Duration)
	log         *logger.Logger
}

// New creates a fetcher for a site profile
func New(profile SiteProfile, baseDelay, jitter time.Duration, maxAttempts int, retryDelay time.Duration, cacheSvc cache.CacheService) *Fetcher {
	return &Fetcher{
		Profile:     profile,
		BaseDelay:   baseDelay,
		Jitter:      jitter,
		MaxAttempts: maxAttempts,
		RetryDelay:  retryDelay,
		BlockTime:   5 * time.Minute,
		CacheSvc:    cacheSvc,
		rnd:         mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		sleep:       time.Sleep,
	}
}

func (f *Fetcher) blockKey() string {
	return f.Profile.Name + "_rate_limited"
}

// headers merges the profile's fixed headers with the User-Agent
func (f *Fetcher) headers() map[string]string {
	h := map[string]string{
		"User-Agent":      f.Profile.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7",
	}
	for k, v := range f.Profile.Headers {
		h[k] = v
	}
	return h
}

// politeWait sleeps base + random(jitter) before a request. This bounds the
// aggregate request rate to the site independent of retry backoff.
func (f *Fetcher) politeWait() {
	delay := f.BaseDelay
	if f.Jitter > 0 {
		delay += time.Duration(f.rnd.Int63n(int64(f.Jitter)))
	}
	f.sleep(delay)
}

// passAgeGate visits the site's age-check landing page once per run. The
// response is discarded; the point is to look like a browser that clicked
// through before hitting detail pages directly.
func (f *Fetcher) passAgeGate() {
	if f.ageGateDone || f.Profile.AgeGateURL == "" {
		return
	}
	f.ageGateDone = true

	f.politeWait()
	if _, err := helpers.Fetch(f.Profile.AgeGateURL, f.headers(), f.Profile.Cookies); err != nil {
		f.logger().Warn().Err(err).Msg("Age gate visit failed, continuing anyway")
	}
}

// Get fetches a URL for this site. It returns a normal Response for any
// HTTP status; only exhausted transport/5xx retries surface as an error.
func (f *Fetcher) Get(url string) (*helpers.Response, error) {
	if f.CacheSvc != nil {
		if _, err := f.CacheSvc.Get(f.blockKey()); err == nil {
			return nil, errors.NewNetwork(f.Profile.Name,
				fmt.Sprintf("blocked for %s after earlier rate limiting", f.BlockTime), nil)
		}
	}

	f.passAgeGate()
	f.politeWait()

	resp, err := helpers.FetchWithRetry(url, f.headers(), f.Profile.Cookies, f.MaxAttempts, f.RetryDelay)
	if err != nil {
		return nil, errors.NewNetwork(f.Profile.Name, "fetch failed", err)
	}

	if resp.Status == http.StatusTooManyRequests && f.CacheSvc != nil {
		f.CacheSvc.Set(f.blockKey(), []byte("1"), f.BlockTime)
	}

	return resp, nil
}

func (f *Fetcher) logger() *logger.Logger {
	if f.log == nil {
		f.log = logger.ForSource(f.Profile.Name)
	}
	return f.log
}
