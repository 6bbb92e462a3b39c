package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

const nominatimURL = "https://nominatim.openstreetmap.org/search"

var (
	ErrNoResults     = errors.New("no geocoding results")
	ErrOutsideBrazil = errors.New("coordinates outside Brazil")
)

// BrazilBound is a generous bounding box around the Brazilian territory.
var BrazilBound = orb.Bound{Min: orb.Point{-74.0, -34.0}, Max: orb.Point{-34.7, 5.3}}

// Address is what the geocoder needs to locate a property.
type Address struct {
	Street     string
	Number     string
	PostalCode string
	City       string
	State      string
}

func (a Address) query() string {
	parts := make([]string, 0, 5)
	street := strings.TrimSpace(strings.TrimSpace(a.Street) + " " + strings.TrimSpace(a.Number))
	for _, p := range []string{street, a.PostalCode, a.City, a.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, "Brasil")
	return strings.Join(parts, ", ")
}

func (a Address) cacheKey() string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s|%s|%s", a.Street, a.Number, a.PostalCode, a.City, a.State))
}

type Geocoder struct {
	logger      *logrus.Logger
	cacheDir    string
	cache       map[string]orb.Point
	cacheLock   sync.RWMutex
	client      *http.Client
	baseURL     string
	userAgent   string
	minInterval time.Duration

	rateLock sync.Mutex
	lastCall time.Time
}

// Option customizes a Geocoder.
type Option func(*Geocoder)

// WithBaseURL points the geocoder at another Nominatim-compatible endpoint.
func WithBaseURL(u string) Option {
	return func(g *Geocoder) { g.baseURL = u }
}

// WithMinInterval sets the minimum delay between two remote lookups.
func WithMinInterval(d time.Duration) Option {
	return func(g *Geocoder) { g.minInterval = d }
}

func WithUserAgent(ua string) Option {
	return func(g *Geocoder) { g.userAgent = ua }
}

// NewGeocoder creates a Nominatim geocoder with an on-disk cache in cacheDir.
// An empty cacheDir keeps the cache in memory only.
func NewGeocoder(logger *logrus.Logger, cacheDir string, opts ...Option) *Geocoder {
	if logger == nil {
		logger = logrus.New()
	}
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logger.WithError(err).Warn("Could not create geocode cache directory")
		}
	}

	g := &Geocoder{
		logger:      logger,
		cacheDir:    cacheDir,
		cache:       make(map[string]orb.Point),
		client:      &http.Client{Timeout: 10 * time.Second},
		baseURL:     nominatimURL,
		userAgent:   "RealtyWizard/1.0",
		minInterval: time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.loadCache()
	return g
}

func (g *Geocoder) cacheFile() string {
	return filepath.Join(g.cacheDir, "geocode_cache.json")
}

func (g *Geocoder) loadCache() {
	if g.cacheDir == "" {
		return
	}
	data, err := os.ReadFile(g.cacheFile())
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.Warnf("Could not load geocode cache: %v", err)
		}
		return
	}

	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		return
	}

	g.logger.Infof("Loaded %d cached addresses", len(g.cache))
}

func (g *Geocoder) saveCache() {
	if g.cacheDir == "" {
		return
	}
	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	if err := os.WriteFile(g.cacheFile(), data, 0644); err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
		return
	}
	g.logger.Debug("Saved geocode cache to disk")
}

// wait respects Nominatim's usage policy of one request per interval.
func (g *Geocoder) wait(ctx context.Context) error {
	g.rateLock.Lock()
	defer g.rateLock.Unlock()

	if delay := g.minInterval - time.Since(g.lastCall); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	g.lastCall = time.Now()
	return nil
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves an address to a point ([lon, lat]) inside Brazil.
func (g *Geocoder) Geocode(ctx context.Context, addr Address) (orb.Point, error) {
	key := addr.cacheKey()
	query := addr.query()

	g.cacheLock.RLock()
	if p, ok := g.cache[key]; ok {
		g.cacheLock.RUnlock()
		g.logger.WithFields(logrus.Fields{
			"address":   query,
			"latitude":  p.Lat(),
			"longitude": p.Lon(),
			"source":    "cache",
		}).Debug("Found coordinates in cache")
		return p, nil
	}
	g.cacheLock.RUnlock()

	if err := g.wait(ctx); err != nil {
		return orb.Point{}, err
	}

	params := url.Values{
		"q":            []string{query},
		"format":       []string{"json"},
		"limit":        []string{"1"},
		"countrycodes": []string{"br"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL, nil)
	if err != nil {
		return orb.Point{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.5")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("address", query).Error("Geocoding request failed")
		return orb.Point{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return orb.Point{}, fmt.Errorf("geocoding request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return orb.Point{}, fmt.Errorf("failed to read response: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		g.logger.WithError(err).WithField("address", query).Error("Failed to parse response")
		return orb.Point{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result) == 0 {
		g.logger.WithField("address", query).Warn("No results found")
		return orb.Point{}, fmt.Errorf("%w for address: %s", ErrNoResults, query)
	}

	lat, errLat := strconv.ParseFloat(result[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(result[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return orb.Point{}, fmt.Errorf("invalid coordinates %q,%q", result[0].Lat, result[0].Lon)
	}
	point := orb.Point{lon, lat}
	if !BrazilBound.Contains(point) {
		return orb.Point{}, fmt.Errorf("%w: %v", ErrOutsideBrazil, point)
	}

	g.logger.WithFields(logrus.Fields{
		"address":   query,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded address")

	g.cacheLock.Lock()
	g.cache[key] = point
	g.cacheLock.Unlock()
	g.saveCache()

	return point, nil
}
