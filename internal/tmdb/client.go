// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

// Package tmdb wraps The Movie Database API for the movie-reels
// feature: popular movie discovery enriched with details and trailers.
package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/streamx/streamx/internal/cache"
	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/logging"
	"github.com/streamx/streamx/internal/metrics"
	"github.com/streamx/streamx/internal/models"
)

const maxErrorBodySize = 64 * 1024

// defaultReelsTTL is how long an assembled reel list is served from
// cache before the popular list is fetched again.
const defaultReelsTTL = 15 * time.Minute

// Client talks to the TMDB v3 API. Requests are rate limited client
// side to stay under TMDB's documented ceiling, and assembled reel
// lists are cached so each page load does not fan out upstream.
type Client struct {
	baseURL    string
	imageURL   string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	reels      *cache.Cache[[]models.MovieReel]
	cb         *gobreaker.CircuitBreaker[struct{}]
}

// NewClient creates a TMDB API client.
func NewClient(cfg *config.TMDBConfig) *Client {
	const cbName = "tmdb-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultReelsTTL
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		imageURL:   cfg.ImageURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(40), 40),
		reels:      cache.New[[]models.MovieReel](ttl),
		cb:         cb,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// Movie is one entry from a TMDB discovery list.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
}

// MovieDetails carries the genre list missing from discovery entries.
type MovieDetails struct {
	Movie
	Genres []Genre `json:"genres"`
}

// Genre is a TMDB genre tag.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Video is a clip attached to a movie (trailers, teasers, featurettes).
type Video struct {
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type popularResponse struct {
	Results []Movie `json:"results"`
}

type videosResponse struct {
	Results []Video `json:"results"`
}

// GetPopularMovies returns one page of TMDB's popular movie list.
func (c *Client) GetPopularMovies(ctx context.Context, page int) ([]Movie, error) {
	var resp popularResponse
	params := url.Values{"page": {fmt.Sprintf("%d", page)}}
	if err := c.get(ctx, "popular", "/movie/popular", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetMovieDetails returns full details for one movie.
func (c *Client) GetMovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.get(ctx, "details", fmt.Sprintf("/movie/%d", id), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetMovieVideos returns the clips attached to one movie.
func (c *Client) GetMovieVideos(ctx context.Context, id int) ([]Video, error) {
	var resp videosResponse
	if err := c.get(ctx, "videos", fmt.Sprintf("/movie/%d/videos", id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ImageURL resolves a TMDB image path to a full URL, empty when the
// path is empty.
func (c *Client) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return c.imageURL + path
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	start := time.Now()
	_, err := c.cb.Execute(func() (struct{}, error) {
		return struct{}{}, c.doGet(ctx, path, params, out)
	})
	metrics.RecordUpstreamCall("tmdb", operation, time.Since(start), err)
	return err
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build tmdb request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("tmdb returned status %d: %s", resp.StatusCode, string(errBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode tmdb response: %w", err)
	}
	return nil
}
