// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package tmdb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/streamx/streamx/internal/logging"
	"github.com/streamx/streamx/internal/models"
)

const (
	// popularPages is how many pages of the popular list feed the reel
	// pool.
	popularPages = 2

	// reelCandidates caps how many movies get the detail+videos fan-out.
	reelCandidates = 20

	// fanoutConcurrency bounds parallel TMDB calls per assembly.
	fanoutConcurrency = 5
)

// reelsCacheKey is the single cache key for the assembled reel list.
const reelsCacheKey = "moviereels"

// MovieReels assembles short movie teasers from TMDB: popular movies
// enriched with genre details and a YouTube trailer. Movies without a
// poster or trailer are dropped rather than served incomplete. A
// failure enriching one movie drops that movie, not the whole list.
// Successful assemblies are cached; upstream failures are not.
func (c *Client) MovieReels(ctx context.Context) ([]models.MovieReel, error) {
	if cached, ok := c.reels.Get(reelsCacheKey); ok {
		return cached, nil
	}

	var movies []Movie
	for page := 1; page <= popularPages; page++ {
		pageMovies, err := c.GetPopularMovies(ctx, page)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("failed to fetch popular movies: %w", err)
			}
			logging.Ctx(ctx).Warn().Err(err).Int("page", page).Msg("Skipping popular movies page")
			break
		}
		movies = append(movies, pageMovies...)
	}

	if len(movies) > reelCandidates {
		movies = movies[:reelCandidates]
	}

	reels := make([]*models.MovieReel, len(movies))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutConcurrency)
	for i, movie := range movies {
		g.Go(func() error {
			reel, err := c.buildReel(gctx, movie)
			if err != nil {
				logging.Ctx(gctx).Debug().Err(err).Int("movie_id", movie.ID).Msg("Dropping movie from reels")
				return nil
			}
			mu.Lock()
			reels[i] = reel
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]models.MovieReel, 0, len(reels))
	for _, reel := range reels {
		if reel != nil {
			result = append(result, *reel)
		}
	}
	c.reels.Set(reelsCacheKey, result)
	return result, nil
}

func (c *Client) buildReel(ctx context.Context, movie Movie) (*models.MovieReel, error) {
	details, err := c.GetMovieDetails(ctx, movie.ID)
	if err != nil {
		return nil, err
	}
	videos, err := c.GetMovieVideos(ctx, movie.ID)
	if err != nil {
		return nil, err
	}

	trailerKey := pickTrailer(videos)
	if trailerKey == "" || details.PosterPath == "" {
		return nil, fmt.Errorf("movie %d missing trailer or poster", movie.ID)
	}

	return &models.MovieReel{
		ID:         fmt.Sprintf("tmdb-%d", movie.ID),
		Title:      details.Title,
		Year:       releaseYear(details.ReleaseDate),
		Genre:      genreNames(details.Genres),
		Plot:       details.Overview,
		Rating:     fmt.Sprintf("%.1f", details.VoteAverage),
		Poster:     c.ImageURL(details.PosterPath),
		Backdrop:   c.ImageURL(details.BackdropPath),
		ClipURL:    "https://www.youtube.com/watch?v=" + trailerKey,
		TrailerKey: trailerKey,
	}, nil
}

// pickTrailer prefers a YouTube Trailer, falling back to any YouTube
// clip.
func pickTrailer(videos []Video) string {
	var fallback string
	for _, v := range videos {
		if v.Site != "YouTube" || v.Key == "" {
			continue
		}
		if v.Type == "Trailer" {
			return v.Key
		}
		if fallback == "" {
			fallback = v.Key
		}
	}
	return fallback
}

func releaseYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}

func genreNames(genres []Genre) string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}
