package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"travel_booking/internal/adapters/bookingapi"
	"travel_booking/internal/domain"
)

// SeedFile is the YAML catalog. Each record is a field map; "image" is a
// file path relative to the seed file, or an http(s) URL used as is.
type SeedFile struct {
	Hotels   []map[string]string `yaml:"hotels"`
	RentCars []map[string]string `yaml:"rentCars"`
}

type job struct {
	kind *domain.Kind
	vals map[string]string
	n    int
}

type creator interface {
	Create(ctx context.Context, k *domain.Kind, vals map[string]string, img *bookingapi.Image) (domain.Entity, error)
}

func loadSeed(path string) (*SeedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf SeedFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &sf, nil
}

func (sf *SeedFile) jobs() []job {
	var out []job
	for i, v := range sf.Hotels {
		out = append(out, job{kind: domain.Hotels, vals: v, n: i + 1})
	}
	for i, v := range sf.RentCars {
		out = append(out, job{kind: domain.RentalCars, vals: v, n: i + 1})
	}
	return out
}

// seed creates every record with at most workers requests in flight and
// returns how many failed.
func seed(ctx context.Context, api creator, sf *SeedFile, baseDir string, workers int) int {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed int64

	for _, j := range sf.jobs() {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("semaphore acquire failed")
			atomic.AddInt64(&failed, 1)
			break
		}

		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			defer sem.Release(1)

			l := log.With().Str("kind", j.kind.Path).Int("record", j.n).Logger()
			e, err := createOne(ctx, api, j, baseDir)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				l.Warn().Err(err).Msg("seed failed")
				return
			}
			l.Info().Str("id", e.GetID()).Msg("seed ok")
		}(j)
	}

	wg.Wait()
	return int(failed)
}

func createOne(ctx context.Context, api creator, j job, baseDir string) (domain.Entity, error) {
	vals := make(map[string]string, len(j.vals))
	for k, v := range j.vals {
		vals[k] = v
	}

	var img *bookingapi.Image
	if p := vals["image"]; p != "" && !isURL(p) {
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		img = &bookingapi.Image{Filename: filepath.Base(p), Body: f}
		delete(vals, "image")
	}
	return api.Create(ctx, j.kind, vals, img)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
