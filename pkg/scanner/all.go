package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// DiscoverAll runs every discovery concurrently and combines the results.
// A missing package.json leaves Package nil. The first failing discovery
// cancels those not yet started and its error is returned.
func (s *Scanner) DiscoverAll(ctx context.Context, root string) (*Snapshot, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	snap := &Snapshot{Root: absRoot}
	g, ctx := errgroup.WithContext(ctx)

	run := func(name string, fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}

	run("routes", func() (err error) {
		snap.Routes, err = s.DiscoverRoutes(absRoot)
		return err
	})
	run("strategies", func() (err error) {
		snap.Strategies, err = s.DiscoverStrategies(absRoot)
		return err
	})
	run("api routes", func() (err error) {
		snap.API, err = s.DiscoverAPIRoutes(absRoot)
		return err
	})
	run("assets", func() (err error) {
		snap.Assets, err = s.DiscoverAssets(absRoot)
		return err
	})
	run("env", func() (err error) {
		snap.Env, err = s.DiscoverEnv(absRoot)
		return err
	})
	run("package.json", func() error {
		manifest, err := ReadPackageJSON(absRoot)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		snap.Package = manifest
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
