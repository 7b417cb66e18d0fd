package assets

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vkngwrapper/particles/engine"
	"github.com/vkngwrapper/particles/material"
)

// Manifest names the files of a bundle. Meshes and textures keep their
// order in the bundle.
type Manifest struct {
	Meshes   []string
	Textures []string
}

// Bundle is everything a renderer needs at startup.
type Bundle struct {
	Shaders  map[material.Kind]engine.ShaderCode
	Meshes   []engine.MeshData
	Textures []engine.TextureData
}

// Loader reads bundles, decoding files in parallel.
type Loader struct {
	Logger *slog.Logger
	// Limit caps the number of files decoded at once. Zero means no limit.
	Limit int
}

// Load reads the shaders of every material kind and the files of the
// manifest. The first failure cancels the rest.
func (l *Loader) Load(ctx context.Context, fsys fs.FS, m Manifest) (*Bundle, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	shaders := make([]engine.ShaderCode, len(material.Kinds))
	bundle := &Bundle{
		Shaders:  make(map[material.Kind]engine.ShaderCode, len(material.Kinds)),
		Meshes:   make([]engine.MeshData, len(m.Meshes)),
		Textures: make([]engine.TextureData, len(m.Textures)),
	}

	group, ctx := errgroup.WithContext(ctx)
	if l.Limit > 0 {
		group.SetLimit(l.Limit)
	}
	// Each task writes its own slot, so the results need no locking.
	task := func(name string, load func() error) {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := load(); err != nil {
				return err
			}
			logger.Debug("loaded asset", slog.String("name", name))
			return nil
		})
	}

	for i, kind := range material.Kinds {
		task(kind.String()+" shaders", func() (err error) {
			shaders[i], err = LoadShaders(fsys, kind)
			return err
		})
	}
	for i, name := range m.Meshes {
		task(name, func() (err error) {
			bundle.Meshes[i], err = LoadMesh(fsys, name)
			return err
		})
	}
	for i, name := range m.Textures {
		task(name, func() (err error) {
			bundle.Textures[i], err = LoadTexture(fsys, name)
			return err
		})
	}

	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "load assets")
	}
	for i, kind := range material.Kinds {
		bundle.Shaders[kind] = shaders[i]
	}

	logger.Info("assets loaded",
		slog.Int("meshes", len(bundle.Meshes)),
		slog.Int("textures", len(bundle.Textures)),
		slog.Duration("elapsed", time.Since(start)))
	return bundle, nil
}
