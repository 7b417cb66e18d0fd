// Command demo renders a small scene with a particle fountain between two
// cubes. Drag with the left mouse button to orbit, scroll to zoom, press
// Escape to quit.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"

	"github.com/vkngwrapper/particles/assets"
	"github.com/vkngwrapper/particles/config"
	"github.com/vkngwrapper/particles/driver/vulkan"
	"github.com/vkngwrapper/particles/engine"
	"github.com/vkngwrapper/particles/material"
	"github.com/vkngwrapper/particles/scene"
	"github.com/vkngwrapper/particles/window"
)

// Mesh and texture IDs follow the order of the lists handed to the
// renderer.
const (
	cubeMesh engine.MeshID = iota
	quadMesh
)

const sparkTexture engine.TextureID = 1

// pausedDelay throttles the loop while nothing can be drawn.
const pausedDelay = 20 * time.Millisecond

func buildScene(world *scene.World, cfg config.Config) error {
	solid := scene.Identity()
	solid.Position = mgl32.Vec3{-1.75, 0.5, 0}
	if _, err := world.Spawn(scene.Object{
		Transform: solid,
		Mesh:      cubeMesh,
		Payload:   material.OpaquePayload{Texture: int(engine.DefaultTexture)},
		Spin:      0.5,
	}); err != nil {
		return err
	}

	glass := scene.Identity()
	glass.Position = mgl32.Vec3{1.75, 0.5, 0}
	if _, err := world.Spawn(scene.Object{
		Transform: glass,
		Mesh:      cubeMesh,
		Payload:   material.TranslucentPayload{Texture: int(engine.DefaultTexture), Opacity: 0.45},
		Spin:      -0.3,
	}); err != nil {
		return err
	}

	_, err := world.SpawnEmitter(scene.EmitterConfig{
		Origin:     mgl32.Vec3{0, 0, 0},
		Capacity:   cfg.Emitter.Capacity,
		Rate:       cfg.Emitter.Rate,
		Lifetime:   cfg.Emitter.Lifetime,
		Speed:      3,
		Spread:     math.Pi / 10,
		Gravity:    mgl32.Vec3{0, -2.5, 0},
		Size:       0.2,
		StartColor: mgl32.Vec4{1, 0.85, 0.4, 1},
		EndColor:   mgl32.Vec4{0.9, 0.2, 0.05, 0},
		Texture:    sparkTexture,
		Mesh:       quadMesh,
		Seed:       uint64(time.Now().UnixNano()),
	})
	return err
}

func run(cfg config.Config, logger *slog.Logger) error {
	bundle, err := (&assets.Loader{Logger: logger}).Load(context.Background(), os.DirFS(cfg.Assets), assets.Manifest{})
	if err != nil {
		return err
	}

	win, err := window.Open(cfg.Title, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer win.Close()

	instance, err := vulkan.Open(win.SDL(), vulkan.Options{
		AppName:    cfg.Title,
		Validation: cfg.Validation,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer instance.Destroy()

	world := scene.NewWorld(scene.NewOrbitCamera(mgl32.Vec3{0, 1, 0}, 7), logger)
	if err := buildScene(world, cfg); err != nil {
		return errors.Wrap(err, "build scene")
	}

	renderer, err := engine.New(instance, win, world, engine.Options{
		MSAA:     cfg.MSAA,
		Shaders:  bundle.Shaders,
		Logger:   logger,
		Meshes:   []engine.MeshData{assets.Cube(), assets.Quad()},
		Textures: []engine.TextureData{assets.Spark(64)},
	})
	if err != nil {
		return err
	}
	win.OnResize(func(int, int) { renderer.NotifyResized() })

	last := hrtime.Now()
	for win.PollEvents() {
		now := hrtime.Now()
		dt := float32((now - last).Seconds())
		last = now

		in := win.Input()
		world.Update(dt, scene.Input{
			DragX:  float32(in.DeltaX),
			DragY:  float32(in.DeltaY),
			Scroll: float32(in.Scroll),
		})

		if err := renderer.DrawFrame(); err != nil {
			_ = renderer.Close()
			return err
		}
		if renderer.Paused() {
			time.Sleep(pausedDelay)
		}
	}

	stats := renderer.Stats()
	logger.Info("shutting down",
		slog.Int("frames", stats.FramesPresented),
		slog.Int("recreations", stats.Recreations))
	return renderer.Close()
}

func main() {
	runtime.LockOSThread()

	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		config.Usage(os.Stdout)
		return
	}
	if err != nil {
		fmt.Printf("%+v\n", err)
		config.Usage(os.Stdout)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, logger); err != nil {
		fmt.Printf("%+v\n", err)
		os.Exit(1)
	}
}
