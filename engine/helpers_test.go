package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/particles/driver/drivertest"
	"github.com/vkngwrapper/particles/material"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testCamera struct {
	eye     mgl32.Vec3
	version uint64
}

func (c *testCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

func (c *testCamera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 100)
}

func (c *testCamera) Version() uint64 { return c.version }

type testScene struct {
	drawables  [len(material.Kinds)][]Drawable
	generation uint64
	camera     *testCamera
}

func newTestScene() *testScene {
	return &testScene{camera: &testCamera{eye: mgl32.Vec3{2, 2, 2}}}
}

func (s *testScene) Drawables(kind material.Kind) []Drawable { return s.drawables[kind] }
func (s *testScene) Generation() uint64                      { return s.generation }
func (s *testScene) Camera() Camera                          { return s.camera }

// add appends n drawables of kind using mesh 0 and bumps the generation.
func (s *testScene) add(kind material.Kind, n int) {
	for i := range n {
		d := Drawable{Model: mgl32.Translate3D(float32(i), 0, 0)}
		switch kind {
		case material.Opaque:
			d.Payload = material.OpaquePayload{}
		case material.Translucent:
			d.Payload = material.TranslucentPayload{Opacity: 0.5}
		case material.Particle:
			d.Payload = material.ParticlePayload{Color: mgl32.Vec4{1, 0, 0, 1}}
		}
		s.drawables[kind] = append(s.drawables[kind], d)
	}
	s.generation++
}

var spirvStub = []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 0, 0}

func testShaders() map[material.Kind]ShaderCode {
	shaders := make(map[material.Kind]ShaderCode)
	for _, kind := range material.Kinds {
		shaders[kind] = ShaderCode{Vertex: spirvStub, Fragment: spirvStub}
	}
	return shaders
}

func triangle() MeshData {
	return MeshData{
		Vertices: []Vertex{
			{Position: mgl32.Vec3{0, -0.5, 0}, Color: mgl32.Vec3{1, 0, 0}},
			{Position: mgl32.Vec3{0.5, 0.5, 0}, Color: mgl32.Vec3{0, 1, 0}},
			{Position: mgl32.Vec3{-0.5, 0.5, 0}, Color: mgl32.Vec3{0, 0, 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

// fixture is a fake instance with one suitable device presenting to a
// surface of the given size.
type fixture struct {
	tracker  *drivertest.Tracker
	surface  *drivertest.Surface
	physical *drivertest.PhysicalDevice
	instance *drivertest.Instance
}

func newFixture(width, height int) *fixture {
	tracker := drivertest.NewTracker()
	surface := drivertest.NewSurface(width, height)
	physical := drivertest.NewPhysicalDevice("fake gpu", surface)
	return &fixture{
		tracker:  tracker,
		surface:  surface,
		physical: physical,
		instance: drivertest.NewInstance(tracker, physical),
	}
}

func (f *fixture) device() *drivertest.Device {
	return f.physical.LastOpened
}

// context opens a render context on the fixture's device.
func (f *fixture) context(t *testing.T, msaa bool) *Context {
	t.Helper()

	dc, err := SelectDevice(f.instance, Requirements{Extensions: []string{SwapchainExtension}, MSAA: msaa}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, OpenContext(dc))

	ctx, err := NewContext(dc, quietLogger())
	require.NoError(t, err)
	return ctx
}

func (f *fixture) renderer(t *testing.T, scene Scene, msaa bool) *Renderer {
	t.Helper()

	r, err := New(f.instance, f.surface, scene, Options{
		MSAA:    msaa,
		Shaders: testShaders(),
		Logger:  quietLogger(),
		Meshes:  []MeshData{triangle()},
	})
	require.NoError(t, err)
	return r
}

// assertClean destroys the instance and checks that nothing the fake
// backend created is still alive or was destroyed twice.
func (f *fixture) assertClean(t *testing.T) {
	t.Helper()

	f.instance.Destroy()
	assert.Empty(t, f.tracker.Leaks())
	assert.Empty(t, f.tracker.DoubleDestroys())
}

// liveCounts snapshots the live objects of every kind a swapchain
// generation owns.
func liveCounts(tracker *drivertest.Tracker) map[string]int {
	counts := make(map[string]int)
	for _, kind := range []string{
		drivertest.KindSwapchain,
		drivertest.KindImage,
		drivertest.KindImageView,
		drivertest.KindBuffer,
		drivertest.KindRenderPass,
		drivertest.KindDescriptorSetLayout,
		drivertest.KindPipelineLayout,
		drivertest.KindPipeline,
		drivertest.KindFramebuffer,
		drivertest.KindDescriptorPool,
		drivertest.KindCommandBuffer,
		drivertest.KindSemaphore,
		drivertest.KindFence,
	} {
		counts[kind] = tracker.LiveOf(kind)
	}
	return counts
}
