package engine

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/particles/driver"
	"github.com/vkngwrapper/particles/material"
)

// Window reports the size of the drawable area in pixels. A minimized
// window reports a zero size.
type Window interface {
	FramebufferSize() (width, height int)
}

// Camera provides the scene matrices. Version changes whenever either
// matrix does.
type Camera interface {
	View() mgl32.Mat4
	Projection(aspect float32) mgl32.Mat4
	Version() uint64
}

// Drawable is one object to draw with a material kind.
type Drawable struct {
	Model   mgl32.Mat4
	Mesh    MeshID
	Payload material.Payload
}

// Scene supplies what to draw. Generation changes whenever the set of
// drawables of any kind changes; changes to model matrices or payloads
// alone do not need a new generation.
type Scene interface {
	Drawables(kind material.Kind) []Drawable
	Generation() uint64
	Camera() Camera
}

// MeshData is an indexed triangle list.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// TextureData is a tightly packed RGBA8 image.
type TextureData struct {
	Pixels []byte
	Width  int
	Height int
}

// Options configures New.
type Options struct {
	MSAA bool
	// Extensions defaults to the swapchain extension.
	Extensions []string
	Shaders    map[material.Kind]ShaderCode
	Logger     *slog.Logger

	// Meshes are uploaded by New and get the IDs 0, 1, ... in order.
	Meshes []MeshData
	// Textures are uploaded by New after DefaultTexture and get the IDs
	// 1, 2, ... in order.
	Textures []TextureData
}

// generation is everything sized by the swapchain. It is destroyed and
// rebuilt as a whole.
type generation struct {
	swapchain    *SwapchainManager
	pass         driver.RenderPass
	pipelines    PipelineSet
	attachments  *Attachments
	framebuffers []driver.Framebuffer
	uniforms     UniformSet
	commands     []driver.CommandBuffer

	sceneGeneration uint64
}

// Renderer draws a Scene to a window surface, frame by frame.
type Renderer struct {
	ctx     *Context
	window  Window
	scene   Scene
	shaders map[material.Kind]ShaderCode
	depth   DepthFormat

	sync     *FrameSync
	meshes   meshTable
	textures textureTable
	gen      generation

	slot          int
	resized       bool
	texturesDirty bool

	framesPresented int
	recreations     int
}

// New selects and opens a device of instance, uploads the meshes and
// textures of opts and builds the swapchain for window. The instance is
// not owned by the renderer.
func New(instance driver.Instance, window Window, scene Scene, opts Options) (*Renderer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = []string{SwapchainExtension}
	}
	for _, kind := range material.Kinds {
		if _, ok := opts.Shaders[kind]; !ok {
			return nil, errors.Newf("no shaders for the %s material", kind)
		}
	}

	dc, err := SelectDevice(instance, Requirements{Extensions: extensions, MSAA: opts.MSAA}, logger)
	if err != nil {
		return nil, err
	}

	depth, err := FindDepthFormat(dc.Physical)
	if err != nil {
		return nil, err
	}

	if err := OpenContext(dc); err != nil {
		return nil, err
	}

	ctx, err := NewContext(dc, logger)
	if err != nil {
		dc.Logical.Destroy()
		return nil, err
	}

	r := &Renderer{
		ctx:     ctx,
		window:  window,
		scene:   scene,
		shaders: opts.Shaders,
		depth:   depth,
	}
	r.gen.swapchain = NewSwapchainManager(ctx)

	if err := r.init(opts); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init(opts Options) error {
	var err error
	r.sync, err = CreateSyncObjects(r.ctx.Logical, 0)
	if err != nil {
		return err
	}

	if err := r.textures.init(r.ctx); err != nil {
		return errors.Wrap(err, "create default texture")
	}
	for i, tex := range opts.Textures {
		if _, err := r.textures.upload(r.ctx, tex.Pixels, tex.Width, tex.Height); err != nil {
			return errors.Wrapf(err, "upload texture %d", i)
		}
	}
	for i, m := range opts.Meshes {
		if _, err := r.meshes.upload(r.ctx, m.Vertices, m.Indices); err != nil {
			return errors.Wrapf(err, "upload mesh %d", i)
		}
	}

	return r.buildGeneration()
}

// snapshot resolves the drawables of every kind into draw calls.
func (r *Renderer) snapshot() (counts [len(material.Kinds)]int, draws DrawLists, err error) {
	for _, kind := range material.Kinds {
		drawables := r.scene.Drawables(kind)
		counts[kind] = len(drawables)
		for i, d := range drawables {
			m, err := r.meshes.get(d.Mesh)
			if err != nil {
				return counts, draws, errors.Wrapf(err, "%s drawable %d", kind, i)
			}
			draws[kind] = append(draws[kind], m.drawCall())
		}
	}
	return counts, draws, nil
}

// buildGeneration creates the swapchain and everything sized by it, in
// dependency order. Each step does nothing for a zero extent, so a
// minimized window leaves the generation empty.
func (r *Renderer) buildGeneration() error {
	g := &r.gen
	g.sceneGeneration = r.scene.Generation()
	r.texturesDirty = false

	width, height := r.window.FramebufferSize()
	if err := g.swapchain.Create(driver.Extent{Width: width, Height: height}); err != nil {
		return err
	}
	extent := g.swapchain.Extent
	format := g.swapchain.Format.Format
	samples := r.ctx.Samples

	var err error
	g.pass, err = CreateRenderPass(r.ctx, extent, format, samples, r.depth.Format)
	if err != nil {
		return err
	}

	g.pipelines, err = CreatePipelineSet(r.ctx, g.pass, extent, samples, r.textures.count(), r.shaders)
	if err != nil {
		return err
	}

	g.attachments, err = CreateAttachments(r.ctx, extent, samples, format, r.depth)
	if err != nil {
		return err
	}

	g.framebuffers, err = CreateFramebuffers(r.ctx, g.pass, g.attachments, g.swapchain.Views, extent)
	if err != nil {
		return err
	}

	counts, draws, err := r.snapshot()
	if err != nil {
		return err
	}

	g.uniforms, err = CreateUniformSet(r.ctx, g.pipelines, len(g.swapchain.Images), counts, r.textures.samplers())
	if err != nil {
		return err
	}

	g.commands, err = RecordCommandBuffers(r.ctx, g.pass, g.framebuffers, extent, g.pipelines, g.uniforms, draws)
	if err != nil {
		return err
	}

	r.sync.ResizeImageTable(len(g.swapchain.Images))
	return nil
}

// destroyGeneration releases the generation in reverse dependency order.
func (r *Renderer) destroyGeneration() {
	g := &r.gen
	if len(g.commands) > 0 {
		r.ctx.pool.Free(g.commands...)
		g.commands = nil
	}

	destroyFramebuffers(g.framebuffers)
	g.framebuffers = nil

	g.pipelines.Destroy()
	g.pipelines = nil

	if g.pass != nil {
		g.pass.Destroy()
		g.pass = nil
	}

	g.uniforms.Destroy()
	g.uniforms = nil

	if g.attachments != nil {
		g.attachments.Destroy()
		g.attachments = nil
	}

	if g.swapchain != nil {
		g.swapchain.Destroy()
	}
}

// Recreate waits for the device to go idle, then rebuilds the swapchain and
// everything sized by it for the current window size.
func (r *Renderer) Recreate() error {
	if err := r.ctx.Logical.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	wasPaused := r.gen.swapchain.Paused()
	r.resized = false
	r.destroyGeneration()
	if err := r.buildGeneration(); err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	r.recreations++

	switch paused := r.gen.swapchain.Paused(); {
	case paused && !wasPaused:
		r.ctx.Logger.Info("rendering paused")
	case !paused && wasPaused:
		r.ctx.Logger.Info("rendering resumed")
	}
	return nil
}

func (r *Renderer) needsRebuild() bool {
	if r.resized || r.texturesDirty || r.gen.sceneGeneration != r.scene.Generation() {
		return true
	}
	if r.gen.swapchain.Paused() {
		width, height := r.window.FramebufferSize()
		return !driver.Extent{Width: width, Height: height}.Zero()
	}
	return false
}

// DrawFrame renders and presents one frame. It does nothing while the
// window has no area. A frame whose image could not be acquired because
// the swapchain was out of date rebuilds the swapchain instead and leaves
// the frame slot unchanged.
func (r *Renderer) DrawFrame() error {
	if r.needsRebuild() {
		if err := r.Recreate(); err != nil {
			return err
		}
	}
	if r.gen.swapchain.Paused() {
		return nil
	}

	dev := r.ctx.Logical
	slot := r.slot
	inFlight := r.sync.InFlight[slot]

	if err := dev.WaitForFences(inFlight); err != nil {
		return errors.Wrap(err, "wait for frame fence")
	}

	image, acquired, err := r.gen.swapchain.Swapchain.AcquireNextImage(r.sync.ImageAvailable[slot])
	if err != nil {
		return errors.Wrap(err, "acquire swapchain image")
	}
	if acquired == driver.StatusOutOfDate {
		return r.Recreate()
	}

	if fence := r.sync.ImagesInFlight[image]; fence != nil {
		if err := dev.WaitForFences(fence); err != nil {
			return errors.Wrap(err, "wait for image fence")
		}
	}
	r.sync.ImagesInFlight[image] = inFlight

	if err := r.updateUniforms(image); err != nil {
		return err
	}

	if err := dev.ResetFences(inFlight); err != nil {
		return errors.Wrap(err, "reset frame fence")
	}
	err = r.ctx.Graphics.Submit(driver.SubmitInfo{
		WaitSemaphores:   []driver.Semaphore{r.sync.ImageAvailable[slot]},
		WaitStages:       []driver.PipelineStage{driver.StageColorAttachmentOutput},
		CommandBuffers:   []driver.CommandBuffer{r.gen.commands[image]},
		SignalSemaphores: []driver.Semaphore{r.sync.RenderFinished[slot]},
	}, inFlight)
	if err != nil {
		return errors.Wrap(err, "submit draw command buffer")
	}

	presented, err := r.ctx.Present.Present(driver.PresentInfo{
		WaitSemaphores: []driver.Semaphore{r.sync.RenderFinished[slot]},
		Swapchain:      r.gen.swapchain.Swapchain,
		ImageIndex:     image,
	})
	if err != nil {
		return errors.Wrap(err, "present swapchain image")
	}

	r.slot = (slot + 1) % MaxFramesInFlight
	r.framesPresented++

	if presented != driver.StatusSuccess || acquired == driver.StatusSuboptimal || r.resized {
		r.ctx.Logger.Debug("swapchain needs recreation",
			slog.String("Acquire", acquired.String()),
			slog.String("Present", presented.String()),
			slog.Bool("Resized", r.resized))
		return r.Recreate()
	}
	return nil
}

func (r *Renderer) updateUniforms(image int) error {
	camera := r.scene.Camera()
	extent := r.gen.swapchain.Extent
	for _, u := range r.gen.uniforms {
		drawables := r.scene.Drawables(u.Kind)
		u.UpdateScene(image, camera, extent)
		u.UpdateModels(image, drawables)
		if err := u.UpdateSpecific(image, drawables); err != nil {
			return err
		}
	}
	return nil
}

// NotifyResized asks for the swapchain to be rebuilt after the next
// present.
func (r *Renderer) NotifyResized() {
	r.resized = true
}

// Paused reports whether the window currently has no area to draw to.
func (r *Renderer) Paused() bool {
	return r.gen.swapchain.Paused()
}

// UploadMesh uploads a mesh for drawables to reference. Scenes should only
// reference it in a later generation.
func (r *Renderer) UploadMesh(data MeshData) (MeshID, error) {
	return r.meshes.upload(r.ctx, data.Vertices, data.Indices)
}

// UploadTexture uploads a texture. The pipelines are rebuilt at the start
// of the next frame so the sampler array includes it.
func (r *Renderer) UploadTexture(data TextureData) (TextureID, error) {
	id, err := r.textures.upload(r.ctx, data.Pixels, data.Width, data.Height)
	if err != nil {
		return 0, err
	}
	r.texturesDirty = true
	return id, nil
}

// Close waits for the device to go idle and releases every object the
// renderer created, the device included.
func (r *Renderer) Close() error {
	var err error
	if r.ctx.Logical != nil {
		err = r.ctx.Logical.WaitIdle()
	}

	r.destroyGeneration()
	if r.sync != nil {
		r.sync.Destroy()
		r.sync = nil
	}
	r.textures.destroy()
	r.meshes.destroy()
	r.ctx.Destroy()
	return err
}

// MaterialStats describes the uniform buffers of one material.
type MaterialStats struct {
	Drawables    int
	ModelsSize   int
	SpecificSize int
}

// Stats is a snapshot of the renderer state.
type Stats struct {
	FramesPresented int
	Recreations     int
	Slot            int
	ImageCount      int
	Paused          bool
	Materials       [len(material.Kinds)]MaterialStats
}

// Stats reports the counters and sizes of the current generation.
func (r *Renderer) Stats() Stats {
	s := Stats{
		FramesPresented: r.framesPresented,
		Recreations:     r.recreations,
		Slot:            r.slot,
		ImageCount:      len(r.gen.swapchain.Images),
		Paused:          r.gen.swapchain.Paused(),
	}
	for _, u := range r.gen.uniforms {
		s.Materials[u.Kind] = MaterialStats{
			Drawables:    u.Count,
			ModelsSize:   u.ModelsSize(),
			SpecificSize: u.SpecificSize(),
		}
	}
	return s
}
