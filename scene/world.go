// Package scene holds the objects and particle emitters the renderer draws,
// and the camera it draws them from.
package scene

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/particles/engine"
	"github.com/vkngwrapper/particles/material"
)

type Entity uint32

// Transform places an object in the world.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// Identity places an object at the origin with no rotation and unit scale.
func Identity() Transform {
	return Transform{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Object is a mesh drawn with the material its payload belongs to.
type Object struct {
	Transform Transform
	Mesh      engine.MeshID
	Payload   material.Payload
	// Spin rotates the object around Y, in radians per second.
	Spin float32
}

// Input is the user input of one frame.
type Input struct {
	// DragX and DragY are the pointer movement in pixels while the orbit
	// button is held.
	DragX, DragY float32
	Scroll       float32
}

// orbitSpeed is the camera turn in radians per dragged pixel.
const orbitSpeed = 0.01

// World is a scene of objects and particle emitters. It is not safe for
// concurrent use.
type World struct {
	logger   *slog.Logger
	camera   *OrbitCamera
	next     Entity
	order    []Entity
	objects  map[Entity]*Object
	emitters map[Entity]*Emitter

	generation uint64
	drawables  [len(material.Kinds)][]engine.Drawable
}

var _ engine.Scene = (*World)(nil)

func NewWorld(camera *OrbitCamera, logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.Default()
	}
	return &World{
		logger:   logger,
		camera:   camera,
		objects:  make(map[Entity]*Object),
		emitters: make(map[Entity]*Emitter),
	}
}

func (w *World) add() Entity {
	w.next++
	w.order = append(w.order, w.next)
	w.generation++
	return w.next
}

var errNoPayload = errors.New("object without a material payload")

// Spawn adds an object to the world.
func (w *World) Spawn(obj Object) (Entity, error) {
	if obj.Payload == nil {
		return 0, errNoPayload
	}
	e := w.add()
	w.objects[e] = &obj
	w.logger.Debug("spawned object",
		slog.Int("entity", int(e)),
		slog.String("material", obj.Payload.Kind().String()))
	return e, nil
}

// SpawnEmitter adds a particle emitter to the world.
func (w *World) SpawnEmitter(cfg EmitterConfig) (Entity, error) {
	emitter, err := NewEmitter(cfg)
	if err != nil {
		return 0, err
	}
	e := w.add()
	w.emitters[e] = emitter
	w.logger.Debug("spawned emitter",
		slog.Int("entity", int(e)),
		slog.Int("capacity", cfg.Capacity))
	return e, nil
}

// Despawn removes an entity. It reports whether the entity existed.
func (w *World) Despawn(e Entity) bool {
	_, obj := w.objects[e]
	_, em := w.emitters[e]
	if !obj && !em {
		return false
	}
	delete(w.objects, e)
	delete(w.emitters, e)
	for i, o := range w.order {
		if o == e {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.generation++
	return true
}

// Object returns a copy of the object of an entity. Use Set to change it.
func (w *World) Object(e Entity) (Object, bool) {
	obj, ok := w.objects[e]
	if !ok {
		return Object{}, false
	}
	return *obj, true
}

// Set replaces the object of an entity. Changing its mesh or the material
// kind of its payload changes the generation; moving it or changing the
// payload within the same kind does not.
func (w *World) Set(e Entity, obj Object) error {
	if obj.Payload == nil {
		return errNoPayload
	}
	cur, ok := w.objects[e]
	if !ok {
		return errors.Newf("no object for entity %d", e)
	}
	if cur.Mesh != obj.Mesh || cur.Payload.Kind() != obj.Payload.Kind() {
		w.generation++
		w.logger.Debug("object changed draw list",
			slog.Int("entity", int(e)),
			slog.String("material", obj.Payload.Kind().String()))
	}
	*cur = obj
	return nil
}

func (w *World) Emitter(e Entity) (*Emitter, bool) {
	em, ok := w.emitters[e]
	return em, ok
}

// Generation changes whenever an entity is spawned or despawned, and when
// Set moves an object to another mesh or material kind.
func (w *World) Generation() uint64 {
	return w.generation
}

func (w *World) Camera() engine.Camera {
	return w.camera
}

// Update applies the frame's input to the camera and advances the
// simulation by dt seconds.
func (w *World) Update(dt float32, in Input) {
	w.camera.Orbit(-in.DragX*orbitSpeed, in.DragY*orbitSpeed)
	w.camera.Zoom(in.Scroll)

	for _, e := range w.order {
		if obj, ok := w.objects[e]; ok && obj.Spin != 0 {
			spin := mgl32.QuatRotate(obj.Spin*dt, mgl32.Vec3{0, 1, 0})
			obj.Transform.Rotation = spin.Mul(obj.Transform.Rotation).Normalize()
		}
		if em, ok := w.emitters[e]; ok {
			em.Update(dt)
		}
	}
}

// Drawables returns the drawables of a material kind in spawn order. The
// returned slice is reused by the next call for the same kind.
func (w *World) Drawables(kind material.Kind) []engine.Drawable {
	out := w.drawables[kind][:0]
	var billboard mgl32.Mat4
	if kind == material.Particle {
		billboard = w.camera.billboard()
	}

	for _, e := range w.order {
		if obj, ok := w.objects[e]; ok && obj.Payload.Kind() == kind {
			out = append(out, engine.Drawable{
				Model:   obj.Transform.Matrix(),
				Mesh:    obj.Mesh,
				Payload: obj.Payload,
			})
		}
		if em, ok := w.emitters[e]; ok && kind == material.Particle {
			out = em.appendDrawables(out, billboard)
		}
	}
	w.drawables[kind] = out
	return out
}
