package scene

import (
	"math"
	"math/rand/v2"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/particles/engine"
	"github.com/vkngwrapper/particles/material"
)

// EmitterConfig describes a particle fountain.
type EmitterConfig struct {
	Origin mgl32.Vec3
	// Capacity is the fixed number of particle drawables. Dead particles
	// keep their slot and are drawn at zero scale.
	Capacity int
	// Rate is the number of particles spawned per second.
	Rate     float32
	Lifetime float32
	Speed    float32
	// Spread is the half angle in radians of the cone around +Y that
	// particles leave the origin in.
	Spread  float32
	Gravity mgl32.Vec3
	Size    float32

	StartColor mgl32.Vec4
	EndColor   mgl32.Vec4
	Texture    engine.TextureID
	Mesh       engine.MeshID
	Seed       uint64
}

func (c EmitterConfig) validate() error {
	switch {
	case c.Capacity < 1:
		return errors.Newf("emitter capacity %d is not positive", c.Capacity)
	case c.Lifetime <= 0:
		return errors.Newf("particle lifetime %g is not positive", c.Lifetime)
	case c.Rate < 0:
		return errors.Newf("spawn rate %g is negative", c.Rate)
	}
	return nil
}

type particle struct {
	position mgl32.Vec3
	velocity mgl32.Vec3
	age      float32
	alive    bool
}

type Emitter struct {
	cfg       EmitterConfig
	particles []particle
	rng       *rand.Rand
	// pending accumulates fractional spawns between updates.
	pending float32
}

func NewEmitter(cfg EmitterConfig) (*Emitter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Emitter{
		cfg:       cfg,
		particles: make([]particle, cfg.Capacity),
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

func (e *Emitter) Capacity() int { return len(e.particles) }

// Alive returns the number of live particles.
func (e *Emitter) Alive() int {
	n := 0
	for _, p := range e.particles {
		if p.alive {
			n++
		}
	}
	return n
}

// Update ages and moves the live particles, then spawns new ones into free
// slots. Spawns that find no free slot are dropped.
func (e *Emitter) Update(dt float32) {
	if dt <= 0 {
		return
	}
	for i := range e.particles {
		p := &e.particles[i]
		if !p.alive {
			continue
		}
		p.age += dt
		if p.age >= e.cfg.Lifetime {
			p.alive = false
			continue
		}
		p.velocity = p.velocity.Add(e.cfg.Gravity.Mul(dt))
		p.position = p.position.Add(p.velocity.Mul(dt))
	}

	e.pending += e.cfg.Rate * dt
	for i := range e.particles {
		if e.pending < 1 {
			break
		}
		if !e.particles[i].alive {
			e.spawn(&e.particles[i])
			e.pending--
		}
	}
	e.pending = min(e.pending, 1)
}

func (e *Emitter) spawn(p *particle) {
	theta := e.rng.Float64() * 2 * math.Pi
	phi := e.rng.Float64() * float64(e.cfg.Spread)
	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)
	dir := mgl32.Vec3{
		float32(sinPhi * cosTheta),
		float32(cosPhi),
		float32(sinPhi * sinTheta),
	}
	speed := e.cfg.Speed * (0.5 + 0.5*e.rng.Float32())

	*p = particle{
		position: e.cfg.Origin,
		velocity: dir.Mul(speed),
		alive:    true,
	}
}

func lerp(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

// appendDrawables appends one drawable per particle slot. billboard turns
// the particle quad toward the camera.
func (e *Emitter) appendDrawables(dst []engine.Drawable, billboard mgl32.Mat4) []engine.Drawable {
	for _, p := range e.particles {
		var scale float32
		color := e.cfg.EndColor
		if p.alive {
			t := p.age / e.cfg.Lifetime
			scale = e.cfg.Size
			color = lerp(e.cfg.StartColor, e.cfg.EndColor, t)
		}
		model := mgl32.Translate3D(p.position.X(), p.position.Y(), p.position.Z()).
			Mul4(billboard).
			Mul4(mgl32.Scale3D(scale, scale, scale))

		dst = append(dst, engine.Drawable{
			Model: model,
			Mesh:  e.cfg.Mesh,
			Payload: material.ParticlePayload{
				Texture: int(e.cfg.Texture),
				Color:   color,
			},
		})
	}
	return dst
}
