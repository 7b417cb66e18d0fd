// Package drivertest implements the driver interfaces in memory.
//
// Every object created through a fake Device is registered with a Tracker,
// which counts live objects by kind and records objects destroyed more than
// once. Fences signal as soon as they are submitted, so nothing ever blocks.
package drivertest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// Object kinds reported by Tracker.
const (
	KindInstance            = "instance"
	KindDevice              = "device"
	KindSwapchain           = "swapchain"
	KindImage               = "image"
	KindImageView           = "image view"
	KindBuffer              = "buffer"
	KindSampler             = "sampler"
	KindShaderModule        = "shader module"
	KindRenderPass          = "render pass"
	KindDescriptorSetLayout = "descriptor set layout"
	KindPipelineLayout      = "pipeline layout"
	KindPipeline            = "pipeline"
	KindFramebuffer         = "framebuffer"
	KindDescriptorPool      = "descriptor pool"
	KindCommandPool         = "command pool"
	KindCommandBuffer       = "command buffer"
	KindSemaphore           = "semaphore"
	KindFence               = "fence"
)

// Tracker counts the objects created and destroyed by the fake backend.
type Tracker struct {
	mu             sync.Mutex
	live           map[string]int
	created        map[string]int
	doubleDestroys []string
	nextID         int
}

func NewTracker() *Tracker {
	return &Tracker{
		live:    make(map[string]int),
		created: make(map[string]int),
	}
}

// object is embedded by every tracked fake.
type object struct {
	tracker   *Tracker
	kind      string
	id        int
	destroyed bool
}

func (t *Tracker) track(kind string) object {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	t.live[kind]++
	t.created[kind]++
	return object{tracker: t, kind: kind, id: t.nextID}
}

func (o *object) release() {
	t := o.tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	if o.destroyed {
		t.doubleDestroys = append(t.doubleDestroys, o.String())
		return
	}
	o.destroyed = true
	t.live[o.kind]--
}

func (o *object) Destroy() { o.release() }

func (o *object) alive() error {
	if o.destroyed {
		return errors.Newf("use of destroyed %s", o)
	}
	return nil
}

func (o *object) String() string {
	return fmt.Sprintf("%s#%d", o.kind, o.id)
}

// Live returns the number of objects of every kind that are still alive.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, n := range t.live {
		total += n
	}
	return total
}

// LiveOf returns the number of live objects of one kind.
func (t *Tracker) LiveOf(kind string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live[kind]
}

// Created returns how many objects of a kind were ever created.
func (t *Tracker) Created(kind string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.created[kind]
}

// DoubleDestroys lists the objects that were destroyed more than once.
func (t *Tracker) DoubleDestroys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.doubleDestroys...)
}

// Leaks describes every kind with live objects, sorted by kind.
func (t *Tracker) Leaks() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var leaks []string
	for kind, n := range t.live {
		if n != 0 {
			leaks = append(leaks, fmt.Sprintf("%d %s", n, kind))
		}
	}
	sort.Strings(leaks)
	return leaks
}
