package engine

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

// MaxFramesInFlight is the number of frames the CPU may record ahead of the
// GPU.
const MaxFramesInFlight = 2

// Context is the render context handed to every engine component. It owns
// the device context and a command pool on the graphics family used both
// for one-shot setup commands and for the per-image frame command buffers.
type Context struct {
	*DeviceContext
	Logger *slog.Logger

	pool driver.CommandPool
}

// NewContext creates the command pool of an opened device context.
func NewContext(dc *DeviceContext, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := dc.Logical.NewCommandPool(dc.GraphicsFamily)
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	return &Context{DeviceContext: dc, Logger: logger, pool: pool}, nil
}

// Destroy releases the command pool and the logical device.
func (c *Context) Destroy() {
	if c.pool != nil {
		c.pool.Destroy()
		c.pool = nil
	}
	if c.Logical != nil {
		c.Logical.Destroy()
		c.Logical = nil
	}
}
