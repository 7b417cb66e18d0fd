package engine

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"

	"github.com/vkngwrapper/particles/driver"
)

type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

func vertexLayout() driver.VertexLayout {
	v := Vertex{}
	return driver.VertexLayout{
		Stride: int(unsafe.Sizeof(v)),
		Attributes: []driver.VertexAttribute{
			{Location: 0, Format: driver.FormatR32G32B32SFloat, Offset: int(unsafe.Offsetof(v.Position))},
			{Location: 1, Format: driver.FormatR32G32B32SFloat, Offset: int(unsafe.Offsetof(v.Color))},
			{Location: 2, Format: driver.FormatR32G32SFloat, Offset: int(unsafe.Offsetof(v.TexCoord))},
		},
	}
}

// MeshID identifies a mesh uploaded with Renderer.UploadMesh.
type MeshID int

type mesh struct {
	vertices   driver.Buffer
	indices    driver.Buffer
	indexCount int
}

type meshTable struct {
	meshes []mesh
}

func (t *meshTable) get(id MeshID) (mesh, error) {
	if id < 0 || int(id) >= len(t.meshes) {
		return mesh{}, errors.Newf("unknown mesh %d", id)
	}
	return t.meshes[id], nil
}

func (m mesh) drawCall() DrawCall {
	return DrawCall{Vertices: m.vertices, Indices: m.indices, IndexCount: m.indexCount}
}

func (t *meshTable) upload(ctx *Context, vertices []Vertex, indices []uint32) (MeshID, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return 0, errors.New("mesh has no vertices or indices")
	}

	vertexBuffer, err := uploadBuffer(ctx, vertices, driver.BufferUsageVertex)
	if err != nil {
		return 0, errors.Wrap(err, "upload vertices")
	}

	indexBuffer, err := uploadBuffer(ctx, indices, driver.BufferUsageIndex)
	if err != nil {
		vertexBuffer.Destroy()
		return 0, errors.Wrap(err, "upload indices")
	}

	t.meshes = append(t.meshes, mesh{
		vertices:   vertexBuffer,
		indices:    indexBuffer,
		indexCount: len(indices),
	})
	return MeshID(len(t.meshes) - 1), nil
}

// uploadBuffer copies data into a new device-local buffer through a
// staging buffer.
func uploadBuffer(ctx *Context, data any, usage driver.BufferUsage) (driver.Buffer, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, common.ByteOrder, data); err != nil {
		return nil, errors.Wrap(err, "encode buffer data")
	}

	staging, err := ctx.stage(buf.Bytes())
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	buffer, err := ctx.Logical.NewBuffer(driver.BufferInfo{
		Size:  buf.Len(),
		Usage: driver.BufferUsageTransferDst | usage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create device-local buffer")
	}

	if err := ctx.copyBuffer(staging, buffer, buf.Len()); err != nil {
		buffer.Destroy()
		return nil, err
	}
	return buffer, nil
}

func (t *meshTable) destroy() {
	for _, m := range t.meshes {
		m.vertices.Destroy()
		m.indices.Destroy()
	}
	t.meshes = nil
}
