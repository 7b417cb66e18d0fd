package assets

import (
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/particles/engine"
)

// LoadMesh reads a Wavefront OBJ mesh. A material library next to the mesh
// with the same base name is read along with it when present. Faces are
// fanned into triangles.
func LoadMesh(fsys fs.FS, name string) (engine.MeshData, error) {
	meshFile, err := fsys.Open(name)
	if err != nil {
		return engine.MeshData{}, errors.Wrapf(err, "open mesh %s", name)
	}
	defer meshFile.Close()

	var matFile io.Reader = strings.NewReader("")
	mtl := strings.TrimSuffix(name, path.Ext(name)) + ".mtl"
	if f, err := fsys.Open(mtl); err == nil {
		defer f.Close()
		matFile = f
	}

	decoder, err := obj.DecodeReader(meshFile, matFile)
	if err != nil {
		return engine.MeshData{}, errors.Wrapf(err, "decode mesh %s", name)
	}

	m := meshBuilder{decoder: decoder, unique: make(map[vertexKey]uint32)}
	for _, o := range decoder.Objects {
		for _, face := range o.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				if err := m.add(face, 0); err != nil {
					return engine.MeshData{}, errors.Wrapf(err, "mesh %s", name)
				}
				if err := m.add(face, i-1); err != nil {
					return engine.MeshData{}, errors.Wrapf(err, "mesh %s", name)
				}
				if err := m.add(face, i); err != nil {
					return engine.MeshData{}, errors.Wrapf(err, "mesh %s", name)
				}
			}
		}
	}
	if len(m.data.Indices) == 0 {
		return engine.MeshData{}, errors.Newf("mesh %s has no faces", name)
	}
	return m.data, nil
}

type vertexKey struct {
	position int
	uv       int
}

type meshBuilder struct {
	decoder *obj.Decoder
	unique  map[vertexKey]uint32
	data    engine.MeshData
}

func (m *meshBuilder) add(face obj.Face, corner int) error {
	key := vertexKey{position: face.Vertices[corner], uv: -1}
	if corner < len(face.Uvs) {
		key.uv = face.Uvs[corner]
	}

	index, ok := m.unique[key]
	if !ok {
		positions := m.decoder.Vertices
		if key.position < 0 || key.position*3+2 >= len(positions) {
			return errors.Newf("vertex index %d out of range", key.position)
		}
		v := engine.Vertex{
			Position: mgl32.Vec3{
				positions[key.position*3],
				positions[key.position*3+1],
				positions[key.position*3+2],
			},
			Color: mgl32.Vec3{1, 1, 1},
		}
		// OBJ puts the texture origin at the bottom left.
		if uvs := m.decoder.Uvs; key.uv >= 0 && key.uv*2+1 < len(uvs) {
			v.TexCoord = mgl32.Vec2{uvs[key.uv*2], 1 - uvs[key.uv*2+1]}
		}

		index = uint32(len(m.data.Vertices))
		m.data.Vertices = append(m.data.Vertices, v)
		m.unique[key] = index
	}
	m.data.Indices = append(m.data.Indices, index)
	return nil
}
