// Package assets loads shaders, meshes and textures from a file system and
// provides a few builtin meshes.
package assets

import (
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"

	"github.com/vkngwrapper/particles/engine"
	"github.com/vkngwrapper/particles/material"
)

var ErrInvalidShader = errors.New("invalid SPIR-V shader")

const spirvMagic = 0x07230203

// spirvHeaderSize is the size of the five-word SPIR-V module header.
const spirvHeaderSize = 20

// LoadShader reads a compiled SPIR-V module.
func LoadShader(fsys fs.FS, path string) ([]byte, error) {
	code, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	if len(code) < spirvHeaderSize || len(code)%4 != 0 {
		return nil, errors.Mark(errors.Newf("shader %s is %d bytes, not a whole number of words", path, len(code)), ErrInvalidShader)
	}
	if magic := common.ByteOrder.Uint32(code); magic != spirvMagic {
		return nil, errors.Mark(errors.Newf("shader %s starts with %#08x", path, magic), ErrInvalidShader)
	}
	return code, nil
}

// LoadShaders reads the vertex and fragment shader of a material kind from
// the paths its configuration names.
func LoadShaders(fsys fs.FS, kind material.Kind) (engine.ShaderCode, error) {
	cfg := material.ConfigOf(kind)

	vert, err := LoadShader(fsys, cfg.VertexShader)
	if err != nil {
		return engine.ShaderCode{}, err
	}
	frag, err := LoadShader(fsys, cfg.FragmentShader)
	if err != nil {
		return engine.ShaderCode{}, err
	}
	return engine.ShaderCode{Vertex: vert, Fragment: frag}, nil
}
