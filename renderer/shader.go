package renderer

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/playground/asset"
)

const spirvMagic uint32 = 0x07230203

type ShaderPaths struct {
	Vertex   string
	Fragment string
}

// bytesToBytecode validates a SPIR-V binary and converts it to 32-bit words.
func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Mark(errors.Newf("spir-v length %d is not a multiple of 4", len(b)), ErrShaderCompile)
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}

	if byteCode[0] != spirvMagic {
		return nil, errors.Mark(errors.Newf("bad spir-v magic %#08x", byteCode[0]), ErrShaderCompile)
	}
	return byteCode, nil
}

// loadShaderModule reads and validates the SPIR-V file at path. A missing file is reported as
// asset.ErrAssetNotFound, everything else as ErrShaderCompile.
func loadShaderModule(driver core1_0.DeviceDriver, path string) (core1_0.ShaderModule, error) {
	data, err := asset.ReadFile(path)
	if err != nil {
		return core1_0.ShaderModule{}, err
	}

	code, err := bytesToBytecode(data)
	if err != nil {
		return core1_0.ShaderModule{}, errors.Wrapf(err, "shader %s", path)
	}

	module, res, err := driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return core1_0.ShaderModule{}, errors.Mark(vkError(err, res, "creating shader module %s", path), ErrShaderCompile)
	}
	return module, nil
}
