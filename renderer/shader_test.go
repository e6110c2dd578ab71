package renderer

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/mocks/mocks1_2"
	"go.uber.org/mock/gomock"

	"github.com/vkngwrapper/playground/asset"
)

func spirvWords(words ...uint32) []byte {
	data := make([]byte, len(words)*4)
	for i, word := range words {
		binary.LittleEndian.PutUint32(data[i*4:], word)
	}
	return data
}

func TestBytesToBytecode(t *testing.T) {
	code, err := bytesToBytecode(spirvWords(spirvMagic, 0x00010000, 7))
	require.NoError(t, err)
	require.Equal(t, []uint32{spirvMagic, 0x00010000, 7}, code)

	_, err = bytesToBytecode(nil)
	require.True(t, errors.Is(err, ErrShaderCompile))

	_, err = bytesToBytecode(append(spirvWords(spirvMagic), 0))
	require.True(t, errors.Is(err, ErrShaderCompile))

	_, err = bytesToBytecode(spirvWords(0xdeadbeef, 1))
	require.True(t, errors.Is(err, ErrShaderCompile))
}

func TestLoadShaderModuleErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	driver := mocks1_2.NewMockCoreDeviceDriver(ctrl)
	dir := t.TempDir()

	_, err := loadShaderModule(driver, filepath.Join(dir, "missing.spv"))
	require.True(t, errors.Is(err, asset.ErrAssetNotFound))
	require.False(t, errors.Is(err, ErrShaderCompile))

	garbage := filepath.Join(dir, "garbage.spv")
	require.NoError(t, os.WriteFile(garbage, []byte("#version 450\n"), 0o644))
	_, err = loadShaderModule(driver, garbage)
	require.True(t, errors.Is(err, ErrShaderCompile))

	valid := filepath.Join(dir, "valid.spv")
	require.NoError(t, os.WriteFile(valid, spirvWords(spirvMagic, 0x00010000), 0o644))
	driver.EXPECT().CreateShaderModule(gomock.Any(), core1_0.ShaderModuleCreateInfo{
		Code: []uint32{spirvMagic, 0x00010000},
	}).Return(core1_0.ShaderModule{}, core1_0.VKErrorOutOfDeviceMemory, errors.New("rejected"))

	_, err = loadShaderModule(driver, valid)
	require.True(t, errors.Is(err, ErrShaderCompile))
}
