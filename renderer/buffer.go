package renderer

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/arsenal/vam"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// UniformBufferObject is the per-frame payload read by the vertex shader at binding 0.
type UniformBufferObject struct {
	MVP mgl32.Mat4
}

var uniformSize = int(unsafe.Sizeof(UniformBufferObject{}))

// Bytes encodes the payload in the device's byte order.
func (u UniformBufferObject) Bytes() []byte {
	buf := &bytes.Buffer{}
	// writing fixed-size floats into a bytes.Buffer cannot fail
	_ = binary.Write(buf, common.ByteOrder, u)
	return buf.Bytes()
}

func decodeUniform(data []byte) (UniformBufferObject, error) {
	var u UniformBufferObject
	err := binary.Read(bytes.NewReader(data), common.ByteOrder, &u)
	return u, errors.Wrap(err, "decoding uniform payload")
}

// bufferMemory is the part of a vam allocation a Buffer uses: host access and release.
type bufferMemory interface {
	Map() (unsafe.Pointer, common.VkResult, error)
	Unmap() error
	Flush(offset, size int) (common.VkResult, error)
	DestroyBuffer(buffer core1_0.Buffer) error
}

// bufferSource creates buffers together with the memory backing them.
type bufferSource interface {
	createBuffer(usage core1_0.BufferUsageFlags, size int, allocInfo vam.AllocationCreateInfo) (*Buffer, error)
}

// Buffer is a device buffer and the allocation backing it. It is owned by exactly one object and
// destroyed exactly once.
type Buffer struct {
	handle core1_0.Buffer
	memory bufferMemory

	size  int
	usage core1_0.BufferUsageFlags
}

func (b *Buffer) Handle() core1_0.Buffer { return b.handle }
func (b *Buffer) Size() int              { return b.size }

type allocatorBuffers struct {
	allocator *vam.Allocator
}

func (a allocatorBuffers) createBuffer(usage core1_0.BufferUsageFlags, size int, allocInfo vam.AllocationCreateInfo) (*Buffer, error) {
	allocation := new(vam.Allocation)
	handle, res, err := a.allocator.CreateBuffer(core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	}, allocInfo, allocation)
	if err != nil {
		return nil, vkError(err, res, "creating %d byte buffer", size)
	}

	return &Buffer{
		handle: handle,
		memory: allocation,
		size:   size,
		usage:  usage,
	}, nil
}

func (d *Device) createBuffer(usage core1_0.BufferUsageFlags, size int, allocInfo vam.AllocationCreateInfo) (*Buffer, error) {
	return d.buffers.createBuffer(usage, size, allocInfo)
}

// CreateBuffer creates a device-local buffer of size bytes. When data is given it is uploaded
// through a host-visible staging buffer, which is released before returning.
func (d *Device) CreateBuffer(usage core1_0.BufferUsageFlags, size int, data []byte) (buffer *Buffer, err error) {
	deviceLocal := vam.AllocationCreateInfo{Usage: vam.MemoryUsageAutoPreferDevice}
	if data == nil {
		return d.createBuffer(usage, size, deviceLocal)
	}
	if len(data) > size {
		return nil, errors.Newf("buffer data is %d bytes, buffer holds %d", len(data), size)
	}

	staging, err := d.createBuffer(core1_0.BufferUsageTransferSrc, len(data), vam.AllocationCreateInfo{
		Usage: vam.MemoryUsageAutoPreferHost,
		Flags: vam.AllocationCreateHostAccessSequentialWrite,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating staging buffer")
	}
	defer func() {
		err = errors.CombineErrors(err, staging.Destroy())
	}()

	err = staging.Write(data)
	if err != nil {
		return nil, err
	}

	buffer, err = d.createBuffer(usage|core1_0.BufferUsageTransferDst, size, deviceLocal)
	if err != nil {
		return nil, err
	}

	err = d.RunSingleTime(func(cmd core1_0.CommandBuffer) error {
		return d.driver.CmdCopyBuffer(cmd, staging.handle, buffer.handle, core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      len(data),
		})
	})
	if err != nil {
		return nil, errors.CombineErrors(errors.Wrap(err, "copying staging buffer"), buffer.Destroy())
	}
	return buffer, nil
}

// CreateUniformBuffer creates a host-visible buffer meant to be rewritten every frame.
func (d *Device) CreateUniformBuffer(size int) (*Buffer, error) {
	return d.createBuffer(core1_0.BufferUsageUniformBuffer, size, vam.AllocationCreateInfo{
		Usage: vam.MemoryUsageAutoPreferHost,
		Flags: vam.AllocationCreateHostAccessSequentialWrite,
	})
}

// Write maps the buffer, copies data to its start and unmaps it.
func (b *Buffer) Write(data []byte) error {
	if len(data) > b.size {
		return errors.Newf("writing %d bytes into a %d byte buffer", len(data), b.size)
	}
	return writeMapped(b.memory, data)
}

// Read maps the buffer and returns a copy of its contents.
func (b *Buffer) Read() ([]byte, error) {
	return readMapped(b.memory, b.size)
}

func (b *Buffer) Destroy() error {
	if b == nil || b.memory == nil {
		return nil
	}

	err := b.memory.DestroyBuffer(b.handle)
	b.memory = nil
	b.handle = core1_0.Buffer{}
	return errors.Wrap(err, "destroying buffer")
}

func writeMapped(memory bufferMemory, data []byte) error {
	ptr, res, err := memory.Map()
	if err != nil {
		return vkError(err, res, "mapping buffer memory")
	}

	copy(unsafe.Slice((*byte)(ptr), len(data)), data)

	res, err = memory.Flush(0, len(data))
	if err != nil {
		_ = memory.Unmap()
		return vkError(err, res, "flushing buffer memory")
	}

	return errors.Wrap(memory.Unmap(), "unmapping buffer memory")
}

func readMapped(memory bufferMemory, size int) ([]byte, error) {
	ptr, res, err := memory.Map()
	if err != nil {
		return nil, vkError(err, res, "mapping buffer memory")
	}

	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(ptr), size))

	return out, errors.Wrap(memory.Unmap(), "unmapping buffer memory")
}
