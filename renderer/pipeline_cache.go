package renderer

import (
	"bytes"
	"encoding/binary"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const pipelineCacheHeaderVersionOne = 1

type pipelineCacheHeader struct {
	Length   uint32
	Version  uint32
	VendorID uint32
	DeviceID uint32
	UUID     uuid.UUID
}

var pipelineCacheHeaderSize = binary.Size(pipelineCacheHeader{})

// PipelineCache persists compiled pipeline state between runs. Data written by a different
// driver or device is discarded at load.
type PipelineCache struct {
	driver core1_0.DeviceDriver
	logger logrus.FieldLogger

	handle core1_0.PipelineCache
	path   string
}

// LoadPipelineCache creates a pipeline cache seeded from the file at path. A missing or
// mismatched file yields an empty cache.
func (d *Device) LoadPipelineCache(path string) (*PipelineCache, error) {
	logger := d.logger.WithField("path", path)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no pipeline cache on disk")
		data = nil
	case err != nil:
		return nil, errors.Wrapf(err, "reading pipeline cache %s", path)
	default:
		err = validatePipelineCacheHeader(data, uint32(d.properties.VendorID), uint32(d.properties.DeviceID), d.properties.PipelineCacheUUID)
		if err != nil {
			logger.WithError(err).Warn("discarding pipeline cache")
			data = nil
		}
	}

	handle, res, err := d.driver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: data,
	})
	if err != nil {
		return nil, vkError(err, res, "creating pipeline cache")
	}

	logger.WithField("bytes", len(data)).Debug("pipeline cache created")
	return &PipelineCache{
		driver: d.driver,
		logger: logger,
		handle: handle,
		path:   path,
	}, nil
}

func validatePipelineCacheHeader(data []byte, vendorID, deviceID uint32, cacheUUID uuid.UUID) error {
	var header pipelineCacheHeader
	err := binary.Read(bytes.NewReader(data), common.ByteOrder, &header)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "reading header"), ErrPipelineCache)
	}

	switch {
	case int(header.Length) < pipelineCacheHeaderSize:
		return errors.Mark(errors.Newf("bad header length %d", header.Length), ErrPipelineCache)
	case header.Version != pipelineCacheHeaderVersionOne:
		return errors.Mark(errors.Newf("unsupported header version %d", header.Version), ErrPipelineCache)
	case header.VendorID != vendorID:
		return errors.Mark(errors.Newf("vendor %#x, driver expects %#x", header.VendorID, vendorID), ErrPipelineCache)
	case header.DeviceID != deviceID:
		return errors.Mark(errors.Newf("device %#x, driver expects %#x", header.DeviceID, deviceID), ErrPipelineCache)
	case header.UUID != cacheUUID:
		return errors.Mark(errors.Newf("uuid %s, driver expects %s", header.UUID, cacheUUID), ErrPipelineCache)
	}
	return nil
}

// Save writes the cache contents back to disk.
func (c *PipelineCache) Save() error {
	data, res, err := c.driver.GetPipelineCacheData(c.handle)
	if err != nil {
		return vkError(err, res, "reading pipeline cache data")
	}

	err = os.WriteFile(c.path, data, 0o644)
	if err != nil {
		return errors.Wrapf(err, "writing pipeline cache %s", c.path)
	}

	c.logger.WithField("bytes", len(data)).Debug("pipeline cache saved")
	return nil
}

func (c *PipelineCache) Destroy() {
	if c == nil || c.driver == nil {
		return
	}
	c.driver.DestroyPipelineCache(c.handle, nil)
	c.driver = nil
}
