package renderer

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/playground/engine"
)

type QuadOptions struct {
	Shaders ShaderPaths
	Texture string
	Logger  logrus.FieldLogger
}

// QuadScene draws one textured quad. Its buffers, texture and descriptor live from Load to
// Destroy; only the pipeline follows render pass generations.
type QuadScene struct {
	ctx    *RenderContext
	opts   QuadOptions
	logger logrus.FieldLogger

	vertexBuffer *Buffer
	indexBuffer  *Buffer
	uniform      *Buffer
	textures     *TextureCache
	layout       core1_0.DescriptorSetLayout
	descriptor   *Descriptor
	pipeline     *Pipeline

	builds  int
	release ReleaseStack
}

var _ engine.Scene = (*QuadScene)(nil)

func NewQuadScene(ctx *RenderContext, opts QuadOptions) *QuadScene {
	logger := opts.Logger
	if logger == nil {
		logger = ctx.logger
	}

	return &QuadScene{
		ctx:    ctx,
		opts:   opts,
		logger: logger.WithField("component", "scene"),
	}
}

// Load uploads the quad geometry and texture and binds the descriptor set.
func (s *QuadScene) Load() error {
	device := s.ctx.Device()

	vertices := encodeSlice(quadVertices)
	var err error
	s.vertexBuffer, err = device.CreateBuffer(core1_0.BufferUsageVertexBuffer, len(vertices), vertices)
	if err != nil {
		return errors.Wrap(err, "creating vertex buffer")
	}
	s.release.Push("vertex buffer", s.vertexBuffer.Destroy)

	indices := encodeSlice(quadIndices)
	s.indexBuffer, err = device.CreateBuffer(core1_0.BufferUsageIndexBuffer, len(indices), indices)
	if err != nil {
		return errors.Wrap(err, "creating index buffer")
	}
	s.release.Push("index buffer", s.indexBuffer.Destroy)

	s.uniform, err = device.CreateUniformBuffer(uniformSize)
	if err != nil {
		return errors.Wrap(err, "creating uniform buffer")
	}
	s.release.Push("uniform buffer", s.uniform.Destroy)

	s.textures = NewTextureCache(device)
	s.release.Push("textures", s.textures.Destroy)
	err = s.textures.Load(context.Background(), s.opts.Texture)
	if err != nil {
		return err
	}

	s.layout, err = CreateDescriptorSetLayout(device.Driver())
	if err != nil {
		return err
	}
	s.release.PushFunc("descriptor set layout", func() { device.Driver().DestroyDescriptorSetLayout(s.layout, nil) })

	err = s.bindDescriptor()
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"texture":  s.opts.Texture,
		"vertices": len(quadVertices),
		"indices":  len(quadIndices),
	}).Info("scene loaded")
	return nil
}

// bindDescriptor writes the descriptor set once per uniform buffer handle.
func (s *QuadScene) bindDescriptor() error {
	texture, ok := s.textures.Get(s.opts.Texture)
	if !ok {
		return errors.Newf("texture %s is not loaded", s.opts.Texture)
	}

	binding := DescriptorBinding{
		Uniform:      s.uniform.Handle(),
		UniformRange: uniformSize,
		View:         texture.View(),
		Sampler:      texture.Sampler(),
	}
	if s.descriptor != nil {
		return s.descriptor.Rebind(binding)
	}

	var err error
	s.descriptor, err = BindDescriptor(s.ctx.Device().Driver(), s.layout, binding)
	if err != nil {
		return err
	}
	s.release.PushFunc("descriptor", s.descriptor.Destroy)
	return nil
}

// BuildPipeline replaces the pipeline with one built against the context's current render pass.
// The device must be idle.
func (s *QuadScene) BuildPipeline() error {
	s.pipeline.Destroy()
	s.pipeline = nil

	renderPass := s.ctx.RenderPass()
	start := hrtime.Now()
	pipeline, err := BuildPipeline(s.ctx.Device().Driver(), PipelineInfo{
		RenderPass:       renderPass.Handle(),
		DescriptorLayout: s.layout,
		VertexLayout:     vertexLayout(),
		ShaderPaths:      s.opts.Shaders,
		Extent:           renderPass.Extent(),
		Samples:          renderPass.Samples(),
		Cache:            s.ctx.PipelineCache(),
	})
	if err != nil {
		return err
	}
	elapsed := hrtime.Now() - start

	s.pipeline = pipeline
	s.builds++
	s.logger.WithFields(logrus.Fields{
		"extent":  renderPass.Extent(),
		"samples": sampleCountValue(renderPass.Samples()),
		"elapsed": elapsed,
		"build":   s.builds,
	}).Debug("pipeline built")
	return nil
}

// PipelineBuilds is the number of pipelines built so far.
func (s *QuadScene) PipelineBuilds() int { return s.builds }

func (s *QuadScene) UpdateUniforms(view, projection mgl32.Mat4) error {
	ubo := UniformBufferObject{MVP: projection.Mul4(view)}
	return s.uniform.Write(ubo.Bytes())
}

func (s *QuadScene) Record() error {
	renderPass := s.ctx.RenderPass()
	return Record(s.ctx.Device().Driver(), s.ctx.CommandBuffer(), RecordInfo{
		RenderPass:  renderPass.Handle(),
		Framebuffer: s.ctx.Framebuffer(),
		Extent:      renderPass.Extent(),

		Pipeline:       s.pipeline.Handle(),
		PipelineLayout: s.pipeline.Layout(),
		DescriptorSet:  s.descriptor.Set(),

		VertexBuffer: s.vertexBuffer.Handle(),
		IndexBuffer:  s.indexBuffer.Handle(),
		IndexCount:   len(quadIndices),
	})
}

// Destroy releases the pipeline and then everything Load created, newest first. The device must
// be idle.
func (s *QuadScene) Destroy() {
	s.pipeline.Destroy()
	s.pipeline = nil

	err := s.release.Release()
	if err != nil {
		s.logger.WithError(err).Error("releasing scene resources")
	}
}
