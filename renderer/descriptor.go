package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// CreateDescriptorSetLayout creates the layout shared by every quad descriptor: a uniform buffer
// for the vertex stage at binding 0 and a combined image sampler for the fragment stage at
// binding 1.
func CreateDescriptorSetLayout(driver core1_0.DeviceDriver) (core1_0.DescriptorSetLayout, error) {
	layout, res, err := driver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,

				StageFlags: core1_0.StageVertex,
			},
			{
				Binding:         1,
				DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,

				StageFlags: core1_0.StageFragment,
			},
		},
	})
	if err != nil {
		return core1_0.DescriptorSetLayout{}, vkError(err, res, "creating descriptor set layout")
	}
	return layout, nil
}

// DescriptorBinding names the resources a descriptor set points at.
type DescriptorBinding struct {
	Uniform      core1_0.Buffer
	UniformRange int
	View         core1_0.ImageView
	Sampler      core1_0.Sampler
}

// Descriptor owns a pool sized for exactly one set and the set allocated from it.
type Descriptor struct {
	driver core1_0.DeviceDriver
	layout core1_0.DescriptorSetLayout

	pool    core1_0.DescriptorPool
	set     core1_0.DescriptorSet
	binding DescriptorBinding
	bound   bool
}

// BindDescriptor allocates a set from layout and points it at binding.
func BindDescriptor(driver core1_0.DeviceDriver, layout core1_0.DescriptorSetLayout, binding DescriptorBinding) (*Descriptor, error) {
	d := &Descriptor{driver: driver, layout: layout}
	err := d.bind(binding)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Rebind points the descriptor at binding. When the handles are unchanged nothing happens;
// otherwise the old pool is destroyed and a new set written. The device must be idle.
func (d *Descriptor) Rebind(binding DescriptorBinding) error {
	if d.bound && d.binding == binding {
		return nil
	}
	d.Destroy()
	return d.bind(binding)
}

func (d *Descriptor) bind(binding DescriptorBinding) error {
	pool, res, err := d.driver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: 1,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
			},
			{
				Type:            core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
			},
		},
	})
	if err != nil {
		return vkError(err, res, "creating descriptor pool")
	}

	sets, res, err := d.driver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: pool,
		SetLayouts:     []core1_0.DescriptorSetLayout{d.layout},
	})
	if err != nil {
		d.driver.DestroyDescriptorPool(pool, nil)
		return vkError(err, res, "allocating descriptor set")
	}
	set := sets[0]

	err = d.driver.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
		{
			DstSet:          set,
			DstBinding:      0,
			DstArrayElement: 0,

			DescriptorType: core1_0.DescriptorTypeUniformBuffer,

			BufferInfo: []core1_0.DescriptorBufferInfo{
				{
					Buffer: binding.Uniform,
					Offset: 0,
					Range:  binding.UniformRange,
				},
			},
		},
		{
			DstSet:          set,
			DstBinding:      1,
			DstArrayElement: 0,

			DescriptorType: core1_0.DescriptorTypeCombinedImageSampler,

			ImageInfo: []core1_0.DescriptorImageInfo{
				{
					ImageView:   binding.View,
					Sampler:     binding.Sampler,
					ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
				},
			},
		},
	}, nil)
	if err != nil {
		d.driver.DestroyDescriptorPool(pool, nil)
		return errors.Wrap(err, "writing descriptor set")
	}

	d.pool = pool
	d.set = set
	d.binding = binding
	d.bound = true
	return nil
}

func (d *Descriptor) Set() core1_0.DescriptorSet { return d.set }

// Destroy releases the pool, which frees the set with it.
func (d *Descriptor) Destroy() {
	if d == nil || !d.bound {
		return
	}
	d.driver.DestroyDescriptorPool(d.pool, nil)
	d.pool = core1_0.DescriptorPool{}
	d.set = core1_0.DescriptorSet{}
	d.bound = false
}
