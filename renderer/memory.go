package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/vam"
)

type heapUsage struct {
	Index      int
	Blocks     int
	BlockBytes int
}

// MemoryReport summarizes allocator usage. At teardown every count must be zero.
type MemoryReport struct {
	Allocations     int
	AllocationBytes int
	Blocks          int
	BlockBytes      int
	Heaps           []heapUsage
}

func reportFromStatistics(stats *vam.AllocatorStatistics) MemoryReport {
	report := MemoryReport{
		Allocations:     stats.Total.AllocationCount,
		AllocationBytes: stats.Total.AllocationBytes,
		Blocks:          stats.Total.BlockCount,
		BlockBytes:      stats.Total.BlockBytes,
	}
	for index, heap := range stats.MemoryHeaps {
		if heap.BlockCount == 0 {
			continue
		}
		report.Heaps = append(report.Heaps, heapUsage{
			Index:      index,
			Blocks:     heap.BlockCount,
			BlockBytes: heap.BlockBytes,
		})
	}
	return report
}

// MemoryReport reads the allocator's current statistics.
func (d *Device) MemoryReport() MemoryReport {
	var stats vam.AllocatorStatistics
	d.allocator.CalculateStatistics(&stats)
	return reportFromStatistics(&stats)
}

func (r MemoryReport) JSON() []byte {
	writer := jwriter.NewWriter()

	obj := writer.Object()
	obj.Name("allocations").Int(r.Allocations)
	obj.Name("allocation_bytes").Int(r.AllocationBytes)
	obj.Name("blocks").Int(r.Blocks)
	obj.Name("block_bytes").Int(r.BlockBytes)

	heaps := obj.Name("heaps").Array()
	for _, heap := range r.Heaps {
		heapObj := heaps.Object()
		heapObj.Name("index").Int(heap.Index)
		heapObj.Name("blocks").Int(heap.Blocks)
		heapObj.Name("block_bytes").Int(heap.BlockBytes)
		heapObj.End()
	}
	heaps.End()
	obj.End()

	return writer.Bytes()
}

// LeakCheck fails with ErrLeakedAllocations if any allocation is still live.
func (r MemoryReport) LeakCheck() error {
	if r.Allocations == 0 {
		return nil
	}
	return errors.Wrapf(ErrLeakedAllocations, "%d allocations holding %d bytes", r.Allocations, r.AllocationBytes)
}
