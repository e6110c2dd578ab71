package renderer

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/vam"
)

func TestMemoryReportClean(t *testing.T) {
	var stats vam.AllocatorStatistics
	report := reportFromStatistics(&stats)

	require.NoError(t, report.LeakCheck())
	require.JSONEq(t, `{"allocations":0,"allocation_bytes":0,"blocks":0,"block_bytes":0,"heaps":[]}`, string(report.JSON()))
}

func TestMemoryReportLeak(t *testing.T) {
	var stats vam.AllocatorStatistics
	stats.Total.AllocationCount = 2
	stats.Total.AllocationBytes = 2000
	stats.Total.BlockCount = 1
	stats.Total.BlockBytes = 16628
	stats.MemoryHeaps[1].BlockCount = 1
	stats.MemoryHeaps[1].BlockBytes = 16628

	report := reportFromStatistics(&stats)
	err := report.LeakCheck()
	require.True(t, errors.Is(err, ErrLeakedAllocations))
	require.Contains(t, err.Error(), "2 allocations")

	var decoded struct {
		Allocations int `json:"allocations"`
		Heaps       []struct {
			Index      int `json:"index"`
			BlockBytes int `json:"block_bytes"`
		} `json:"heaps"`
	}
	require.NoError(t, json.Unmarshal(report.JSON(), &decoded))
	require.Equal(t, 2, decoded.Allocations)
	require.Len(t, decoded.Heaps, 1)
	require.Equal(t, 1, decoded.Heaps[0].Index)
	require.Equal(t, 16628, decoded.Heaps[0].BlockBytes)
}
