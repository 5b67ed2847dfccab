package monitor

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rileyhilliard/gpumon/internal/errors"
)

// maxStatusBytes bounds how much of a status response is read.
const maxStatusBytes = 1 << 20

// wireStatus mirrors the status payload with pointer fields so that
// missing required keys can be told apart from zero values.
type wireStatus struct {
	Hostname  *string    `json:"hostname"`
	Timestamp *string    `json:"timestamp"`
	GPUCount  *int       `json:"gpu_count"`
	GPUs      *[]wireGPU `json:"gpus"`
}

type wireGPU struct {
	GPUID              *int     `json:"gpu_id"`
	PowerDrawWatts     *float64 `json:"power_draw_watts"`
	MemoryFreeMB       *int     `json:"memory_free_mb"`
	UtilizationPercent *int     `json:"utilization_percent"`
}

// DecodeStatus decodes a status payload. gpu_count, gpus and the per-GPU
// gpu_id, power_draw_watts and utilization_percent keys are required;
// memory_free_mb may be absent or null. A missing hostname or timestamp
// decodes as an empty string. Unknown keys are ignored.
func DecodeStatus(r io.Reader) (*HostStatus, error) {
	var w wireStatus
	if err := json.NewDecoder(io.LimitReader(r, maxStatusBytes)).Decode(&w); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDecode,
			"Status payload is not valid JSON", "")
	}

	if w.GPUCount == nil {
		return nil, missingKey("gpu_count")
	}
	if w.GPUs == nil {
		return nil, missingKey("gpus")
	}

	status := &HostStatus{
		GPUCount: *w.GPUCount,
		Samples:  make([]GPUSample, 0, len(*w.GPUs)),
	}
	if w.Hostname != nil {
		status.Hostname = *w.Hostname
	}
	if w.Timestamp != nil {
		status.ReportedAt = *w.Timestamp
	}

	for i, g := range *w.GPUs {
		switch {
		case g.GPUID == nil:
			return nil, missingKey(fmt.Sprintf("gpus[%d].gpu_id", i))
		case g.PowerDrawWatts == nil:
			return nil, missingKey(fmt.Sprintf("gpus[%d].power_draw_watts", i))
		case g.UtilizationPercent == nil:
			return nil, missingKey(fmt.Sprintf("gpus[%d].utilization_percent", i))
		}
		status.Samples = append(status.Samples, GPUSample{
			ID:                 *g.GPUID,
			PowerWatts:         *g.PowerDrawWatts,
			FreeMemoryMB:       g.MemoryFreeMB,
			UtilizationPercent: *g.UtilizationPercent,
		})
	}

	return status, nil
}

func missingKey(key string) error {
	return errors.New(errors.ErrDecode,
		fmt.Sprintf("Status payload is missing '%s'", key), "")
}
