// Package engine defines the capability interfaces a concrete inference
// engine implements (FileASR, StreamingASR, PresetTTS, CloneTTS), device
// spec parsing for ASR_GPUS/TTS_GPUS, and the multi-replica pool that
// load-balances across them (§4.2).
package engine

import (
	"strconv"
	"strings"
)

// Device identifies one replica's compute target, e.g. "cpu" or "cuda:0".
type Device string

const (
	DeviceCPU = Device("cpu")
)

func cudaDevice(id string) Device { return Device("cuda:" + id) }

// hasCUDA reports whether this process believes a CUDA device is available.
// The inference engines themselves are out of this gateway's scope (§1);
// detection is therefore a configuration toggle rather than a real CUDA
// probe, keeping the gateway runnable on a GPU-less CI host.
var hasCUDA = false

// SetCUDAAvailable lets the process announce CUDA availability (e.g. from an
// engine constructor probe) before device specs are resolved.
func SetCUDAAvailable(v bool) { hasCUDA = v }

// ParseDeviceSpec resolves ASR_GPUS/TTS_GPUS (§4.2):
//   - empty or "auto" -> [cuda:0] if CUDA present else [cpu]
//   - "cpu" -> [cpu]
//   - comma-separated digits -> one replica per listed GPU id; invalid ids
//     are skipped (the caller is expected to log them).
//
// Returns the resolved devices and the ids that failed to parse.
func ParseDeviceSpec(spec string) (devices []Device, invalid []string) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "auto") {
		if hasCUDA {
			return []Device{cudaDevice("0")}, nil
		}
		return []Device{DeviceCPU}, nil
	}
	if strings.EqualFold(spec, "cpu") {
		return []Device{DeviceCPU}, nil
	}
	parts := strings.Split(spec, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := strconv.Atoi(p); err != nil {
			invalid = append(invalid, p)
			continue
		}
		devices = append(devices, cudaDevice(p))
	}
	return devices, invalid
}
