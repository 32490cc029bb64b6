package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeviceSpecEmptyOrAutoWithoutCUDA(t *testing.T) {
	SetCUDAAvailable(false)
	devices, invalid := ParseDeviceSpec("")
	assert.Equal(t, []Device{DeviceCPU}, devices)
	assert.Empty(t, invalid)

	devices, invalid = ParseDeviceSpec("auto")
	assert.Equal(t, []Device{DeviceCPU}, devices)
	assert.Empty(t, invalid)
}

func TestParseDeviceSpecAutoWithCUDA(t *testing.T) {
	SetCUDAAvailable(true)
	defer SetCUDAAvailable(false)
	devices, invalid := ParseDeviceSpec("auto")
	assert.Equal(t, []Device{Device("cuda:0")}, devices)
	assert.Empty(t, invalid)
}

func TestParseDeviceSpecCPU(t *testing.T) {
	devices, invalid := ParseDeviceSpec("CPU")
	assert.Equal(t, []Device{DeviceCPU}, devices)
	assert.Empty(t, invalid)
}

func TestParseDeviceSpecCommaSeparatedIDs(t *testing.T) {
	devices, invalid := ParseDeviceSpec("0,1,2")
	assert.Equal(t, []Device{Device("cuda:0"), Device("cuda:1"), Device("cuda:2")}, devices)
	assert.Empty(t, invalid)
}

func TestParseDeviceSpecSkipsInvalidIDs(t *testing.T) {
	devices, invalid := ParseDeviceSpec("0,x,2")
	assert.Equal(t, []Device{Device("cuda:0"), Device("cuda:2")}, devices)
	assert.Equal(t, []string{"x"}, invalid)
}
