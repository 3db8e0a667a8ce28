package device

import (
	"fmt"

	"github.com/notargets/gocca"
)

// NewTestDevice creates a device for tests and examples, preferring parallel
// backends and falling back to Serial.
func NewTestDevice() (*gocca.OCCADevice, error) {
	backends := []string{
		`{"mode": "OpenMP"}`,
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "Serial"}`,
	}
	for _, props := range backends {
		dev, err := gocca.NewDevice(props)
		if err == nil {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("device: no OCCA backend available")
}
