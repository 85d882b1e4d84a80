package app

import (
	"fmt"
	"io"

	"github.com/emmett/blacknox/internal/audio"
)

// DeviceManager handles audio device listing and selection
type DeviceManager struct {
	out  io.Writer
	list func() ([]audio.DeviceInfo, error)
}

// NewDeviceManager creates a DeviceManager that prints to out
func NewDeviceManager(out io.Writer) *DeviceManager {
	return &DeviceManager{out: out, list: audio.ListDevices}
}

// ListDevices prints capture and playback devices
func (dm *DeviceManager) ListDevices() error {
	devices, err := dm.list()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Fprintln(dm.out, "No audio devices found.")
		return fmt.Errorf("no devices found")
	}

	for _, kind := range []audio.DeviceType{audio.DeviceTypeCapture, audio.DeviceTypePlayback} {
		fmt.Fprintf(dm.out, "%s devices:\n", kind)
		found := false
		for _, device := range devices {
			if device.Type != kind {
				continue
			}
			found = true
			fmt.Fprintf(dm.out, "  %s\n", device)
		}
		if !found {
			fmt.Fprintln(dm.out, "  (none)")
		}
		fmt.Fprintln(dm.out)
	}

	fmt.Fprintln(dm.out, "Select devices in the config file:")
	fmt.Fprintln(dm.out, "  audio:")
	fmt.Fprintln(dm.out, "    device: \"<capture id or name>\"")
	fmt.Fprintln(dm.out, "    output_device: \"<playback id or name>\"")
	return nil
}

// SelectDevice checks that query names a device of the given kind. An
// empty query selects the system default.
func (dm *DeviceManager) SelectDevice(kind audio.DeviceType, query string) (*audio.DeviceInfo, error) {
	devices, err := dm.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	var candidates []audio.DeviceInfo
	for _, device := range devices {
		if device.Type == kind {
			candidates = append(candidates, device)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no audio %s devices found", kind)
	}

	if query == "" {
		for i := range candidates {
			if candidates[i].IsDefault {
				return &candidates[i], nil
			}
		}
		return &candidates[0], nil
	}

	return audio.FindDevice(candidates, query)
}
