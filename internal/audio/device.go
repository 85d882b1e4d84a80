package audio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gen2brain/malgo"
)

// DeviceType represents the type of audio device
type DeviceType int

const (
	DeviceTypePlayback DeviceType = iota
	DeviceTypeCapture
)

func (t DeviceType) String() string {
	if t == DeviceTypeCapture {
		return "capture"
	}
	return "playback"
}

func (t DeviceType) malgo() malgo.DeviceType {
	if t == DeviceTypeCapture {
		return malgo.Capture
	}
	return malgo.Playback
}

// DeviceInfo describes an audio endpoint
type DeviceInfo struct {
	ID        string // "<type>-<index>", stable for one enumeration
	Name      string
	Type      DeviceType
	IsDefault bool
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	defaultMarker := ""
	if d.IsDefault {
		defaultMarker = " [DEFAULT]"
	}
	return fmt.Sprintf("%s: %s%s", d.ID, d.Name, defaultMarker)
}

// ListDevices returns capture and playback devices
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	var devices []DeviceInfo
	for _, kind := range []DeviceType{DeviceTypeCapture, DeviceTypePlayback} {
		infos, err := ctx.Devices(kind.malgo())
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate %s devices: %w", kind, err)
		}
		for i, info := range infos {
			devices = append(devices, DeviceInfo{
				ID:        fmt.Sprintf("%s-%d", kind, i),
				Name:      info.Name(),
				Type:      kind,
				IsDefault: info.IsDefault > 0,
			})
		}
	}

	return devices, nil
}

// FindDevice matches a device by exact ID or case-insensitive partial name
func FindDevice(devices []DeviceInfo, query string) (*DeviceInfo, error) {
	for i := range devices {
		if devices[i].ID == query {
			return &devices[i], nil
		}
	}

	needle := strings.ToLower(query)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), needle) {
			return &devices[i], nil
		}
	}

	return nil, fmt.Errorf("no device found matching: %s", query)
}

// lookupDevice resolves a selector against an initialised malgo context.
// Selector is either a ListDevices ID or part of a device name.
func lookupDevice(ctx malgo.Context, kind DeviceType, selector string) (*malgo.DeviceInfo, error) {
	infos, err := ctx.Devices(kind.malgo())
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s devices: %w", kind, err)
	}

	prefix := kind.String() + "-"
	if idx, ok := strings.CutPrefix(selector, prefix); ok {
		if i, err := strconv.Atoi(idx); err == nil && i >= 0 && i < len(infos) {
			return &infos[i], nil
		}
	}

	needle := strings.ToLower(selector)
	for i := range infos {
		if strings.Contains(strings.ToLower(infos[i].Name()), needle) {
			return &infos[i], nil
		}
	}

	return nil, fmt.Errorf("%s device not found: %s", kind, selector)
}
