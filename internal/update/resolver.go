// Package update decides whether a checking-in device should receive a new
// bundle, and manages the device's channel assignment.
package update

import (
	"errors"

	"OtaUpdateServer/internal/model"
)

var (
	ErrAppNotFound     = errors.New("unknown app")
	ErrChannelNotFound = errors.New("unknown channel")

	// Policy violations. Surfaced to the assignment caller, never silently
	// downgraded to "no update".
	ErrSelfAssignDenied = errors.New("channel does not allow device self-assignment")
	ErrPlatformDisabled = errors.New("channel is not enabled for this platform")
	ErrEmulatorDenied   = errors.New("channel does not allow emulator devices")
	ErrDevBuildDenied   = errors.New("channel does not allow development builds")
)

// ResolveChannelName picks the effective channel name for one request.
// Precedence: explicit request > stored device override > request default
// hint > app default > hard fallback. No existence check happens here;
// unknown names degrade to "no bundle" at catalog lookup.
func ResolveChannelName(requested, stored, requestedDefault, appDefault string) string {
	if requested != "" {
		return requested
	}
	if stored != "" {
		return stored
	}
	if requestedDefault != "" {
		return requestedDefault
	}
	if appDefault != "" {
		return appDefault
	}
	return model.DefaultChannelName
}

// CheckEligibility applies the channel's policy flags to a device. A nil
// error means the device may use the channel.
func CheckEligibility(channel model.ChannelEntity, platform string, isEmulator, isProd bool) error {
	if !channel.PlatformEnabled(platform) {
		return ErrPlatformDisabled
	}
	if isEmulator && !channel.AllowEmulator {
		return ErrEmulatorDenied
	}
	if !isProd && !channel.AllowDevBuilds {
		return ErrDevBuildDenied
	}
	return nil
}
