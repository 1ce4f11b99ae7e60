package update

import (
	"testing"

	"OtaUpdateServer/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfAssign(t *testing.T) {
	store := seedStore()
	store.channels[channelKey(1, "beta")] = model.ChannelEntity{
		Id:                    11,
		AppId:                 1,
		Name:                  "beta",
		AllowDeviceSelfAssign: true,
		AllowEmulator:         true,
		AllowDevBuilds:        true,
		AndroidEnabled:        true,
	}
	engine := NewEngine(store, "")

	state, err := engine.SelfAssign("com.example.app", "device-1", model.PlatformAndroid, "beta", false, true)
	require.NoError(t, err)

	assert.Equal(t, "beta", state.Channel)
	assert.Equal(t, "override", state.Status)
	assert.True(t, state.AllowSet)
	assert.Equal(t, "beta", store.devices[deviceKey(1, "device-1")].ChannelOverride)
}

func TestSelfAssignDenied(t *testing.T) {
	store := seedStore()
	// production does not allow self-assignment
	engine := NewEngine(store, "")

	_, err := engine.SelfAssign("com.example.app", "device-1", model.PlatformAndroid, "production", false, true)
	assert.ErrorIs(t, err, ErrSelfAssignDenied)

	_, ok := store.devices[deviceKey(1, "device-1")]
	assert.False(t, ok, "denied assignment must not mutate the device")
}

func TestSelfAssignPolicyChecks(t *testing.T) {
	store := seedStore()
	store.channels[channelKey(1, "dev")] = model.ChannelEntity{
		Id:                    12,
		AppId:                 1,
		Name:                  "dev",
		AllowDeviceSelfAssign: true,
		AllowEmulator:         false,
		AllowDevBuilds:        true,
		IosEnabled:            true,
	}
	engine := NewEngine(store, "")

	_, err := engine.SelfAssign("com.example.app", "device-1", model.PlatformAndroid, "dev", false, true)
	assert.ErrorIs(t, err, ErrPlatformDisabled)

	_, err = engine.SelfAssign("com.example.app", "device-1", model.PlatformIos, "dev", true, true)
	assert.ErrorIs(t, err, ErrEmulatorDenied)

	_, err = engine.SelfAssign("com.example.app", "device-1", model.PlatformIos, "missing", false, true)
	assert.ErrorIs(t, err, ErrChannelNotFound)

	_, err = engine.SelfAssign("com.example.missing", "device-1", model.PlatformIos, "dev", false, true)
	assert.ErrorIs(t, err, ErrAppNotFound)
}

func TestChannelState(t *testing.T) {
	store := seedStore()
	engine := NewEngine(store, "")

	state, err := engine.ChannelState("com.example.app", "device-1")
	require.NoError(t, err)
	assert.Equal(t, "production", state.Channel)
	assert.Equal(t, "default", state.Status)
	assert.False(t, state.AllowSet)

	store.devices[deviceKey(1, "device-1")] = model.DeviceEntity{
		AppId:           1,
		DeviceId:        "device-1",
		ChannelOverride: "beta",
	}

	state, err = engine.ChannelState("com.example.app", "device-1")
	require.NoError(t, err)
	assert.Equal(t, "beta", state.Channel)
	assert.Equal(t, "override", state.Status)
}

func TestClearChannel(t *testing.T) {
	store := seedStore()
	store.devices[deviceKey(1, "device-1")] = model.DeviceEntity{
		AppId:           1,
		DeviceId:        "device-1",
		ChannelOverride: "beta",
	}
	engine := NewEngine(store, "")

	state, err := engine.ClearChannel("com.example.app", "device-1")
	require.NoError(t, err)

	assert.Equal(t, "production", state.Channel)
	assert.Equal(t, "default", state.Status)
	assert.Empty(t, store.devices[deviceKey(1, "device-1")].ChannelOverride)
}

func TestClearChannelUnknownDevice(t *testing.T) {
	store := seedStore()
	engine := NewEngine(store, "")

	// A device that never checked in has no override; clearing is a no-op
	// that reports the default state
	state, err := engine.ClearChannel("com.example.app", "never-seen")
	require.NoError(t, err)

	assert.Equal(t, "production", state.Channel)
	assert.Equal(t, "default", state.Status)
}

func TestEligibleChannels(t *testing.T) {
	store := seedStore()
	store.channels[channelKey(1, "beta")] = model.ChannelEntity{
		Id:             11,
		AppId:          1,
		Name:           "beta",
		IsPublic:       true,
		AllowEmulator:  true,
		AllowDevBuilds: true,
		IosEnabled:     true,
	}
	store.channels[channelKey(1, "internal")] = model.ChannelEntity{
		Id:             12,
		AppId:          1,
		Name:           "internal",
		IsPublic:       false,
		AndroidEnabled: true,
	}
	engine := NewEngine(store, "")

	channels, err := engine.EligibleChannels("com.example.app", model.PlatformAndroid, false, true)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "production", channels[0].Name, "private and ios-only channels are filtered out")

	channels, err = engine.EligibleChannels("com.example.app", model.PlatformIos, false, true)
	require.NoError(t, err)
	assert.Len(t, channels, 2)
}
