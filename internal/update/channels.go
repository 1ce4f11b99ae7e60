package update

import (
	"database/sql"
	"errors"

	"OtaUpdateServer/internal/model"
)

// SelfAssign stores a channel override for the device, subject to the target
// channel's policy. A policy violation leaves the stored assignment
// untouched.
func (e *Engine) SelfAssign(appKey, deviceId, platform, channelName string, isEmulator, isProd bool) (model.ChannelStateDTO, error) {
	app, err := e.db.GetAppByKey(appKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ChannelStateDTO{}, ErrAppNotFound
		}
		return model.ChannelStateDTO{}, err
	}

	channel, err := e.db.GetChannel(app.Id, channelName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ChannelStateDTO{}, ErrChannelNotFound
		}
		return model.ChannelStateDTO{}, err
	}

	if !channel.AllowDeviceSelfAssign {
		return model.ChannelStateDTO{}, ErrSelfAssignDenied
	}
	if err := CheckEligibility(channel, platform, isEmulator, isProd); err != nil {
		return model.ChannelStateDTO{}, err
	}

	if err := e.db.SetDeviceChannel(app.Id, deviceId, platform, channelName); err != nil {
		return model.ChannelStateDTO{}, err
	}

	return model.ChannelStateDTO{
		Channel:  channelName,
		Status:   "override",
		AllowSet: true,
	}, nil
}

// ChannelState reports the device's effective channel and whether it comes
// from a stored override or the app default.
func (e *Engine) ChannelState(appKey, deviceId string) (model.ChannelStateDTO, error) {
	app, err := e.db.GetAppByKey(appKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ChannelStateDTO{}, ErrAppNotFound
		}
		return model.ChannelStateDTO{}, err
	}

	device, err := e.db.GetDevice(app.Id, deviceId)
	if err != nil {
		return model.ChannelStateDTO{}, err
	}

	state := model.ChannelStateDTO{
		Channel: app.DefaultChannel,
		Status:  "default",
	}
	if state.Channel == "" {
		state.Channel = model.DefaultChannelName
	}
	if device != nil && device.ChannelOverride != "" {
		state.Channel = device.ChannelOverride
		state.Status = "override"
	}

	channel, err := e.db.GetChannel(app.Id, state.Channel)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return model.ChannelStateDTO{}, err
		}
		// Effective channel not configured yet; nothing to self-assign to
		return state, nil
	}
	state.AllowSet = channel.AllowDeviceSelfAssign

	return state, nil
}

// ClearChannel drops the device's override so it reverts to the app default.
func (e *Engine) ClearChannel(appKey, deviceId string) (model.ChannelStateDTO, error) {
	app, err := e.db.GetAppByKey(appKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ChannelStateDTO{}, ErrAppNotFound
		}
		return model.ChannelStateDTO{}, err
	}

	if err := e.db.ClearDeviceChannel(app.Id, deviceId); err != nil {
		return model.ChannelStateDTO{}, err
	}

	return e.ChannelState(appKey, deviceId)
}

// EligibleChannels lists the public channels the device could self-assign
// to on its platform.
func (e *Engine) EligibleChannels(appKey, platform string, isEmulator, isProd bool) ([]model.ChannelEntity, error) {
	app, err := e.db.GetAppByKey(appKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppNotFound
		}
		return nil, err
	}

	channels, err := e.db.GetChannels(app.Id)
	if err != nil {
		return nil, err
	}

	eligible := make([]model.ChannelEntity, 0, len(channels))
	for _, c := range channels {
		if !c.IsPublic {
			continue
		}
		if platform != "" && CheckEligibility(c, platform, isEmulator, isProd) != nil {
			continue
		}
		eligible = append(eligible, c)
	}

	return eligible, nil
}
