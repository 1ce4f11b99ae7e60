package database

import (
	"database/sql"
	"errors"
	"fmt"

	"OtaUpdateServer/internal/model"
)

// UpsertDevice records a device check-in. Concurrent check-ins from the same
// device race on the last-seen fields only, so last writer wins. The stored
// channel override is never touched here.
func (s *service) UpsertDevice(data model.UpsertDeviceData) error {
	query := `INSERT INTO ota_devices(app_id, device_id, platform, bundle_version, native_version, native_build, is_emulator, is_prod, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (app_id, device_id) DO UPDATE SET
			platform = EXCLUDED.platform,
			bundle_version = EXCLUDED.bundle_version,
			native_version = EXCLUDED.native_version,
			native_build = EXCLUDED.native_build,
			is_emulator = EXCLUDED.is_emulator,
			is_prod = EXCLUDED.is_prod,
			last_seen_at = EXCLUDED.last_seen_at`

	_, err := s.db.Exec(
		query,
		data.AppId,
		data.DeviceId,
		data.Platform,
		data.BundleVersion,
		data.NativeVersion,
		data.NativeBuild,
		data.IsEmulator,
		data.IsProd,
		data.LastSeenAt,
	)

	return err
}

func (s *service) GetDevice(appId int, deviceId string) (*model.DeviceEntity, error) {
	query := `SELECT id, app_id, device_id, platform, bundle_version, native_version, native_build, is_emulator, is_prod, channel_override, last_seen_at
		FROM ota_devices WHERE app_id = $1 AND device_id = $2`

	var d model.DeviceEntity
	err := s.db.QueryRow(query, appId, deviceId).Scan(
		&d.Id,
		&d.AppId,
		&d.DeviceId,
		&d.Platform,
		&d.BundleVersion,
		&d.NativeVersion,
		&d.NativeBuild,
		&d.IsEmulator,
		&d.IsProd,
		&d.ChannelOverride,
		&d.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &d, nil
}

func (s *service) SetDeviceChannel(appId int, deviceId, platform, channel string) error {
	query := `INSERT INTO ota_devices(app_id, device_id, platform, channel_override)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (app_id, device_id) DO UPDATE SET channel_override = EXCLUDED.channel_override`

	_, err := s.db.Exec(query, appId, deviceId, platform, channel)

	return err
}

func (s *service) ClearDeviceChannel(appId int, deviceId string) error {
	query := "UPDATE ota_devices SET channel_override = '' WHERE app_id = $1 AND device_id = $2"

	// A device without a row has no override to clear, so zero rows
	// affected is fine
	_, err := s.db.Exec(query, appId, deviceId)

	return err
}

func (s *service) CreateCheckin(data model.NewCheckinData) error {
	query := "INSERT INTO ota_checkins(app_id, device_id, platform, bundle_version, native_build, channel, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)"

	res, err := s.db.Exec(
		query,
		data.AppId,
		data.DeviceId,
		data.Platform,
		data.BundleVersion,
		data.NativeBuild,
		data.Channel,
		data.CreatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		return fmt.Errorf("Expected 1 checkin to be inserted but was %d", rowsAffected)
	}

	return nil
}
