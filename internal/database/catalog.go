package database

import (
	"database/sql"
	"errors"
	"fmt"

	"OtaUpdateServer/internal/model"
)

func (s *service) CreateApp(data model.NewAppData) (int, error) {
	query := "INSERT INTO ota_apps(app_key, name, default_channel, created_at) VALUES ($1, $2, $3, EXTRACT(EPOCH FROM NOW())::BIGINT) RETURNING id"

	defaultChannel := data.DefaultChannel
	if defaultChannel == "" {
		defaultChannel = model.DefaultChannelName
	}

	var id int
	err := s.db.QueryRow(query, data.AppKey, data.Name, defaultChannel).Scan(&id)

	return id, err
}

func (s *service) GetApp(id int) (model.AppEntity, error) {
	query := "SELECT id, app_key, name, default_channel, created_at FROM ota_apps WHERE id = $1"

	var app model.AppEntity
	err := s.db.QueryRow(query, id).Scan(&app.Id, &app.AppKey, &app.Name, &app.DefaultChannel, &app.CreatedAt)

	return app, err
}

func (s *service) GetAppByKey(appKey string) (model.AppEntity, error) {
	query := "SELECT id, app_key, name, default_channel, created_at FROM ota_apps WHERE app_key = $1"

	var app model.AppEntity
	err := s.db.QueryRow(query, appKey).Scan(&app.Id, &app.AppKey, &app.Name, &app.DefaultChannel, &app.CreatedAt)

	return app, err
}

func (s *service) GetApps() ([]model.AppEntity, error) {
	query := "SELECT id, app_key, name, default_channel, created_at FROM ota_apps ORDER BY id"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]model.AppEntity, 0)
	for rows.Next() {
		var app model.AppEntity
		if err := rows.Scan(&app.Id, &app.AppKey, &app.Name, &app.DefaultChannel, &app.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}

func (s *service) CreateChannel(data model.NewChannelData) (int, error) {
	query := "INSERT INTO ota_channels(app_id, name, is_public, allow_device_self_assign, allow_dev_builds, allow_emulator, ios_enabled, android_enabled) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id"

	var id int
	err := s.db.QueryRow(
		query,
		data.AppId,
		data.Name,
		data.IsPublic,
		data.AllowDeviceSelfAssign,
		data.AllowDevBuilds,
		data.AllowEmulator,
		data.IosEnabled,
		data.AndroidEnabled,
	).Scan(&id)

	return id, err
}

const channelColumns = "id, app_id, name, is_public, allow_device_self_assign, allow_dev_builds, allow_emulator, ios_enabled, android_enabled, COALESCE(active_bundle_id, 0)"

func scanChannel(row interface{ Scan(...any) error }) (model.ChannelEntity, error) {
	var c model.ChannelEntity
	err := row.Scan(
		&c.Id,
		&c.AppId,
		&c.Name,
		&c.IsPublic,
		&c.AllowDeviceSelfAssign,
		&c.AllowDevBuilds,
		&c.AllowEmulator,
		&c.IosEnabled,
		&c.AndroidEnabled,
		&c.ActiveBundleId,
	)
	return c, err
}

func (s *service) GetChannel(appId int, name string) (model.ChannelEntity, error) {
	query := fmt.Sprintf("SELECT %s FROM ota_channels WHERE app_id = $1 AND name = $2", channelColumns)

	return scanChannel(s.db.QueryRow(query, appId, name))
}

func (s *service) GetChannelById(id int) (model.ChannelEntity, error) {
	query := fmt.Sprintf("SELECT %s FROM ota_channels WHERE id = $1", channelColumns)

	return scanChannel(s.db.QueryRow(query, id))
}

func (s *service) GetChannels(appId int) ([]model.ChannelEntity, error) {
	query := fmt.Sprintf("SELECT %s FROM ota_channels WHERE app_id = $1 ORDER BY name", channelColumns)

	rows, err := s.db.Query(query, appId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := make([]model.ChannelEntity, 0)
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}

	return channels, rows.Err()
}

func (s *service) UpdateChannelPolicy(id int, patch model.UpdateChannelDTO) error {
	query := `UPDATE ota_channels SET
		is_public = COALESCE($2::BOOLEAN, is_public),
		allow_device_self_assign = COALESCE($3::BOOLEAN, allow_device_self_assign),
		allow_dev_builds = COALESCE($4::BOOLEAN, allow_dev_builds),
		allow_emulator = COALESCE($5::BOOLEAN, allow_emulator),
		ios_enabled = COALESCE($6::BOOLEAN, ios_enabled),
		android_enabled = COALESCE($7::BOOLEAN, android_enabled)
		WHERE id = $1`

	res, err := s.db.Exec(
		query,
		id,
		patch.IsPublic,
		patch.AllowDeviceSelfAssign,
		patch.AllowDevBuilds,
		patch.AllowEmulator,
		patch.IosEnabled,
		patch.AndroidEnabled,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		return fmt.Errorf("Expected 1 channel to be updated but was %d", rowsAffected)
	}

	return nil
}

const bundleColumns = "id, app_id, platform, version, download_url, storage_path, checksum, session_key, manifest, min_native_version, required, active, deleted, created_at"

func scanBundle(row interface{ Scan(...any) error }) (model.BundleEntity, error) {
	var b model.BundleEntity
	err := row.Scan(
		&b.Id,
		&b.AppId,
		&b.Platform,
		&b.Version,
		&b.DownloadUrl,
		&b.StoragePath,
		&b.Checksum,
		&b.SessionKey,
		&b.Manifest,
		&b.MinNativeVersion,
		&b.Required,
		&b.Active,
		&b.Deleted,
		&b.CreatedAt,
	)
	return b, err
}

func (s *service) PublishBundle(data model.NewBundleData, channelName string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return -1, err
	}
	defer tx.Rollback()

	query := "INSERT INTO ota_bundles(app_id, platform, version, download_url, storage_path, checksum, session_key, manifest, min_native_version, required, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id"

	var id int
	err = tx.QueryRow(
		query,
		data.AppId,
		data.Platform,
		data.Version,
		data.DownloadUrl,
		data.StoragePath,
		data.Checksum,
		data.SessionKey,
		data.Manifest,
		data.MinNativeVersion,
		data.Required,
		data.CreatedAt,
	).Scan(&id)
	if err != nil {
		return -1, err
	}

	res, err := tx.Exec("UPDATE ota_channels SET active_bundle_id = $1 WHERE app_id = $2 AND name = $3", id, data.AppId, channelName)
	if err != nil {
		return -1, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return -1, err
	}

	if rowsAffected != 1 {
		return -1, fmt.Errorf("No channel named '%s' for app %d. Rolling back", channelName, data.AppId)
	}

	return id, tx.Commit()
}

func (s *service) GetBundle(id int) (model.BundleEntity, error) {
	query := fmt.Sprintf("SELECT %s FROM ota_bundles WHERE id = $1", bundleColumns)

	return scanBundle(s.db.QueryRow(query, id))
}

func (s *service) GetBundles(appId int) ([]model.BundleEntity, error) {
	query := fmt.Sprintf("SELECT %s FROM ota_bundles WHERE app_id = $1 AND NOT deleted ORDER BY id DESC", bundleColumns)

	rows, err := s.db.Query(query, appId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bundles := make([]model.BundleEntity, 0)
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}

	return bundles, rows.Err()
}

func (s *service) ActiveBundle(appId int, channelName, platform string) (*model.BundleEntity, error) {
	query := fmt.Sprintf(`SELECT %s FROM ota_bundles
		WHERE id = (SELECT active_bundle_id FROM ota_channels WHERE app_id = $1 AND name = $2)
		AND platform = $3 AND active AND NOT deleted`, bundleColumns)

	b, err := scanBundle(s.db.QueryRow(query, appId, channelName, platform))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Unknown channel, empty pointer and platform mismatch all look
			// the same to the resolution engine
			return nil, nil
		}
		return nil, err
	}

	return &b, nil
}

func (s *service) RollbackChannel(appId int, channelName string, bundleId int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE ota_bundles SET active = TRUE WHERE id = $1 AND app_id = $2 AND NOT deleted", bundleId, appId)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return fmt.Errorf("No bundle with id %d for app %d. Rolling back", bundleId, appId)
	}

	res, err = tx.Exec("UPDATE ota_channels SET active_bundle_id = $1 WHERE app_id = $2 AND name = $3", bundleId, appId, channelName)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return fmt.Errorf("No channel named '%s' for app %d. Rolling back", channelName, appId)
	}

	return tx.Commit()
}

func (s *service) SoftDeleteBundle(id int) error {
	query := `UPDATE ota_bundles SET deleted = TRUE, active = FALSE
		WHERE id = $1
		AND NOT EXISTS (SELECT 1 FROM ota_channels WHERE active_bundle_id = $1)`

	res, err := s.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		return fmt.Errorf("Bundle %d is unknown or still referenced by a channel", id)
	}

	return nil
}
