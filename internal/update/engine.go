package update

import (
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"OtaUpdateServer/internal/model"
	"OtaUpdateServer/internal/version"
)

// Store is the slice of the database service the engine needs.
type Store interface {
	GetAppByKey(appKey string) (model.AppEntity, error)
	GetChannel(appId int, name string) (model.ChannelEntity, error)
	GetChannels(appId int) ([]model.ChannelEntity, error)
	ActiveBundle(appId int, channelName, platform string) (*model.BundleEntity, error)
	GetDevice(appId int, deviceId string) (*model.DeviceEntity, error)
	UpsertDevice(data model.UpsertDeviceData) error
	SetDeviceChannel(appId int, deviceId, platform, channel string) error
	ClearDeviceChannel(appId int, deviceId string) error
	CreateCheckin(data model.NewCheckinData) error
}

type Engine struct {
	db Store

	// Base URL prepended to bundles referenced by storage path rather than
	// an absolute download URL.
	bundleBaseUrl string

	now func() int64
}

func NewEngine(db Store, bundleBaseUrl string) *Engine {
	return &Engine{
		db:            db,
		bundleBaseUrl: strings.TrimSuffix(bundleBaseUrl, "/"),
		now:           func() int64 { return time.Now().Unix() },
	}
}

// Resolve answers one device check. A store failure fails the whole request;
// the check-in side effect is recorded after the decision and can never
// change it.
func (e *Engine) Resolve(req model.CheckRequest) (model.UpdateDecision, error) {
	app, err := e.db.GetAppByKey(req.AppKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return noUpdate(model.ReasonAppNotFound), nil
		}
		return model.UpdateDecision{}, err
	}

	storedOverride := ""
	if req.DeviceId != "" {
		device, err := e.db.GetDevice(app.Id, req.DeviceId)
		if err != nil {
			return model.UpdateDecision{}, err
		}
		if device != nil {
			storedOverride = device.ChannelOverride
		}
	}

	channelName := ResolveChannelName(req.Channel, storedOverride, req.DefaultChannel, app.DefaultChannel)

	bundle, err := e.db.ActiveBundle(app.Id, channelName, req.Platform)
	if err != nil {
		return model.UpdateDecision{}, err
	}

	decision := e.decide(bundle, req)

	// Stats and registration are skipped for anonymous checks
	if req.DeviceId != "" {
		e.recordCheckin(app.Id, channelName, req)
	}

	return decision, nil
}

func (e *Engine) decide(bundle *model.BundleEntity, req model.CheckRequest) model.UpdateDecision {
	if bundle == nil {
		return noUpdate(model.ReasonNoBundleFound)
	}

	if !version.Newer(bundle.Version, req.Version) {
		return noUpdate(model.ReasonAlreadyCurrent)
	}

	if bundle.MinNativeVersion > 0 && req.NativeBuild < bundle.MinNativeVersion {
		return model.UpdateDecision{
			Kind:                  model.DecisionNativeUpdateRequired,
			Reason:                model.ReasonNativeUpdateNeeds,
			RequiredNativeVersion: bundle.MinNativeVersion,
		}
	}

	return model.UpdateDecision{
		Kind:        model.DecisionUpdateAvailable,
		Bundle:      bundle,
		DownloadUrl: e.resolveDownloadUrl(bundle),
	}
}

func (e *Engine) resolveDownloadUrl(bundle *model.BundleEntity) string {
	if bundle.DownloadUrl != "" {
		return bundle.DownloadUrl
	}
	return e.bundleBaseUrl + "/" + strings.TrimPrefix(bundle.StoragePath, "/")
}

// recordCheckin upserts the device's last-seen state and appends a check-in
// event. Best effort: failures are logged and swallowed so they cannot mask
// the decision already computed.
func (e *Engine) recordCheckin(appId int, channelName string, req model.CheckRequest) {
	now := e.now()

	err := e.db.UpsertDevice(model.UpsertDeviceData{
		AppId:         appId,
		DeviceId:      req.DeviceId,
		Platform:      req.Platform,
		BundleVersion: req.Version,
		NativeVersion: req.NativeVersion,
		NativeBuild:   req.NativeBuild,
		IsEmulator:    req.IsEmulator,
		IsProd:        req.IsProd,
		LastSeenAt:    now,
	})
	if err != nil {
		log.Printf("Error upserting device '%s' for app %d: %v\n", req.DeviceId, appId, err)
	}

	err = e.db.CreateCheckin(model.NewCheckinData{
		AppId:         appId,
		DeviceId:      req.DeviceId,
		Platform:      req.Platform,
		BundleVersion: req.Version,
		NativeBuild:   req.NativeBuild,
		Channel:       channelName,
		CreatedAt:     now,
	})
	if err != nil {
		log.Printf("Error recording checkin for device '%s': %v\n", req.DeviceId, err)
	}
}

func noUpdate(reason string) model.UpdateDecision {
	return model.UpdateDecision{
		Kind:   model.DecisionNoUpdate,
		Reason: reason,
	}
}
