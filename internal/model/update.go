package model

// SentinelVersion is reported by devices still running the assets shipped
// inside the native binary, before any OTA bundle has been installed.
const SentinelVersion = "builtin"

// DeviceCheckDTO is the wire shape of a device check-in. Clients in the wild
// send some fields under two names, so every alternate is bound here and
// collapsed by Normalize before anything else sees the request.
type DeviceCheckDTO struct {
	AppKey    string `json:"appId"`
	AppKeyAlt string `json:"app_id"`

	DeviceId string `json:"deviceId"`

	Version    string `json:"currentVersion"`
	VersionAlt string `json:"version_name"`

	NativeBuild    int `json:"nativeBuildNumber" validate:"gte=0"`
	NativeBuildAlt int `json:"version_build"`

	NativeVersion string `json:"nativeVersion"`

	Platform string `json:"platform" validate:"required,oneof=ios android"`

	Channel        string `json:"channel"`
	DefaultChannel string `json:"defaultChannel"`

	IsEmulator bool `json:"isEmulator"`
	IsProd     bool `json:"isProd"`
}

// Normalize collapses the alternate field names into one canonical request.
// The first name wins when a client sends both.
func (d DeviceCheckDTO) Normalize() CheckRequest {
	appKey := d.AppKey
	if appKey == "" {
		appKey = d.AppKeyAlt
	}
	version := d.Version
	if version == "" {
		version = d.VersionAlt
	}
	build := d.NativeBuild
	if build == 0 {
		build = d.NativeBuildAlt
	}
	return CheckRequest{
		AppKey:         appKey,
		DeviceId:       d.DeviceId,
		Version:        version,
		NativeVersion:  d.NativeVersion,
		NativeBuild:    build,
		Platform:       d.Platform,
		Channel:        d.Channel,
		DefaultChannel: d.DefaultChannel,
		IsEmulator:     d.IsEmulator,
		IsProd:         d.IsProd,
	}
}

// CheckRequest is the canonical internal form of one device check.
type CheckRequest struct {
	AppKey         string
	DeviceId       string
	Version        string
	NativeVersion  string
	NativeBuild    int
	Platform       string
	Channel        string
	DefaultChannel string
	IsEmulator     bool
	IsProd         bool
}

type DecisionKind int

const (
	DecisionNoUpdate DecisionKind = iota
	DecisionUpdateAvailable
	DecisionNativeUpdateRequired
)

const (
	ReasonAppNotFound       = "app_not_found"
	ReasonNoBundleFound     = "no_bundle_for_channel"
	ReasonAlreadyCurrent    = "already_current"
	ReasonNativeUpdateNeeds = "native_update_required"
)

// UpdateDecision is the outcome of one resolution. It is ephemeral and only
// serialized to its wire shape at the HTTP boundary.
type UpdateDecision struct {
	Kind   DecisionKind
	Reason string

	// Set when Kind == DecisionUpdateAvailable.
	Bundle      *BundleEntity
	DownloadUrl string

	// Set when Kind == DecisionNativeUpdateRequired.
	RequiredNativeVersion int
}

type ChannelAssignDTO struct {
	AppKey     string `json:"appId" validate:"required"`
	DeviceId   string `json:"deviceId" validate:"required"`
	Platform   string `json:"platform" validate:"required,oneof=ios android"`
	Channel    string `json:"channel" validate:"required"`
	IsEmulator bool   `json:"isEmulator"`
	IsProd     bool   `json:"isProd"`
}

type ChannelQueryDTO struct {
	AppKey   string `json:"appId" query:"appId" validate:"required"`
	DeviceId string `json:"deviceId" query:"deviceId" validate:"required"`
	Platform string `json:"platform" query:"platform" validate:"omitempty,oneof=ios android"`
}

type ChannelListDTO struct {
	AppKey     string `query:"appId" validate:"required"`
	Platform   string `query:"platform" validate:"omitempty,oneof=ios android"`
	IsEmulator bool   `query:"isEmulator"`
	IsProd     bool   `query:"isProd"`
}

type ChannelStateDTO struct {
	Channel  string `json:"channel"`
	Status   string `json:"status"`
	AllowSet bool   `json:"allowSet"`
}
