package model

// DefaultChannelName is the hard fallback when neither the app, the device
// nor the request names a channel.
const DefaultChannelName = "production"

type NewChannelData struct {
	AppId                 int
	Name                  string
	IsPublic              bool
	AllowDeviceSelfAssign bool
	AllowDevBuilds        bool
	AllowEmulator         bool
	IosEnabled            bool
	AndroidEnabled        bool
}

type ChannelEntity struct {
	Id                    int
	AppId                 int
	Name                  string
	IsPublic              bool
	AllowDeviceSelfAssign bool
	AllowDevBuilds        bool
	AllowEmulator         bool
	IosEnabled            bool
	AndroidEnabled        bool
	// ActiveBundleId is the authoritative pointer to the channel's current
	// bundle. Zero means no bundle has been published to this channel.
	ActiveBundleId int
}

// PlatformEnabled reports whether the channel serves the given platform.
func (c ChannelEntity) PlatformEnabled(platform string) bool {
	switch platform {
	case PlatformIos:
		return c.IosEnabled
	case PlatformAndroid:
		return c.AndroidEnabled
	default:
		return false
	}
}

type CreateChannelDTO struct {
	Name                  string `json:"name" validate:"required"`
	IsPublic              bool   `json:"isPublic"`
	AllowDeviceSelfAssign bool   `json:"allowDeviceSelfAssign"`
	AllowDevBuilds        bool   `json:"allowDevBuilds"`
	AllowEmulator         bool   `json:"allowEmulator"`
	IosEnabled            bool   `json:"iosEnabled"`
	AndroidEnabled        bool   `json:"androidEnabled"`
}

type UpdateChannelDTO struct {
	IsPublic              *bool `json:"isPublic"`
	AllowDeviceSelfAssign *bool `json:"allowDeviceSelfAssign"`
	AllowDevBuilds        *bool `json:"allowDevBuilds"`
	AllowEmulator         *bool `json:"allowEmulator"`
	IosEnabled            *bool `json:"iosEnabled"`
	AndroidEnabled        *bool `json:"androidEnabled"`
}

type GetChannelDTO struct {
	Id                    int    `json:"id"`
	Name                  string `json:"name"`
	IsPublic              bool   `json:"isPublic"`
	AllowDeviceSelfAssign bool   `json:"allowDeviceSelfAssign"`
	AllowDevBuilds        bool   `json:"allowDevBuilds"`
	AllowEmulator         bool   `json:"allowEmulator"`
	IosEnabled            bool   `json:"iosEnabled"`
	AndroidEnabled        bool   `json:"androidEnabled"`
}
