package model

type UpsertDeviceData struct {
	AppId         int
	DeviceId      string
	Platform      string
	BundleVersion string
	NativeVersion string
	NativeBuild   int
	IsEmulator    bool
	IsProd        bool
	LastSeenAt    int64
}

type DeviceEntity struct {
	Id              int
	AppId           int
	DeviceId        string
	Platform        string
	BundleVersion   string
	NativeVersion   string
	NativeBuild     int
	IsEmulator      bool
	IsProd          bool
	ChannelOverride string
	LastSeenAt      int64
}

type NewCheckinData struct {
	AppId         int
	DeviceId      string
	Platform      string
	BundleVersion string
	NativeBuild   int
	Channel       string
	CreatedAt     int64
}
