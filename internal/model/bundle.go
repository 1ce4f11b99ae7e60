package model

const (
	PlatformIos     = "ios"
	PlatformAndroid = "android"
)

type NewBundleData struct {
	AppId            int
	Platform         string
	Version          string
	DownloadUrl      string
	StoragePath      string
	Checksum         string
	SessionKey       string
	Manifest         string
	MinNativeVersion int
	Required         bool
	CreatedAt        int64
}

type BundleEntity struct {
	Id               int
	AppId            int
	Platform         string
	Version          string
	DownloadUrl      string
	StoragePath      string
	Checksum         string
	SessionKey       string
	Manifest         string
	MinNativeVersion int
	Required         bool
	Active           bool
	Deleted          bool
	CreatedAt        int64
}

type PublishBundleDTO struct {
	AppId            int    `json:"appId" validate:"required"`
	Channel          string `json:"channel" validate:"required"`
	Platform         string `json:"platform" validate:"required,oneof=ios android"`
	Version          string `json:"version" validate:"required"`
	DownloadUrl      string `json:"downloadUrl" validate:"required_without=StoragePath"`
	StoragePath      string `json:"storagePath"`
	Checksum         string `json:"checksum" validate:"required,len=64,hexadecimal"`
	SessionKey       string `json:"sessionKey"`
	Manifest         string `json:"manifest"`
	MinNativeVersion int    `json:"minNativeVersion" validate:"gte=0"`
	Required         bool   `json:"required"`
}

type GetBundleDTO struct {
	Id               int    `json:"id"`
	Platform         string `json:"platform"`
	Version          string `json:"version"`
	DownloadUrl      string `json:"downloadUrl"`
	Checksum         string `json:"checksum"`
	MinNativeVersion int    `json:"minNativeVersion"`
	Required         bool   `json:"required"`
	Active           bool   `json:"active"`
	CreatedAt        int64  `json:"createdAt"`
}

type RollbackDTO struct {
	Channel string `json:"channel" validate:"required"`
}
