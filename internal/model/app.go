package model

type NewAppData struct {
	AppKey         string
	Name           string
	DefaultChannel string
}

type AppEntity struct {
	Id             int
	AppKey         string
	Name           string
	DefaultChannel string
	CreatedAt      int64
}

type CreateAppDTO struct {
	AppKey         string `json:"appKey" validate:"required"`
	Name           string `json:"name" validate:"required"`
	DefaultChannel string `json:"defaultChannel"`
}

type GetAppDTO struct {
	Id             int    `json:"id"`
	AppKey         string `json:"appKey"`
	Name           string `json:"name"`
	DefaultChannel string `json:"defaultChannel"`
}
