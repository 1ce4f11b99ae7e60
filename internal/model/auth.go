package model

type NewPublisherData struct {
	Name         string
	PasswordHash string
}

type PublisherEntity struct {
	Id           int
	Name         string
	PasswordHash string
}

type PublisherDTO struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type NewAuthSessionData struct {
	Id          string
	PublisherId int
	Expiry      int64
}

type AuthSessionEntity struct {
	Id          string
	PublisherId int
	Expiry      int64
}

type NewApiKeyData struct {
	Key   string
	AppId int
}

type NewApiKeyDTO struct {
	AppId int `param:"id" validate:"required"`
}
