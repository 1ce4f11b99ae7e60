package database

import (
	"fmt"
	"log"

	"OtaUpdateServer/internal/model"
)

func (s *service) CreatePublisher(data model.NewPublisherData) (int, error) {
	query := "INSERT INTO ota_publishers(name, password_hash) VALUES ($1, $2) RETURNING id"

	var id int
	err := s.db.QueryRow(query, data.Name, data.PasswordHash).Scan(&id)

	return id, err
}

func (s *service) GetPublisherByName(name string) (model.PublisherEntity, error) {
	query := "SELECT id, name, password_hash FROM ota_publishers WHERE name = $1"

	var p model.PublisherEntity
	err := s.db.QueryRow(query, name).Scan(&p.Id, &p.Name, &p.PasswordHash)

	return p, err
}

func (s *service) CreateAuthSession(data model.NewAuthSessionData) error {
	res, err := s.db.Exec("INSERT INTO ota_auth_sessions(id, publisher_id, expiry) VALUES ($1, $2, $3)", data.Id, data.PublisherId, data.Expiry)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		return fmt.Errorf("Expected 1 auth session to be inserted but was %d", rowsAffected)
	}

	return nil
}

func (s *service) GetAuthSession(id string) (model.AuthSessionEntity, error) {
	query := "SELECT id, publisher_id, expiry FROM ota_auth_sessions WHERE id = $1"

	var session model.AuthSessionEntity
	err := s.db.QueryRow(query, id).Scan(&session.Id, &session.PublisherId, &session.Expiry)

	return session, err
}

func (s *service) ExtendAuthSession(id string, expiry int64) (string, error) {
	res, err := s.db.Exec("UPDATE ota_auth_sessions SET expiry = $2 WHERE id = $1", id, expiry)
	if err != nil {
		return "", err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return "", err
	}

	if rowsAffected != 1 {
		return "", fmt.Errorf("Expected 1 auth session to be updated but was %d", rowsAffected)
	}

	return id, nil
}

func (s *service) CreateApiKey(data model.NewApiKeyData) error {
	query := "INSERT INTO ota_api_keys(key, app_id) VALUES ($1, $2)"

	res, err := s.db.Exec(query, data.Key, data.AppId)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		return fmt.Errorf("Expected 1 api key to be inserted but was %d", rowsAffected)
	}

	return nil
}

func (s *service) ValidateApiKey(apiKey string) bool {
	query := "SELECT EXISTS(SELECT 1 FROM ota_api_keys WHERE key = $1)"

	var exists bool
	if err := s.db.QueryRow(query, apiKey).Scan(&exists); err != nil {
		log.Printf("Error validating api key: %v\n", err)
		return false
	}

	return exists
}

func (s *service) GetAppId(apiKey string) (int, error) {
	query := "SELECT app_id FROM ota_api_keys WHERE key = $1"

	var appId int
	if err := s.db.QueryRow(query, apiKey).Scan(&appId); err != nil {
		return -1, err
	}
	return appId, nil
}
