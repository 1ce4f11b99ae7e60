package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"OtaUpdateServer/internal/auth"
	"OtaUpdateServer/internal/integrity"
	"OtaUpdateServer/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Validator = NewValidator()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/", s.HelloWorldHandler)
	e.GET("/health", s.healthHandler)

	// AUTH endpoints
	e.POST("/auth/register", s.createPublisherHandler)
	e.POST("/auth/sign-in", s.signInHandler)
	e.POST("/auth/validate", s.validateSessionIdHandler, s.AppAuthMiddleware)

	// APP v1 endpoints (publisher dashboard/CLI)
	appV1 := e.Group("/app/v1", s.AppAuthMiddleware)

	appV1.GET("/apps", s.getAppsHandler)
	appV1.POST("/apps", s.createAppHandler)
	appV1.POST("/apps/:id/keys", s.createKeyHandler)
	appV1.GET("/apps/:id/channels", s.getChannelsHandler)
	appV1.POST("/apps/:id/channels", s.createChannelHandler)
	appV1.GET("/apps/:id/bundles", s.getBundlesHandler)
	appV1.PATCH("/channels/:id", s.updateChannelHandler)
	appV1.POST("/bundles", s.publishBundleHandler)
	appV1.POST("/bundles/:id/rollback", s.rollbackBundleHandler)
	appV1.DELETE("/bundles/:id", s.deleteBundleHandler)

	// Api v1 endpoints (device facing)
	apiV1 := e.Group("/api/v1")
	apiV1.POST("/updates", s.checkUpdatesHandler)
	apiV1.GET("/channels", s.listChannelsHandler)
	apiV1.POST("/channel_self", s.assignChannelHandler)
	apiV1.PUT("/channel_self", s.getChannelStateHandler)
	apiV1.DELETE("/channel_self", s.clearChannelHandler)

	// Key-scoped publish for CI pipelines
	apiV1.POST("/bundles", s.publishBundleApiHandler, s.APIKeyMiddleware)

	return e
}

func (s *Server) HelloWorldHandler(c echo.Context) error {
	resp := map[string]string{
		"message": "Hello World",
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.db.Health())
}

func (s *Server) createPublisherHandler(c echo.Context) error {
	var dto model.PublisherDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	pwHash, err := auth.HashPassword(dto.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	id, err := s.db.CreatePublisher(model.NewPublisherData{
		Name:         dto.Name,
		PasswordHash: pwHash,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Publisher created",
		"id":      id,
	})
}

func (s *Server) signInHandler(c echo.Context) error {
	var dto model.SignInDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	publisher, err := s.db.GetPublisherByName(dto.Username)
	if err != nil || !auth.ValidatePassword(
		dto.Password,
		publisher.PasswordHash,
	) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}

	sessionId, err := auth.GenerateSessionToken()
	if err != nil {
		log.Printf("Error generating session id: %v\n", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not create session id")
	}
	sessionExpiry := auth.GetExpiryForSession()

	err = s.db.CreateAuthSession(model.NewAuthSessionData{
		Id:          sessionId,
		PublisherId: publisher.Id,
		Expiry:      sessionExpiry,
	})
	if err != nil {
		log.Printf("Error storing session id: %v\n", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not create session id")
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"message":   "Sign in successful",
		"sessionId": sessionId,
	})
}

func (s *Server) validateSessionIdHandler(c echo.Context) error {
	session := c.Get("session").(model.AuthSessionEntity)
	newExpiry := auth.GetExpiryForSession()

	updatedSessionId, err := s.db.ExtendAuthSession(session.Id, newExpiry)
	if err != nil {
		log.Printf("Error extending expiry for session id '%s': %v\n", session.Id, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not extend session expiry")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message":   "Valid session",
		"sessionId": updatedSessionId,
	})
}

func (s *Server) createAppHandler(c echo.Context) error {
	var dto model.CreateAppDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	id, err := s.db.CreateApp(model.NewAppData{
		AppKey:         dto.AppKey,
		Name:           dto.Name,
		DefaultChannel: dto.DefaultChannel,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": fmt.Sprintf("app could not be created: %v", err),
		})
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "App created",
		"id":      id,
	})
}

func (s *Server) getAppsHandler(c echo.Context) error {
	apps, err := s.db.GetApps()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	appDTOs := make([]model.GetAppDTO, len(apps), len(apps))
	for i, app := range apps {
		appDTOs[i] = model.GetAppDTO{
			Id:             app.Id,
			AppKey:         app.AppKey,
			Name:           app.Name,
			DefaultChannel: app.DefaultChannel,
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Success",
		"apps":    appDTOs,
	})
}

func (s *Server) createKeyHandler(c echo.Context) error {
	var dto model.NewApiKeyDTO
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	dto.AppId = id
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	if _, err := s.db.GetApp(dto.AppId); err != nil {
		log.Printf("Error getting app: %v\n", err)
		return echo.NewHTTPError(http.StatusNotFound, "No app found with provided id")
	}

	key, err := auth.GenerateApiKey()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	err = s.db.CreateApiKey(model.NewApiKeyData{
		Key:   auth.HashApiKey(key),
		AppId: dto.AppId,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": fmt.Sprintf("ApiKey could not be created: %v", err),
		})
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"message": "Api Key created",
		"key":     key,
	})
}

func (s *Server) createChannelHandler(c echo.Context) error {
	appId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "App id must be a number")
	}

	var dto model.CreateChannelDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	if _, err := s.db.GetApp(appId); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "No app found with provided id")
	}

	id, err := s.db.CreateChannel(model.NewChannelData{
		AppId:                 appId,
		Name:                  dto.Name,
		IsPublic:              dto.IsPublic,
		AllowDeviceSelfAssign: dto.AllowDeviceSelfAssign,
		AllowDevBuilds:        dto.AllowDevBuilds,
		AllowEmulator:         dto.AllowEmulator,
		IosEnabled:            dto.IosEnabled,
		AndroidEnabled:        dto.AndroidEnabled,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": fmt.Sprintf("Channel could not be created: %v", err),
		})
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Channel created",
		"id":      id,
	})
}

func (s *Server) getChannelsHandler(c echo.Context) error {
	appId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "App id must be a number")
	}

	channels, err := s.db.GetChannels(appId)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	channelDTOs := make([]model.GetChannelDTO, len(channels), len(channels))
	for i, channel := range channels {
		channelDTOs[i] = model.GetChannelDTO{
			Id:                    channel.Id,
			Name:                  channel.Name,
			IsPublic:              channel.IsPublic,
			AllowDeviceSelfAssign: channel.AllowDeviceSelfAssign,
			AllowDevBuilds:        channel.AllowDevBuilds,
			AllowEmulator:         channel.AllowEmulator,
			IosEnabled:            channel.IosEnabled,
			AndroidEnabled:        channel.AndroidEnabled,
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":  "Success",
		"channels": channelDTOs,
	})
}

func (s *Server) updateChannelHandler(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Channel id must be a number")
	}

	var dto model.UpdateChannelDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	if err := s.db.UpdateChannelPolicy(id, dto); err != nil {
		log.Printf("Error updating channel %d: %v\n", id, err)
		return echo.NewHTTPError(http.StatusNotFound, "No channel found with provided id")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Channel updated",
	})
}

func (s *Server) publishBundleHandler(c echo.Context) error {
	var dto model.PublishBundleDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	return s.publishBundle(c, dto)
}

// publishBundleApiHandler is the API-key variant used by CI pipelines. The
// app is taken from the key, not the body.
func (s *Server) publishBundleApiHandler(c echo.Context) error {
	appId := c.Get("appId")
	if appId == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Missing app id")
	}

	var dto model.PublishBundleDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	dto.AppId = appId.(int)
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	return s.publishBundle(c, dto)
}

func (s *Server) publishBundle(c echo.Context, dto model.PublishBundleDTO) error {
	if dto.SessionKey != "" {
		if _, err := integrity.ParseSessionKey(dto.SessionKey); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid session key: %v", err))
		}
	}

	id, err := s.db.PublishBundle(model.NewBundleData{
		AppId:            dto.AppId,
		Platform:         dto.Platform,
		Version:          dto.Version,
		DownloadUrl:      dto.DownloadUrl,
		StoragePath:      dto.StoragePath,
		Checksum:         dto.Checksum,
		SessionKey:       dto.SessionKey,
		Manifest:         dto.Manifest,
		MinNativeVersion: dto.MinNativeVersion,
		Required:         dto.Required,
		CreatedAt:        time.Now().Unix(),
	}, dto.Channel)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": fmt.Sprintf("Bundle could not be published: %v", err),
		})
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Bundle published",
		"id":      id,
	})
}

func (s *Server) getBundlesHandler(c echo.Context) error {
	appId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "App id must be a number")
	}

	bundles, err := s.db.GetBundles(appId)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	bundleDTOs := make([]model.GetBundleDTO, len(bundles), len(bundles))
	for i, bundle := range bundles {
		bundleDTOs[i] = model.GetBundleDTO{
			Id:               bundle.Id,
			Platform:         bundle.Platform,
			Version:          bundle.Version,
			DownloadUrl:      bundle.DownloadUrl,
			Checksum:         bundle.Checksum,
			MinNativeVersion: bundle.MinNativeVersion,
			Required:         bundle.Required,
			Active:           bundle.Active,
			CreatedAt:        bundle.CreatedAt,
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Success",
		"bundles": bundleDTOs,
	})
}

func (s *Server) rollbackBundleHandler(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Bundle id must be a number")
	}

	var dto model.RollbackDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	bundle, err := s.db.GetBundle(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "No bundle found with provided id")
	}

	if err := s.db.RollbackChannel(bundle.AppId, dto.Channel, bundle.Id); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": fmt.Sprintf("Rollback failed: %v", err),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Channel rolled back",
		"version": bundle.Version,
	})
}

func (s *Server) deleteBundleHandler(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Bundle id must be a number")
	}

	if err := s.db.SoftDeleteBundle(id); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": fmt.Sprintf("Bundle could not be deleted: %v", err),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Bundle deleted",
	})
}
