package server

import (
	"errors"
	"net/http"

	"OtaUpdateServer/internal/model"
	"OtaUpdateServer/internal/update"

	"github.com/labstack/echo/v4"
)

func (s *Server) checkUpdatesHandler(c echo.Context) error {
	var dto model.DeviceCheckDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	req := dto.Normalize()
	if req.AppKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing app id")
	}

	decision, err := s.engine.Resolve(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, decisionResponse(decision))
}

// decisionResponse flattens a decision to its wire shape. "No update" is an
// empty object so old clients that only probe for "url" keep working.
func decisionResponse(d model.UpdateDecision) map[string]any {
	switch d.Kind {
	case model.DecisionUpdateAvailable:
		resp := map[string]any{
			"version":  d.Bundle.Version,
			"url":      d.DownloadUrl,
			"checksum": d.Bundle.Checksum,
		}
		if d.Bundle.SessionKey != "" {
			resp["sessionKey"] = d.Bundle.SessionKey
		}
		if d.Bundle.Manifest != "" {
			resp["manifest"] = d.Bundle.Manifest
		}
		if d.Bundle.Required {
			resp["required"] = true
		}
		return resp
	case model.DecisionNativeUpdateRequired:
		return map[string]any{
			"message":               model.ReasonNativeUpdateNeeds,
			"requiredNativeVersion": d.RequiredNativeVersion,
		}
	default:
		return map[string]any{}
	}
}

func (s *Server) listChannelsHandler(c echo.Context) error {
	var dto model.ChannelListDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	channels, err := s.engine.EligibleChannels(dto.AppKey, dto.Platform, dto.IsEmulator, dto.IsProd)
	if err != nil {
		return policyError(err)
	}

	names := make([]string, len(channels), len(channels))
	for i, channel := range channels {
		names[i] = channel.Name
	}

	return c.JSON(http.StatusOK, map[string]any{
		"channels": names,
	})
}

func (s *Server) assignChannelHandler(c echo.Context) error {
	var dto model.ChannelAssignDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	state, err := s.engine.SelfAssign(dto.AppKey, dto.DeviceId, dto.Platform, dto.Channel, dto.IsEmulator, dto.IsProd)
	if err != nil {
		return policyError(err)
	}

	return c.JSON(http.StatusOK, state)
}

func (s *Server) getChannelStateHandler(c echo.Context) error {
	var dto model.ChannelQueryDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	state, err := s.engine.ChannelState(dto.AppKey, dto.DeviceId)
	if err != nil {
		return policyError(err)
	}

	return c.JSON(http.StatusOK, state)
}

func (s *Server) clearChannelHandler(c echo.Context) error {
	var dto model.ChannelQueryDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if err := c.Validate(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	state, err := s.engine.ClearChannel(dto.AppKey, dto.DeviceId)
	if err != nil {
		return policyError(err)
	}

	return c.JSON(http.StatusOK, state)
}

func policyError(err error) error {
	switch {
	case errors.Is(err, update.ErrAppNotFound), errors.Is(err, update.ErrChannelNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, update.ErrSelfAssignDenied),
		errors.Is(err, update.ErrPlatformDisabled),
		errors.Is(err, update.ErrEmulatorDenied),
		errors.Is(err, update.ErrDevBuildDenied):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
}
