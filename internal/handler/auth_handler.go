package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/service"
	"github.com/tryvocalcat/fediprofile/internal/utils"
)

// AuthHandler starts the fediverse login handshake: it registers (or reuses)
// an OAuth application on the remote host and answers with the authorization
// redirect. Sessions and cookies belong to the login UI, not here.
type AuthHandler struct {
	apps        *service.AppRegistrationService
	redirectURI string
	logger      zerolog.Logger
}

// NewAuthHandler builds an auth handler instance.
func NewAuthHandler(apps *service.AppRegistrationService, redirectURI string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		apps:        apps,
		redirectURI: redirectURI,
		logger:      logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Authorize handles GET /auth/authorize?host=<remote>. It guarantees at most
// one app registration per remote host and redirects to its authorize URL.
func (h *AuthHandler) Authorize(c *fiber.Ctx) error {
	host := c.Query("host")
	if host == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "host query parameter is required")
	}

	app, err := h.apps.GetOrRegister(c.Context(), host)
	if err != nil {
		h.logger.Error().Err(err).Str("host", host).Msg("app registration failed")
		return utils.SendError(c, fiber.StatusBadGateway, "remote registration failed")
	}

	query := url.Values{}
	query.Set("client_id", app.ClientID)
	query.Set("redirect_uri", h.redirectURI)
	query.Set("response_type", "code")
	query.Set("scope", "read:accounts")

	return c.Redirect("https://"+host+"/oauth/authorize?"+query.Encode(), fiber.StatusFound)
}
