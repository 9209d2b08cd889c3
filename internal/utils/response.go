package utils

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

// ActivityJSON is the content type served for ActivityStreams documents.
const ActivityJSON = "application/activity+json"

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
	})
}

// SendActivityJSON serialises an ActivityStreams document with its media type.
func SendActivityJSON(c *fiber.Ctx, document interface{}) error {
	return SendJSONAs(c, document, ActivityJSON)
}

// SendJSONAs serialises a document under an explicit media type. Ctx.JSON
// always stamps application/json, so the body is marshalled by hand here.
func SendJSONAs(c *fiber.Ctx, document interface{}, contentType string) error {
	body, err := json.Marshal(document)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Status(fiber.StatusOK).Send(body)
}
