package controllers

import (
	"classtrack_go/config"
	"classtrack_go/database"
	"classtrack_go/middleware"
	"classtrack_go/models"
	"classtrack_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{hub: hub}
}

// validateJWT validates a JWT token and returns user info
func (wsc *WebSocketController) validateJWT(tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &middleware.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*middleware.Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrInvalidKey
	}

	var user models.User
	if err := database.DB.Where("id = ? AND status = ?", claims.UserID, "active").First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// WebSocketHandler returns a Fiber WebSocket handler that validates JWT and
// connects the client to the hub. The token rides in the query string since
// browsers cannot set headers on WebSocket upgrades.
func (wsc *WebSocketController) WebSocketHandler() fiber.Handler {
	return fiberws.New(func(c *fiberws.Conn) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("websocket handler panic")
			}
		}()

		token := c.Query("token")
		if token == "" {
			c.WriteMessage(fiberws.CloseMessage, []byte("Missing token"))
			c.Close()
			return
		}

		user, err := wsc.validateJWT(token)
		if err != nil {
			c.WriteMessage(fiberws.CloseMessage, []byte("Invalid token"))
			c.Close()
			return
		}

		wsc.hub.ServeFiberWS(c, user.ID)
	})
}

// GetWebSocketStats returns WebSocket connection statistics (admin only)
func (wsc *WebSocketController) GetWebSocketStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected_clients": wsc.hub.GetClientCount(),
		"status":            "active",
	})
}
