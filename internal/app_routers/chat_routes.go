package approuters

import (
	"BatePapo/internal/configuration"

	"github.com/gin-gonic/gin"
)

// ChatRouters wires the chat room routes. Write endpoints carry the
// per-IP rate limit; reads do not.
func ChatRouters(router *gin.Engine, container *configuration.Container) {
	limited := container.RateLimiter.Middleware()

	router.GET("/participants", container.ParticipantHandler.GetParticipants)
	router.POST("/participants", limited, container.ParticipantHandler.CreateParticipant)

	router.GET("/messages", container.MessageHandler.GetMessages)
	router.POST("/messages", limited, container.MessageHandler.PostMessage)
	router.PUT("/messages/:id", limited, container.MessageHandler.UpdateMessage)
	router.DELETE("/messages/:id", limited, container.MessageHandler.DeleteMessage)

	router.POST("/status", container.ParticipantHandler.Heartbeat)
}
