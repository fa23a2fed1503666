package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yooassist/internal/api/handlers"
)

type Deps struct {
	Chat          *handlers.ChatHandler
	WS            *handlers.WSHandler
	Voice         *handlers.VoiceHandler
	Preferences   *handlers.PreferenceHandler
	Reminders     *handlers.ReminderHandler
	Notifications *handlers.NotificationHandler
	Conversation  *handlers.ConversationHandler
	History       *handlers.HistoryHandler
	Metrics       http.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	r.POST("/chat", d.Chat.Chat)
	r.GET("/ws", d.WS.Serve)
	r.POST("/voice", d.Voice.Upload)
	r.GET("/voice/:user_id", d.Voice.History)

	r.GET("/preferences/:user_id", d.Preferences.Get)
	r.PUT("/preferences/:user_id", d.Preferences.Update)

	r.GET("/reminders/:user_id", d.Reminders.List)
	r.DELETE("/reminders/:user_id/:id", d.Reminders.Delete)

	r.GET("/notifications/:user_id", d.Notifications.Drain)
	r.GET("/conversation/:user_id", d.Conversation.List)

	r.GET("/music/:user_id", d.History.Music)
	r.GET("/whatsapp/:user_id", d.History.WhatsApp)
	r.GET("/personalization/:user_id", d.History.Personalization)
}
