package handlers

import (
  "context"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/gorilla/websocket"

  "github.com/ninthgrid/ninthgrid-backend/internal/httputil"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/progress"
  "github.com/ninthgrid/ninthgrid-backend/internal/requestdata"
  "github.com/ninthgrid/ninthgrid-backend/internal/socket"
)

var upgrader = websocket.Upgrader{
  CheckOrigin: func(r *http.Request) bool {
    return true
  },
}

// ProgressStreamHandler upgrades to a websocket subscribed to one upload's progress channel.
// The current snapshot, if any, is sent first.
func ProgressStreamHandler(hub *socket.Hub, store progress.Store, log *logger.Logger) gin.HandlerFunc {
  wsLog := log.With("handler", "ProgressStream")
  return func(c *gin.Context) {
    ctx := c.Request.Context()
    rd := requestdata.GetRequestData(ctx)
    if !rd.Authenticated() {
      httputil.Error(c, http.StatusUnauthorized, "not authenticated")
      return
    }
    channel := progress.Key(c.Param("id"))
    if !socket.ChannelAllowed(channel) || !uploadIDPattern.MatchString(c.Param("id")) {
      httputil.Error(c, http.StatusBadRequest, "invalid upload id")
      return
    }

    conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
    if err != nil {
      wsLog.Warn("Failed to upgrade to websocket", "error", err)
      return
    }

    wsCtx, cancel := context.WithCancel(context.Background())
    client := socket.NewClient(conn, hub, rd.UserID, cancel, wsLog)
    hub.Subscribe(client, []string{channel})

    if snapshot, err := store.Get(ctx, c.Param("id")); err == nil {
      client.Send(socket.Message{Channel: channel, Payload: snapshot})
    }

    go client.WriteLoop(wsCtx)
    go client.ReadLoop(wsCtx)
  }
}
