package stream

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server 流式声纹端点，持有会话注册表和消息分发器
type Server struct {
	registry   *Registry
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewServer 创建流式端点
func NewServer(registry *Registry, dispatcher *Dispatcher) *Server {
	return &Server{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     zap.L().Named("stream"),
	}
}

// RegisterRoutes 挂载websocket路由
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", s.HandleWebSocket)
}

// HandleWebSocket 处理一条websocket连接的完整生命周期。
// 会话以客户端IP为键，容量满时连接保持打开，仅对上行消息回告警。
func (s *Server) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clientKey := clientAddr(c, conn)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	writer := NewSessionWriter(ctx, conn, s.logger)
	defer writer.Close()

	admitted := s.registry.Admit(clientKey, writer) == nil
	if admitted {
		defer s.registry.Remove(clientKey, writer)
	} else {
		s.logger.Warn("connection rejected, capacity reached",
			zap.String("client", clientKey),
			zap.Int("active", s.registry.Size()))
		writer.Send(Alert(MsgServerFull))
	}

	// 按到达顺序逐条处理上行消息
	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.logger.Info("client disconnected", zap.String("client", clientKey))
			} else {
				s.logger.Warn("websocket read failed",
					zap.String("client", clientKey),
					zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.dispatcher.Handle(ctx, clientKey, writer, raw)
	}
}

// clientAddr 提取客户端IP作为会话键，同一IP重连视为同一客户端
func clientAddr(c *gin.Context, conn *websocket.Conn) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
