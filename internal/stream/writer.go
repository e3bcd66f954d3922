package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid"
	"go.uber.org/zap"
)

// WriterBufferSize 消息写入器缓冲区大小
const WriterBufferSize = 64

// SessionWriter 单连接的串行写入器。websocket连接不允许并发写，
// 所有下行应答经msgChan汇入唯一的写循环。
type SessionWriter struct {
	conn      *websocket.Conn
	logger    *zap.Logger
	mu        sync.Mutex
	msgChan   chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	sessionID string
}

// NewSessionWriter create session writer
func NewSessionWriter(ctx context.Context, conn *websocket.Conn, logger *zap.Logger) *SessionWriter {
	ctx, cancel := context.WithCancel(ctx)
	sessionID, err := gonanoid.Nanoid()
	if err != nil {
		sessionID = "session"
	}
	sw := &SessionWriter{
		conn:      conn,
		logger:    logger,
		msgChan:   make(chan []byte, WriterBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		sessionID: sessionID,
	}
	sw.wg.Add(1)
	go sw.writeLoop()
	return sw
}

// SessionID 返回连接的会话标识
func (sw *SessionWriter) SessionID() string {
	return sw.sessionID
}

// Send 序列化并入队一条下行应答，连接已关闭时静默丢弃
func (sw *SessionWriter) Send(resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		sw.logger.Error("[Websocket Writer] --- 序列化应答失败", zap.Error(err))
		return
	}

	select {
	case <-sw.ctx.Done():
	case sw.msgChan <- payload:
	default:
		sw.logger.Warn("[Websocket Writer] --- 发送缓冲已满，丢弃应答",
			zap.String("session", sw.sessionID))
	}
}

// Close close session writer. msgChan保持打开，
// 断连后迟到的Send只会入队或被丢弃，不会panic。
func (sw *SessionWriter) Close() error {
	sw.cancel()
	sw.wg.Wait()
	return nil
}

func (sw *SessionWriter) writeLoop() {
	defer sw.wg.Done()
	for {
		select {
		case <-sw.ctx.Done():
			return
		case msg := <-sw.msgChan:
			sw.mu.Lock()
			err := sw.conn.WriteMessage(websocket.TextMessage, msg)
			sw.mu.Unlock()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					sw.logger.Debug("[Websocket Writer] --- WebSocket连接已关闭，停止写入", zap.Error(err))
				} else {
					sw.logger.Error("[Websocket Writer] --- 写入WebSocket消息失败", zap.Error(err))
				}
				sw.cancel()
				return
			}
		}
	}
}
