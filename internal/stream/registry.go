package stream

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrServerFull 并发会话数达到上限
var ErrServerFull = errors.New("connection capacity reached")

// Sender 下行应答出口，由会话写入器实现
type Sender interface {
	Send(resp Response)
}

// session 单个客户端的会话状态，包含说话人名和未满的音频缓冲
type session struct {
	sender      Sender
	speakerName string
	chunkCount  int
	samples     []int16
}

// Registry 会话注册表，按客户端地址索引。同一地址重连时静默替换旧会话，
// 容量满时拒绝新会话。所有方法可并发调用。
type Registry struct {
	mu             sync.Mutex
	maxConnections int
	sessions       map[string]*session
	logger         *zap.Logger
}

// NewRegistry 创建会话注册表，maxConnections须为正数
func NewRegistry(maxConnections int) *Registry {
	return &Registry{
		maxConnections: maxConnections,
		sessions:       make(map[string]*session),
		logger:         zap.L().Named("registry"),
	}
}

// Admit 接纳一个新会话。同地址的旧会话先被清除，再做容量检查，
// 因此重连不会占双份名额。容量已满返回 ErrServerFull。
func (r *Registry) Admit(clientKey string, sender Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[clientKey]; ok {
		delete(r.sessions, clientKey)
		r.logger.Info("replacing stale session", zap.String("client", clientKey))
	}

	if len(r.sessions) >= r.maxConnections {
		return ErrServerFull
	}

	r.sessions[clientKey] = &session{sender: sender}
	r.logger.Info("session admitted",
		zap.String("client", clientKey),
		zap.Int("active", len(r.sessions)))
	return nil
}

// Remove 移除会话及其缓冲。sender不匹配时不动，
// 避免被替换的旧连接在关闭时误删新会话。
func (r *Registry) Remove(clientKey string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[clientKey]; ok && s.sender == sender {
		delete(r.sessions, clientKey)
		r.logger.Info("session removed",
			zap.String("client", clientKey),
			zap.Int("active", len(r.sessions)))
	}
}

// Has 会话是否已被接纳
func (r *Registry) Has(clientKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[clientKey]
	return ok
}

// Size 当前活跃会话数
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SetSpeakerName 更新会话的说话人名，空名不覆盖已有值。
// 会话不存在时按upsert语义重新接纳，但不得突破容量上限。
func (r *Registry) SetSpeakerName(clientKey, name string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[clientKey]
	if !ok {
		if sender == nil || len(r.sessions) >= r.maxConnections {
			return
		}
		s = &session{sender: sender}
		r.sessions[clientKey] = s
	}
	if name != "" {
		s.speakerName = name
	}
}

// SpeakerName 返回会话最近记录的说话人名
func (r *Registry) SpeakerName(clientKey string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[clientKey]; ok {
		return s.speakerName
	}
	return ""
}

// Append 追加一个音频分片。累计分片数达到阈值时原子地取走全部采样
// 并清空缓冲，返回 (snapshot, true)；未达阈值返回 (nil, false)。
func (r *Registry) Append(clientKey string, chunk []int16) ([]int16, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[clientKey]
	if !ok {
		return nil, false
	}

	s.samples = append(s.samples, chunk...)
	s.chunkCount++

	if s.chunkCount < ChunkThreshold {
		return nil, false
	}

	snapshot := s.samples
	s.samples = nil
	s.chunkCount = 0
	return snapshot, true
}

// ResetBuffer 丢弃会话已累计的音频缓冲
func (r *Registry) ResetBuffer(clientKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[clientKey]; ok {
		s.samples = nil
		s.chunkCount = 0
	}
}

// Notify 向指定会话发送应答，会话不存在时静默忽略
func (r *Registry) Notify(clientKey string, resp Response) {
	r.mu.Lock()
	sender := Sender(nil)
	if s, ok := r.sessions[clientKey]; ok {
		sender = s.sender
	}
	r.mu.Unlock()

	if sender != nil {
		sender.Send(resp)
	}
}
