package stream

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// 支持的任务类型
const (
	TaskEnroll    = "enroll"
	TaskVerify    = "verify"
	TaskIdentify  = "identify"
	TaskVoiceList = "get_voice_list"
	TaskRemove    = "remove_voice"
	TaskAlert     = "alert"
)

// 录音流控制字段取值
const RecordStart = "start"

// ChunkThreshold 触发一次处理所需的累计分片数。
// 客户端每秒上送约15个分片，7秒语音即 15*7=105。
const (
	ChunksPerSecond  = 15
	UtteranceSeconds = 7
	ChunkThreshold   = ChunksPerSecond * UtteranceSeconds
)

// 面向客户端的提示文案
const (
	MsgServerFull     = "The number of connected clients has reached the maximum. Please try again later."
	MsgBadRecordField = "Invalid record field."
	MsgMissingSpkName = "Speaker name is required."
	MsgMissingData    = "Missing audio data."
)

// InboundMessage 客户端上行消息。data以字符串下标为键承载int16采样，
// 下标按数值序还原为采样序列。
type InboundMessage struct {
	Task    string           `json:"task"`
	Record  string           `json:"record,omitempty"`
	SpkName string           `json:"spk_name,omitempty"`
	Data    map[string]int16 `json:"data,omitempty"`
}

// ParseInbound 解析上行JSON消息
func ParseInbound(raw []byte) (*InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode inbound message failed: %w", err)
	}
	return &msg, nil
}

// Samples 按下标数值序展开data为采样序列
func (m *InboundMessage) Samples() ([]int16, error) {
	if len(m.Data) == 0 {
		return nil, nil
	}

	indices := make([]int, 0, len(m.Data))
	for key := range m.Data {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid sample index %q", key)
		}
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	samples := make([]int16, 0, len(indices))
	for _, idx := range indices {
		samples = append(samples, m.Data[strconv.Itoa(idx)])
	}
	return samples, nil
}

// Response 下行应答。Status在JSON里沿用历史的"true"/"false"字符串表示。
// Names非空时message字段输出说话人列表而非文本。
type Response struct {
	Status     bool
	Task       string
	Message    string
	Names      []string
	SpkName    string
	Confidence *float64
}

// MarshalJSON 序列化应答，status输出为字符串
func (r Response) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"status": strconv.FormatBool(r.Status),
		"task":   r.Task,
	}
	if r.Names != nil {
		out["message"] = r.Names
	} else {
		out["message"] = r.Message
	}
	if r.SpkName != "" {
		out["spk_name"] = r.SpkName
	}
	if r.Confidence != nil {
		out["confidence"] = *r.Confidence
	}
	return json.Marshal(out)
}

// Alert 构造协议告警应答
func Alert(message string) Response {
	return Response{Status: false, Task: TaskAlert, Message: message}
}
