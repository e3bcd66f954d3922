package stream

import (
	"context"

	"go.uber.org/zap"
)

// Workflows 声纹业务入口，由service层实现
type Workflows interface {
	// VoiceList 返回已注册说话人列表
	VoiceList(ctx context.Context) Response

	// RemoveVoice 删除指定说话人
	RemoveVoice(ctx context.Context, speakerName string) Response

	// ProcessUtterance 处理一段完整语音，task为enroll/verify/identify之一
	ProcessUtterance(ctx context.Context, task, speakerName string, samples []int16) Response
}

// Dispatcher 按任务类型分发上行消息。查询和删除同步处理，
// 录音类任务累积分片，攒满一段语音后异步交给业务层。
type Dispatcher struct {
	registry  *Registry
	workflows Workflows
	logger    *zap.Logger
}

// NewDispatcher 创建消息分发器
func NewDispatcher(registry *Registry, workflows Workflows) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		workflows: workflows,
		logger:    zap.L().Named("dispatcher"),
	}
}

// Handle 处理一条上行消息。sender用于未接纳会话的拒绝应答，
// 已接纳会话的业务应答走注册表。
func (d *Dispatcher) Handle(ctx context.Context, clientKey string, sender Sender, raw []byte) {
	if !d.registry.Has(clientKey) {
		sender.Send(Alert(MsgServerFull))
		return
	}

	msg, err := ParseInbound(raw)
	if err != nil {
		d.logger.Warn("malformed inbound message",
			zap.String("client", clientKey),
			zap.Error(err))
		// 告警携带具体的解析错误
		d.registry.Notify(clientKey, Alert(err.Error()))
		return
	}

	switch msg.Task {
	case TaskVoiceList:
		d.registry.Notify(clientKey, d.workflows.VoiceList(ctx))

	case TaskRemove:
		if msg.SpkName == "" {
			d.registry.Notify(clientKey, Alert(MsgMissingSpkName))
			return
		}
		d.registry.Notify(clientKey, d.workflows.RemoveVoice(ctx, msg.SpkName))

	case TaskEnroll, TaskVerify, TaskIdentify:
		d.handleAudio(clientKey, sender, msg)

	default:
		// 未知任务静默丢弃
		d.logger.Debug("unknown task dropped",
			zap.String("client", clientKey),
			zap.String("task", msg.Task))
	}
}

// handleAudio 累积录音分片，攒满一段语音后异步处理
func (d *Dispatcher) handleAudio(clientKey string, sender Sender, msg *InboundMessage) {
	d.registry.SetSpeakerName(clientKey, msg.SpkName, sender)

	if msg.Record != RecordStart {
		d.registry.Notify(clientKey, Alert(MsgBadRecordField))
		return
	}

	// 录音消息缺data字段是协议错误，不计入分片累积
	if len(msg.Data) == 0 {
		d.registry.Notify(clientKey, Alert(MsgMissingData))
		return
	}

	chunk, err := msg.Samples()
	if err != nil {
		d.registry.Notify(clientKey, Alert(err.Error()))
		return
	}

	flushed, ready := d.registry.Append(clientKey, chunk)
	if !ready {
		return
	}

	speakerName := msg.SpkName
	if speakerName == "" {
		speakerName = d.registry.SpeakerName(clientKey)
	}

	task := msg.Task
	go func() {
		// 处理不受连接生命周期影响，断连后结果静默丢弃
		resp := d.workflows.ProcessUtterance(context.Background(), task, speakerName, flushed)
		d.registry.Notify(clientKey, resp)
	}()
}
