package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/code-100-precent/VoiceGate/internal/stream"
	"github.com/code-100-precent/VoiceGate/pkg/cache"
	"github.com/code-100-precent/VoiceGate/pkg/embedder"
	"github.com/code-100-precent/VoiceGate/pkg/embedstore"
	"github.com/code-100-precent/VoiceGate/pkg/transcoder"
)

// SimilarityThreshold 声纹比对的接受阈值
const SimilarityThreshold = 0.84

// 归档文件名和临时文件使用的UTC时间戳格式
const timestampLayout = "2006-01-02_15-04-05"

const voiceListCacheKey = "voice:list"

// 面向客户端的业务文案，沿用既有协议不可改动
const (
	msgInvalidPayload  = "Invalid payload."
	msgAudioProcessing = "Error in audio processing."
	msgNoVoiceEnrolled = "Not registered any voice. Please enroll, first."
	msgNotRegistered   = "not registered."
	msgRemoveSucceeded = "successfully removed."
	msgEnrollSucceeded = "Voice has successfully registered with name: %s."
	msgVerifySucceeded = "%s verified as score %v."
	msgVerifyRejected  = "%s not verified as score %v."
	msgIdentifyMatch   = "%s: Found a match with score %.3f."
	msgIdentifyNoMatch = "%s: could not find any matches.(score: %.3f)"
)

// Embedder 声纹特征提取依赖
type Embedder interface {
	Embed(ctx context.Context, wavPath string) ([]float32, error)
}

// Converter 音频规整依赖
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// Archiver 音频归档依赖，失败不影响主流程
type Archiver interface {
	UploadBytes(ctx context.Context, data []byte, remoteKey string) bool
}

// Orchestrator 声纹业务编排：落盘、转码、归档、特征提取与比对。
// 实现 stream.Workflows。
type Orchestrator struct {
	store     embedstore.Store
	embedder  Embedder
	converter Converter
	archiver  Archiver
	cache     cache.Cache
	uploadDir string
	listTTL   time.Duration
	logger    *zap.Logger
}

// NewOrchestrator 创建业务编排器，uploadDir不存在时自动创建
func NewOrchestrator(
	store embedstore.Store,
	emb Embedder,
	converter Converter,
	archiver Archiver,
	c cache.Cache,
	uploadDir string,
	listTTL time.Duration,
) (*Orchestrator, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &Orchestrator{
		store:     store,
		embedder:  emb,
		converter: converter,
		archiver:  archiver,
		cache:     c,
		uploadDir: uploadDir,
		listTTL:   listTTL,
		logger:    zap.L().Named("orchestrator"),
	}, nil
}

// VoiceList 返回已注册说话人列表，结果短暂缓存
func (o *Orchestrator) VoiceList(ctx context.Context) stream.Response {
	if names, ok := o.cachedVoiceList(ctx); ok {
		return stream.Response{Status: true, Task: stream.TaskVoiceList, Names: names}
	}

	names, err := o.store.List(ctx)
	if err != nil {
		o.logger.Error("list voices failed", zap.Error(err))
		return stream.Response{Status: false, Task: stream.TaskVoiceList, Message: err.Error()}
	}

	if o.cache != nil {
		if err := o.cache.Set(ctx, voiceListCacheKey, names, o.listTTL); err != nil {
			o.logger.Warn("cache voice list failed", zap.Error(err))
		}
	}
	return stream.Response{Status: true, Task: stream.TaskVoiceList, Names: names}
}

// RemoveVoice 删除说话人声纹。不存在和存储故障同样回删除失败，
// 应答携带具体的错误描述。
func (o *Orchestrator) RemoveVoice(ctx context.Context, speakerName string) stream.Response {
	if err := o.store.Delete(ctx, speakerName); err != nil {
		o.logger.Warn("remove voice failed",
			zap.String("speaker", speakerName),
			zap.Error(err))
		return stream.Response{Status: false, Task: stream.TaskRemove, Message: err.Error()}
	}

	o.invalidateVoiceList(ctx)
	o.logger.Info("voice removed", zap.String("speaker", speakerName))
	return stream.Response{Status: true, Task: stream.TaskRemove, Message: msgRemoveSucceeded}
}

// ProcessUtterance 处理一段完整语音：写WAV、转码、异步归档，
// 再按任务做注册或比对。临时文件处理完即清理。
func (o *Orchestrator) ProcessUtterance(ctx context.Context, task, speakerName string, samples []int16) stream.Response {
	timestamp := time.Now().UTC().Format(timestampLayout)

	var base, remoteKey string
	if task == stream.TaskEnroll {
		if speakerName == "" {
			return stream.Response{Status: false, Task: task, Message: msgInvalidPayload}
		}
		base = speakerName
		remoteKey = fmt.Sprintf("%s_%s_%s.wav", task, speakerName, timestamp)
	} else {
		base = timestamp
		remoteKey = fmt.Sprintf("%s_%s.wav", task, timestamp)
	}

	rawPath := filepath.Join(o.uploadDir, base+".wav")
	convertedPath := filepath.Join(o.uploadDir, base+"_convert.wav")

	if err := transcoder.WriteWAV(samples, rawPath); err != nil {
		o.logger.Error("write utterance failed",
			zap.String("task", task),
			zap.Error(err))
		return stream.Response{Status: false, Task: task, Message: msgAudioProcessing}
	}
	defer os.Remove(rawPath)
	defer os.Remove(convertedPath)

	o.archiveAsync(rawPath, remoteKey)

	if err := o.converter.Convert(ctx, rawPath, convertedPath); err != nil {
		return stream.Response{Status: false, Task: task, Message: err.Error()}
	}

	switch task {
	case stream.TaskEnroll:
		return o.enroll(ctx, convertedPath, speakerName)
	case stream.TaskVerify:
		return o.verify(ctx, convertedPath, speakerName)
	case stream.TaskIdentify:
		return o.identify(ctx, convertedPath, speakerName)
	default:
		return stream.Response{Status: false, Task: task, Message: msgInvalidPayload}
	}
}

// archiveAsync 读入音频后台归档，主流程不等待结果
func (o *Orchestrator) archiveAsync(localPath, remoteKey string) {
	if o.archiver == nil {
		return
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		o.logger.Warn("read archive source failed",
			zap.String("path", localPath),
			zap.Error(err))
		return
	}
	go o.archiver.UploadBytes(context.Background(), data, remoteKey)
}

func (o *Orchestrator) enroll(ctx context.Context, wavPath, speakerName string) stream.Response {
	vector, err := o.embedder.Embed(ctx, wavPath)
	if err != nil {
		o.logger.Error("embedding extraction failed",
			zap.String("speaker", speakerName),
			zap.Error(err))
		return stream.Response{Status: false, Task: stream.TaskEnroll, Message: msgInvalidPayload}
	}

	if err := o.store.Put(ctx, speakerName, vector); err != nil {
		o.logger.Error("store embedding failed",
			zap.String("speaker", speakerName),
			zap.Error(err))
		return stream.Response{Status: false, Task: stream.TaskEnroll, Message: msgInvalidPayload}
	}

	o.invalidateVoiceList(ctx)
	o.logger.Info("voice enrolled", zap.String("speaker", speakerName))
	return stream.Response{
		Status:  true,
		Task:    stream.TaskEnroll,
		Message: fmt.Sprintf(msgEnrollSucceeded, speakerName),
	}
}

func (o *Orchestrator) verify(ctx context.Context, wavPath, speakerName string) stream.Response {
	if empty, resp := o.requireEnrolled(ctx, stream.TaskVerify); empty {
		return resp
	}

	vector, err := o.embedder.Embed(ctx, wavPath)
	if err != nil {
		return stream.Response{Status: false, Task: stream.TaskVerify, Message: err.Error()}
	}

	record, err := o.store.Get(ctx, speakerName)
	if errors.Is(err, embedstore.ErrNotFound) {
		zero := float64(0)
		return stream.Response{
			Status:     false,
			Task:       stream.TaskVerify,
			Message:    msgNotRegistered,
			SpkName:    speakerName,
			Confidence: &zero,
		}
	}
	if err != nil {
		return stream.Response{Status: false, Task: stream.TaskVerify, Message: err.Error()}
	}

	score := embedder.CosineSimilarity(vector, record.Vector)
	resp := stream.Response{
		Task:       stream.TaskVerify,
		SpkName:    speakerName,
		Confidence: &score,
	}
	if score >= SimilarityThreshold {
		resp.Status = true
		resp.Message = fmt.Sprintf(msgVerifySucceeded, speakerName, score)
	} else {
		resp.Status = false
		resp.Message = fmt.Sprintf(msgVerifyRejected, speakerName, score)
	}

	o.logger.Info("voice verified",
		zap.String("speaker", speakerName),
		zap.Float64("score", score),
		zap.Bool("accepted", resp.Status))
	return resp
}

// identify 在全部已注册声纹中取最高分，分数按说话人名序严格比较，
// 同分时名序靠前者胜出
func (o *Orchestrator) identify(ctx context.Context, wavPath, requestedName string) stream.Response {
	if empty, resp := o.requireEnrolled(ctx, stream.TaskIdentify); empty {
		return resp
	}

	vector, err := o.embedder.Embed(ctx, wavPath)
	if err != nil {
		return stream.Response{Status: false, Task: stream.TaskIdentify, Message: err.Error()}
	}

	records, err := o.store.Records(ctx)
	if err != nil {
		return stream.Response{Status: false, Task: stream.TaskIdentify, Message: err.Error()}
	}

	bestScore := float64(-1 << 30)
	bestName := ""
	for _, record := range records {
		score := embedder.CosineSimilarity(vector, record.Vector)
		if score > bestScore {
			bestScore = score
			bestName = record.SpeakerName
		}
	}

	resp := stream.Response{
		Task:       stream.TaskIdentify,
		SpkName:    bestName,
		Confidence: &bestScore,
	}
	if bestScore >= SimilarityThreshold {
		resp.Status = true
		resp.Message = fmt.Sprintf(msgIdentifyMatch, requestedName, bestScore)
	} else {
		resp.Status = false
		resp.Message = fmt.Sprintf(msgIdentifyNoMatch, requestedName, bestScore)
	}

	o.logger.Info("voice identified",
		zap.String("best", bestName),
		zap.Float64("score", bestScore),
		zap.Bool("accepted", resp.Status))
	return resp
}

// requireEnrolled 比对类任务要求至少有一条已注册声纹
func (o *Orchestrator) requireEnrolled(ctx context.Context, task string) (bool, stream.Response) {
	names, err := o.store.List(ctx)
	if err != nil {
		return true, stream.Response{Status: false, Task: task, Message: err.Error()}
	}
	if len(names) == 0 {
		return true, stream.Response{Status: false, Task: task, Message: msgNoVoiceEnrolled}
	}
	return false, stream.Response{}
}

// cachedVoiceList 读取缓存的说话人列表，redis后端反序列化为[]interface{}
func (o *Orchestrator) cachedVoiceList(ctx context.Context) ([]string, bool) {
	if o.cache == nil {
		return nil, false
	}
	value, ok := o.cache.Get(ctx, voiceListCacheKey)
	if !ok {
		return nil, false
	}

	switch v := value.(type) {
	case []string:
		return v, true
	case []interface{}:
		names := make([]string, 0, len(v))
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, false
			}
			names = append(names, name)
		}
		return names, true
	default:
		return nil, false
	}
}

func (o *Orchestrator) invalidateVoiceList(ctx context.Context) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Delete(ctx, voiceListCacheKey); err != nil {
		o.logger.Warn("invalidate voice list cache failed", zap.Error(err))
	}
}
