package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Client 声纹特征提取客户端，封装外部embedding服务的HTTP接口。
// 服务接收 16kHz 单声道 16bit PCM 的 WAV 文件，返回固定维度的特征向量。
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建新的特征提取客户端
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}

	client := &Client{
		config:     config,
		httpClient: httpClient,
		logger:     zap.L().Named("embedder"),
	}

	return client, nil
}

// embedResponse embedding服务的应答格式
type embedResponse struct {
	Vector    []float64 `json:"vector"`
	Dimension int       `json:"dimension"`
	Message   string    `json:"msg,omitempty"`
}

// Embed 上传WAV文件并提取特征向量
func (c *Client) Embed(ctx context.Context, wavPath string) ([]float32, error) {
	audioData, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, ErrExtractionFailed(fmt.Sprintf("read audio file failed: %v", err))
	}

	if err := validateWAV(audioData); err != nil {
		return nil, err
	}

	// 创建 multipart form
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, ErrAPIRequest(fmt.Sprintf("create form file failed: %v", err))
	}

	if _, err := part.Write(audioData); err != nil {
		return nil, ErrAPIRequest(fmt.Sprintf("write audio data failed: %v", err))
	}

	writer.Close()

	url := fmt.Sprintf("%s/embedding/extract", c.config.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, ErrAPIRequest(fmt.Sprintf("create request failed: %v", err))
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, ErrAPIRequest(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, ErrExtractionFailed(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, ErrInvalidResponse
	}

	if len(result.Vector) == 0 {
		return nil, ErrEmptyVector
	}

	vector := make([]float32, len(result.Vector))
	for i, v := range result.Vector {
		vector[i] = float32(v)
	}

	if c.config.LogEnabled {
		c.logger.Info("Embedding extracted",
			zap.String("file", filepath.Base(wavPath)),
			zap.Int("dimension", len(vector)),
			zap.Duration("duration", time.Since(startTime)))
	}

	return vector, nil
}

// validateWAV 简单检查WAV文件头
func validateWAV(data []byte) error {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return ErrExtractionFailed("invalid audio format, only WAV is supported")
	}
	return nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}
