package embedder

import (
	"fmt"
)

// 特征提取相关错误定义
var (
	ErrInvalidResponse = fmt.Errorf("invalid response from embedding service")
	ErrEmptyVector     = fmt.Errorf("embedding service returned an empty vector")
	ErrDimensionMatch  = fmt.Errorf("embedding dimensions do not match")
)

// EmbedderError 特征提取错误类型
type EmbedderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *EmbedderError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 错误构造函数
func ErrInvalidConfig(details string) error {
	return &EmbedderError{
		Code:    "INVALID_CONFIG",
		Message: "Invalid embedder configuration",
		Details: details,
	}
}

func ErrAPIRequest(details string) error {
	return &EmbedderError{
		Code:    "API_REQUEST_FAILED",
		Message: "Embedding API request failed",
		Details: details,
	}
}

func ErrExtractionFailed(details string) error {
	return &EmbedderError{
		Code:    "EXTRACTION_FAILED",
		Message: "Failed to extract voice embedding",
		Details: details,
	}
}
