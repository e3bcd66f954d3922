package transcoder

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// FFmpeg 调用系统ffmpeg做音频规整，输出16kHz单声道16bit PCM
type FFmpeg struct {
	binary string
	logger *zap.Logger
}

// NewFFmpeg creates a converter using the given ffmpeg binary path,
// falling back to "ffmpeg" on PATH when empty.
func NewFFmpeg(binary string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{
		binary: binary,
		logger: zap.L().Named("transcoder"),
	}
}

// Convert 将src转码写入dst，dst已存在时覆盖
func (f *FFmpeg) Convert(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, f.binary,
		"-i", src,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-y",
		"-loglevel", "panic",
		dst,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		f.logger.Error("ffmpeg conversion failed",
			zap.String("src", src),
			zap.String("output", string(output)),
			zap.Error(err))
		return fmt.Errorf("ffmpeg conversion failed: %w", err)
	}
	return nil
}
