package transcoder

import (
	"fmt"
	"os"

	"github.com/youpy/go-wav"
)

// 流式端点固定的音频参数：16kHz 单声道 16bit PCM
const (
	SampleRate    = 16000
	NumChannels   = 1
	BitsPerSample = 16
)

// WriteWAV 将int16采样序列写为标准WAV文件
func WriteWAV(samples []int16, path string) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to write")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file failed: %w", err)
	}
	defer f.Close()

	writer := wav.NewWriter(f, uint32(len(samples)), NumChannels, SampleRate, BitsPerSample)

	wavSamples := make([]wav.Sample, len(samples))
	for i, s := range samples {
		wavSamples[i].Values[0] = int(s)
	}

	if err := writer.WriteSamples(wavSamples); err != nil {
		return fmt.Errorf("write wav samples failed: %w", err)
	}
	return nil
}
