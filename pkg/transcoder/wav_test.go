package transcoder

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
)

func TestWriteWAVRoundTrip(t *testing.T) {
	samples := make([]int16, 320)
	for i := range samples {
		samples[i] = int16(i - 160)
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, WriteWAV(samples, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	reader := wav.NewReader(f)
	format, err := reader.Format()
	require.NoError(t, err)
	assert.Equal(t, uint32(SampleRate), format.SampleRate)
	assert.Equal(t, uint16(NumChannels), format.NumChannels)
	assert.Equal(t, uint16(BitsPerSample), format.BitsPerSample)

	var decoded []int16
	for {
		chunk, err := reader.ReadSamples()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		for _, s := range chunk {
			decoded = append(decoded, int16(reader.IntValue(s, 0)))
		}
	}
	assert.Equal(t, samples, decoded)
}

func TestWriteWAVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	assert.Error(t, WriteWAV(nil, path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteWAVBadPath(t *testing.T) {
	assert.Error(t, WriteWAV([]int16{1, 2}, "/nonexistent/dir/out.wav"))
}
