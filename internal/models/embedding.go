package models

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// VoiceEmbedding 声纹特征记录模型，每个说话人最多一条（重复注册覆盖）
type VoiceEmbedding struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SpeakerName string    `json:"speaker_name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Vector      []byte    `json:"-" gorm:"not null"`
	Dimension   int       `json:"dimension"`
	AudioURL    string    `json:"audio_url,omitempty" gorm:"type:varchar(512)"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (VoiceEmbedding) TableName() string {
	return "voice_embeddings"
}

// SetVector 编码特征向量
func (e *VoiceEmbedding) SetVector(vector []float32) {
	e.Vector = EncodeVector(vector)
	e.Dimension = len(vector)
}

// GetVector 解码特征向量
func (e *VoiceEmbedding) GetVector() ([]float32, error) {
	return DecodeVector(e.Vector)
}

// EncodeVector 将float32向量编码为小端字节序列
func EncodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector 从小端字节序列解码float32向量
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector encoding: %d bytes", len(data))
	}
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector, nil
}
