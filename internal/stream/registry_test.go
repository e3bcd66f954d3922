package stream

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender 收集发送的应答，供断言
type fakeSender struct {
	mu        sync.Mutex
	responses []Response
}

func (f *fakeSender) Send(resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
}

func (f *fakeSender) all() []Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Response, len(f.responses))
	copy(out, f.responses)
	return out
}

func TestRegistryAdmitCapacity(t *testing.T) {
	r := NewRegistry(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Admit(fmt.Sprintf("10.0.0.%d", i), &fakeSender{}))
	}
	assert.Equal(t, 5, r.Size())

	err := r.Admit("10.0.0.99", &fakeSender{})
	assert.ErrorIs(t, err, ErrServerFull)
	assert.Equal(t, 5, r.Size())
}

func TestRegistryReconnectPurge(t *testing.T) {
	r := NewRegistry(2)

	require.NoError(t, r.Admit("10.0.0.1", &fakeSender{}))
	require.NoError(t, r.Admit("10.0.0.2", &fakeSender{}))

	// 同地址重连先清旧会话，不占双份名额
	require.NoError(t, r.Admit("10.0.0.1", &fakeSender{}))
	assert.Equal(t, 2, r.Size())
}

func TestRegistryReconnectResetsBuffer(t *testing.T) {
	r := NewRegistry(2)
	require.NoError(t, r.Admit("10.0.0.1", &fakeSender{}))

	for i := 0; i < ChunkThreshold-1; i++ {
		_, ready := r.Append("10.0.0.1", []int16{1})
		require.False(t, ready)
	}

	require.NoError(t, r.Admit("10.0.0.1", &fakeSender{}))

	// 重连后缓冲从零开始
	_, ready := r.Append("10.0.0.1", []int16{1})
	assert.False(t, ready)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(1)
	sender := &fakeSender{}
	require.NoError(t, r.Admit("10.0.0.1", sender))
	r.Remove("10.0.0.1", sender)
	assert.False(t, r.Has("10.0.0.1"))
	assert.Equal(t, 0, r.Size())

	require.NoError(t, r.Admit("10.0.0.2", &fakeSender{}))
}

func TestRegistryRemoveStaleOwnerKeepsNewSession(t *testing.T) {
	r := NewRegistry(1)
	old := &fakeSender{}
	require.NoError(t, r.Admit("10.0.0.1", old))

	// 同地址重连替换会话
	replacement := &fakeSender{}
	require.NoError(t, r.Admit("10.0.0.1", replacement))

	// 旧连接关闭时不得误删新会话
	r.Remove("10.0.0.1", old)
	assert.True(t, r.Has("10.0.0.1"))

	r.Remove("10.0.0.1", replacement)
	assert.False(t, r.Has("10.0.0.1"))
}

func TestRegistryAppendFlushBoundary(t *testing.T) {
	r := NewRegistry(1)
	require.NoError(t, r.Admit("10.0.0.1", &fakeSender{}))

	for i := 0; i < ChunkThreshold-1; i++ {
		flushed, ready := r.Append("10.0.0.1", []int16{int16(i), int16(i)})
		assert.False(t, ready)
		assert.Nil(t, flushed)
	}

	flushed, ready := r.Append("10.0.0.1", []int16{9, 9})
	require.True(t, ready)
	assert.Len(t, flushed, ChunkThreshold*2)

	// 取走后缓冲清空，重新累计
	_, ready = r.Append("10.0.0.1", []int16{1})
	assert.False(t, ready)
}

func TestRegistryAppendUnknownSession(t *testing.T) {
	r := NewRegistry(1)
	flushed, ready := r.Append("10.0.0.1", []int16{1})
	assert.False(t, ready)
	assert.Nil(t, flushed)
}

func TestRegistryResetBuffer(t *testing.T) {
	r := NewRegistry(1)
	require.NoError(t, r.Admit("10.0.0.1", &fakeSender{}))

	for i := 0; i < ChunkThreshold-1; i++ {
		r.Append("10.0.0.1", []int16{1})
	}
	r.ResetBuffer("10.0.0.1")

	_, ready := r.Append("10.0.0.1", []int16{1})
	assert.False(t, ready)
}

func TestRegistrySpeakerNameUpsert(t *testing.T) {
	r := NewRegistry(1)
	sender := &fakeSender{}
	require.NoError(t, r.Admit("10.0.0.1", sender))

	r.SetSpeakerName("10.0.0.1", "alice", sender)
	assert.Equal(t, "alice", r.SpeakerName("10.0.0.1"))

	// 空名不覆盖
	r.SetSpeakerName("10.0.0.1", "", sender)
	assert.Equal(t, "alice", r.SpeakerName("10.0.0.1"))

	r.SetSpeakerName("10.0.0.1", "bob", sender)
	assert.Equal(t, "bob", r.SpeakerName("10.0.0.1"))
}

func TestRegistrySpeakerNameReAdmits(t *testing.T) {
	r := NewRegistry(2)

	// 会话不存在时按upsert重新接纳
	sender := &fakeSender{}
	r.SetSpeakerName("10.0.0.1", "alice", sender)
	assert.True(t, r.Has("10.0.0.1"))
	assert.Equal(t, "alice", r.SpeakerName("10.0.0.1"))
	assert.Equal(t, 1, r.Size())

	// 重新接纳的会话可以正常收到应答
	r.Notify("10.0.0.1", Response{Status: true, Task: TaskEnroll})
	assert.Len(t, sender.all(), 1)
}

func TestRegistrySpeakerNameUpsertRespectsCapacity(t *testing.T) {
	r := NewRegistry(1)
	require.NoError(t, r.Admit("10.0.0.1", &fakeSender{}))

	// 容量已满时upsert不得接纳新会话
	r.SetSpeakerName("10.0.0.2", "bob", &fakeSender{})
	assert.False(t, r.Has("10.0.0.2"))
	assert.Equal(t, 1, r.Size())
}

func TestRegistryNotify(t *testing.T) {
	r := NewRegistry(1)
	sender := &fakeSender{}
	require.NoError(t, r.Admit("10.0.0.1", sender))

	r.Notify("10.0.0.1", Response{Status: true, Task: TaskEnroll})
	require.Len(t, sender.all(), 1)

	// 会话移除后静默忽略
	r.Remove("10.0.0.1", sender)
	r.Notify("10.0.0.1", Response{Status: true, Task: TaskEnroll})
	assert.Len(t, sender.all(), 1)
}
