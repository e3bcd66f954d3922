package archive

import (
	"context"
	"os"

	"github.com/LingByte/lingstorage-sdk-go"
	"go.uber.org/zap"
)

// Uploader 将处理后的音频副本归档到对象存储。
// 归档失败不影响主流程，只记录日志。
type Uploader struct {
	client *lingstorage.Client
	bucket string
	logger *zap.Logger
}

// NewUploader creates an archive uploader on top of the storage client.
// A nil client disables archiving.
func NewUploader(client *lingstorage.Client, bucket string) *Uploader {
	return &Uploader{
		client: client,
		bucket: bucket,
		logger: zap.L().Named("archive"),
	}
}

// Upload 上传本地文件到对象存储，返回是否成功
func (u *Uploader) Upload(ctx context.Context, localPath, remoteKey string) bool {
	if u == nil || u.client == nil {
		return false
	}

	file, err := os.Open(localPath)
	if err != nil {
		u.logger.Warn("open archive file failed",
			zap.String("path", localPath),
			zap.Error(err))
		return false
	}
	defer file.Close()

	result, err := u.client.UploadFromReader(&lingstorage.UploadFromReaderRequest{
		Reader:   file,
		Bucket:   u.bucket,
		Filename: remoteKey,
		Key:      remoteKey,
	})
	if err != nil {
		u.logger.Warn("archive upload failed",
			zap.String("key", remoteKey),
			zap.Error(err))
		return false
	}

	u.logger.Info("audio archived",
		zap.String("key", remoteKey),
		zap.String("url", result.URL))
	return true
}

// UploadBytes 上传内存中的音频数据，返回是否成功
func (u *Uploader) UploadBytes(ctx context.Context, data []byte, remoteKey string) bool {
	if u == nil || u.client == nil {
		return false
	}

	result, err := u.client.UploadBytes(&lingstorage.UploadBytesRequest{
		Bucket:   u.bucket,
		Data:     data,
		Filename: remoteKey,
	})
	if err != nil {
		u.logger.Warn("archive upload failed",
			zap.String("key", remoteKey),
			zap.Error(err))
		return false
	}

	u.logger.Info("audio archived",
		zap.String("key", remoteKey),
		zap.String("url", result.URL))
	return true
}
