package storage

import (
	"context"
	"io"
)

// 存储桶名称，与对外 URL 的一级路径一致
const (
	BucketReviewImages = "review-images"
	BucketAvatars      = "avatars"
)

// Storage 对象存储抽象：上传后返回可公开访问的 URL
type Storage interface {
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
}

type UploadInput struct {
	Bucket      string
	Key         string
	ContentType string
	Data        io.Reader
}

type UploadResult struct {
	Key string
	URL string
}
