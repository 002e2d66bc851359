package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 本地磁盘实现，文件写入 baseDir/<bucket>/<key>，
// 由 API 进程通过静态路由对外提供访问
type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	for _, bucket := range []string{BucketReviewImages, BucketAvatars} {
		if err := os.MkdirAll(filepath.Join(baseDir, bucket), 0755); err != nil {
			return nil, fmt.Errorf("failed to create bucket dir: %w", err)
		}
	}

	return &LocalStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	if strings.Contains(input.Key, "..") || strings.Contains(input.Key, "/") {
		return nil, fmt.Errorf("invalid object key: %s", input.Key)
	}

	path := filepath.Join(s.baseDir, input.Bucket, input.Key)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create object file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, input.Data); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write object: %w", err)
	}

	return &UploadResult{
		Key: input.Key,
		URL: s.PublicURL(input.Bucket, input.Key),
	}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, bucket, key string) error {
	if strings.Contains(key, "..") || strings.Contains(key, "/") {
		return fmt.Errorf("invalid object key: %s", key)
	}

	if err := os.Remove(filepath.Join(s.baseDir, bucket, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *LocalStorage) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, bucket, key)
}

// Dir 静态文件路由挂载用
func (s *LocalStorage) Dir() string {
	return s.baseDir
}
