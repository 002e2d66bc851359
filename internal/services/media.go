package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jdeng/goheif"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/reviewhub/reviewhub/pkg/storage"
)

// MediaService 图片入库管道：HEIC/HEIF 先转成 JPEG 再上传，其余格式原样透传
type MediaService struct {
	storage storage.Storage
	cfg     *config.StorageConfig
	logger  *logger.Logger

	// 测试时可替换的 HEIC 解码入口
	decodeHEIC func(r io.Reader) (image.Image, error)
}

func NewMediaService(store storage.Storage, cfg *config.StorageConfig, logger *logger.Logger) *MediaService {
	return &MediaService{
		storage:    store,
		cfg:        cfg,
		logger:     logger,
		decodeHEIC: goheif.Decode,
	}
}

type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsHEIC 按扩展名或声明的 MIME 类型判断
func IsHEIC(name, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".heic" || ext == ".heif" {
		return true
	}
	return contentType == "image/heic" || contentType == "image/heif"
}

// JPEGName photo.HEIC -> photo.jpg
func JPEGName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".jpg"
}

// NormalizeImage HEIC 解码后按固定质量重编码为 JPEG，非 HEIC 不改动
func (s *MediaService) NormalizeImage(file *UploadFile) (*UploadFile, error) {
	if !IsHEIC(file.Name, file.ContentType) {
		return file, nil
	}

	img, err := s.decodeHEIC(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode HEIC image: %w", err)
	}

	var buf bytes.Buffer
	quality := s.cfg.JPEGQuality
	if quality <= 0 {
		quality = 80
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG image: %w", err)
	}

	return &UploadFile{
		Name:        JPEGName(file.Name),
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	}, nil
}

// objectKey 评价ID+序号+时间戳，避免同名覆盖
func objectKey(reviewID uuid.UUID, index int, name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s_%d_%d%s", reviewID, index, time.Now().UnixNano(), ext)
}

// UploadReviewImages 逐张归一化并上传，返回按序的公开 URL
func (s *MediaService) UploadReviewImages(ctx context.Context, reviewID uuid.UUID, files []*UploadFile) ([]string, error) {
	if len(files) > s.cfg.MaxImages {
		return nil, fmt.Errorf("at most %d images are allowed", s.cfg.MaxImages)
	}

	var urls []string
	for i, file := range files {
		if int64(len(file.Data)) > s.cfg.MaxUploadBytes {
			return nil, fmt.Errorf("image %s exceeds the upload size limit", file.Name)
		}

		normalized, err := s.NormalizeImage(file)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize image %s: %w", file.Name, err)
		}

		result, err := s.storage.Upload(ctx, &storage.UploadInput{
			Bucket:      storage.BucketReviewImages,
			Key:         objectKey(reviewID, i, normalized.Name),
			ContentType: normalized.ContentType,
			Data:        bytes.NewReader(normalized.Data),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %s: %w", file.Name, err)
		}

		urls = append(urls, result.URL)
	}

	return urls, nil
}

// DeleteReviewImages 补偿清理：评价行写入失败时删掉已上传的对象
func (s *MediaService) DeleteReviewImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		key := url[strings.LastIndex(url, "/")+1:]
		if err := s.storage.Delete(ctx, storage.BucketReviewImages, key); err != nil {
			s.logger.WithError(err).WithField("key", key).Error("Failed to delete review image")
		}
	}
}

func (s *MediaService) UploadAvatar(ctx context.Context, userID uuid.UUID, file *UploadFile) (string, error) {
	if int64(len(file.Data)) > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("avatar exceeds the upload size limit")
	}

	normalized, err := s.NormalizeImage(file)
	if err != nil {
		return "", fmt.Errorf("failed to normalize avatar: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(normalized.Name))
	if ext == "" {
		ext = ".jpg"
	}

	result, err := s.storage.Upload(ctx, &storage.UploadInput{
		Bucket:      storage.BucketAvatars,
		Key:         fmt.Sprintf("%s_%d%s", userID, time.Now().UnixNano(), ext),
		ContentType: normalized.ContentType,
		Data:        bytes.NewReader(normalized.Data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return result.URL, nil
}
