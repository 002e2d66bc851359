package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/reviewhub/reviewhub/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHEIC(t *testing.T) {
	assert.True(t, IsHEIC("photo.heic", ""))
	assert.True(t, IsHEIC("photo.HEIC", ""))
	assert.True(t, IsHEIC("photo.heif", ""))
	assert.True(t, IsHEIC("photo.bin", "image/heic"))
	assert.True(t, IsHEIC("photo.bin", "image/heif"))

	assert.False(t, IsHEIC("photo.jpg", "image/jpeg"))
	assert.False(t, IsHEIC("photo.png", "image/png"))
	assert.False(t, IsHEIC("heic.jpg", "image/jpeg"))
}

func TestJPEGName(t *testing.T) {
	assert.Equal(t, "photo.jpg", JPEGName("photo.heic"))
	assert.Equal(t, "IMG_0042.jpg", JPEGName("IMG_0042.HEIC"))
	assert.Equal(t, "photo.jpg", JPEGName("photo.png"))
	assert.Equal(t, "archive.tar.jpg", JPEGName("archive.tar.gz"))
}

func TestNormalizeImagePassthrough(t *testing.T) {
	svc := NewMediaService(nil, &config.StorageConfig{JPEGQuality: 80}, logger.NewLogger())

	original := &UploadFile{
		Name:        "photo.jpg",
		ContentType: "image/jpeg",
		Data:        []byte{0xff, 0xd8, 0xff},
	}

	normalized, err := svc.NormalizeImage(original)
	require.NoError(t, err)
	assert.Same(t, original, normalized)
}

func TestNormalizeImageConvertsHEIC(t *testing.T) {
	svc := NewMediaService(nil, &config.StorageConfig{JPEGQuality: 80}, logger.NewLogger())

	var decoded []byte
	svc.decodeHEIC = func(r io.Reader) (image.Image, error) {
		var err error
		decoded, err = io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		for x := 0; x < 8; x++ {
			for y := 0; y < 8; y++ {
				img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
			}
		}
		return img, nil
	}

	normalized, err := svc.NormalizeImage(&UploadFile{
		Name:        "IMG_0042.HEIC",
		ContentType: "image/heic",
		Data:        []byte("heic bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("heic bytes"), decoded)
	assert.Equal(t, "IMG_0042.jpg", normalized.Name)
	assert.Equal(t, "image/jpeg", normalized.ContentType)

	// 输出必须是合法 JPEG
	img, err := jpeg.Decode(bytes.NewReader(normalized.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
}

// HEIC 走完整上传管道后落盘的是 .jpg 对象
func TestUploadReviewImagesConvertsHEIC(t *testing.T) {
	store := newFakeStorage()
	svc := NewMediaService(store, &config.StorageConfig{
		MaxUploadBytes: 1024,
		JPEGQuality:    80,
		MaxImages:      5,
	}, logger.NewLogger())
	svc.decodeHEIC = func(r io.Reader) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
	}

	urls, err := svc.UploadReviewImages(context.Background(), uuid.New(), []*UploadFile{
		{Name: "photo.heic", ContentType: "image/heic", Data: []byte("heic bytes")},
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.True(t, strings.HasSuffix(urls[0], ".jpg"))

	for key, data := range store.uploads {
		assert.True(t, strings.HasSuffix(key, ".jpg"))
		_, err := jpeg.Decode(bytes.NewReader(data))
		assert.NoError(t, err)
	}
}

func TestNormalizeImageRejectsCorruptHEIC(t *testing.T) {
	svc := NewMediaService(nil, &config.StorageConfig{JPEGQuality: 80}, logger.NewLogger())

	_, err := svc.NormalizeImage(&UploadFile{
		Name:        "photo.heic",
		ContentType: "image/heic",
		Data:        []byte("not a real heic file"),
	})
	assert.Error(t, err)
}

type fakeStorage struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, err
	}
	s.uploads[input.Key] = data
	return &storage.UploadResult{
		Key: input.Key,
		URL: "http://localhost/uploads/" + input.Bucket + "/" + input.Key,
	}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, bucket, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.uploads, key)
	return nil
}

func (s *fakeStorage) PublicURL(bucket, key string) string {
	return "http://localhost/uploads/" + bucket + "/" + key
}

func TestUploadReviewImages(t *testing.T) {
	store := newFakeStorage()
	svc := NewMediaService(store, &config.StorageConfig{
		MaxUploadBytes: 1024,
		JPEGQuality:    80,
		MaxImages:      5,
	}, logger.NewLogger())

	reviewID := uuid.New()
	files := []*UploadFile{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("aaa")},
		{Name: "b.png", ContentType: "image/png", Data: []byte("bbb")},
	}

	urls, err := svc.UploadReviewImages(context.Background(), reviewID, files)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.Len(t, store.uploads, 2)

	// 对象键以评价ID开头，带扩展名
	for key := range store.uploads {
		assert.Contains(t, key, reviewID.String())
	}
}

func TestUploadReviewImagesTooMany(t *testing.T) {
	svc := NewMediaService(newFakeStorage(), &config.StorageConfig{
		MaxUploadBytes: 1024,
		MaxImages:      2,
	}, logger.NewLogger())

	files := []*UploadFile{
		{Name: "a.jpg", Data: []byte("a")},
		{Name: "b.jpg", Data: []byte("b")},
		{Name: "c.jpg", Data: []byte("c")},
	}

	_, err := svc.UploadReviewImages(context.Background(), uuid.New(), files)
	assert.Error(t, err)
}

func TestUploadReviewImagesTooLarge(t *testing.T) {
	svc := NewMediaService(newFakeStorage(), &config.StorageConfig{
		MaxUploadBytes: 2,
		MaxImages:      5,
	}, logger.NewLogger())

	_, err := svc.UploadReviewImages(context.Background(), uuid.New(), []*UploadFile{
		{Name: "big.jpg", Data: []byte("too big")},
	})
	assert.Error(t, err)
}

func TestDeleteReviewImages(t *testing.T) {
	store := newFakeStorage()
	svc := NewMediaService(store, &config.StorageConfig{
		MaxUploadBytes: 1024,
		MaxImages:      5,
	}, logger.NewLogger())

	urls, err := svc.UploadReviewImages(context.Background(), uuid.New(), []*UploadFile{
		{Name: "a.jpg", Data: []byte("a")},
	})
	require.NoError(t, err)

	svc.DeleteReviewImages(context.Background(), urls)
	assert.Empty(t, store.uploads)
	assert.Len(t, store.deleted, 1)
}
