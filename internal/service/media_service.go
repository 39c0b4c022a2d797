package service

import (
	"context"
	"encoding/base64"
	"mime"
	"strings"

	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/contentapi"
	"github.com/haierkeys/omni-blogger/pkg/fileurl"
	"github.com/haierkeys/omni-blogger/pkg/logger"
	"github.com/haierkeys/omni-blogger/pkg/storage"
	"github.com/haierkeys/omni-blogger/pkg/workerpool"

	"go.uber.org/zap"
)

// MediaService 图片解码与对象存储镜像
type MediaService interface {
	// Decode 校验文件名并解码 base64 图片
	Decode(images []contentapi.Image) ([]domain.Image, error)
	// Mirror 异步上传图片到对象存储，返回入队数量
	Mirror(ctx context.Context, images []domain.Image) int
}

type mediaService struct {
	pool   *workerpool.Pool
	store  storage.Storager
	config *storage.Config
	logger *zap.Logger
}

// NewMediaService 创建 MediaService 实例；store 为 nil 表示未启用镜像
func NewMediaService(pool *workerpool.Pool, store storage.Storager, config *storage.Config, lg *zap.Logger) MediaService {
	return &mediaService{pool: pool, store: store, config: config, logger: logger.OrNop(lg)}
}

// Decode 解码图片
func (s *mediaService) Decode(images []contentapi.Image) ([]domain.Image, error) {
	out := make([]domain.Image, 0, len(images))
	for _, img := range images {
		name := fileurl.SafeBaseName(img.Filename)
		if name == "" || !fileurl.IsContainExt(fileurl.ImageType, name, fileurl.ImageExts) {
			return nil, code.ErrorImageInvalid.WithDetails("filename: " + img.Filename)
		}
		raw := img.Content
		// 兼容 data URL
		if i := strings.Index(raw, ";base64,"); strings.HasPrefix(raw, "data:") && i > 0 {
			raw = raw[i+len(";base64,"):]
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
		if err != nil {
			return nil, code.ErrorImageInvalid.WithDetails(name + ": " + err.Error())
		}
		out = append(out, domain.Image{Filename: name, Data: data})
	}
	return out, nil
}

// Mirror 提交镜像任务
func (s *mediaService) Mirror(ctx context.Context, images []domain.Image) int {
	if s.store == nil || s.pool == nil {
		return 0
	}
	queued := 0
	for _, img := range images {
		img := img
		err := s.pool.SubmitAsync(ctx, "mirror:"+img.Filename, func(ctx context.Context) error {
			key, err := s.store.Put(ctx, img.Filename, img.Data, mime.TypeByExtension(fileurl.GetFileExt(img.Filename)))
			if err != nil {
				return code.ErrorStorageMirror.WithDetails(err.Error())
			}
			s.logger.Info("image mirrored",
				zap.String(logger.FieldFileKey, key),
				zap.String("url", storage.PublicURL(s.config, key)),
				zap.Int(logger.FieldSize, len(img.Data)))
			return nil
		})
		if err != nil {
			s.logger.Warn("queue image mirror failed", zap.String(logger.FieldPath, img.Filename), zap.Error(err))
			continue
		}
		queued++
	}
	return queued
}
