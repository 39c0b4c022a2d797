// Package storage mirrors uploaded post images to object storage.
package storage

import (
	"context"
	"strings"

	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/storage/aliyun_oss"
	"github.com/haierkeys/omni-blogger/pkg/storage/aws_s3"
	"github.com/haierkeys/omni-blogger/pkg/storage/local_fs"
	"github.com/haierkeys/omni-blogger/pkg/storage/webdav"

	"go.uber.org/zap"
)

type Type = string

const (
	LOCAL  Type = "localfs"
	OSS    Type = "oss"
	S3     Type = "s3"
	R2     Type = "r2"
	MinIO  Type = "minio"
	WebDAV Type = "webdav"
)

// StorageTypeMap 支持的存储类型
var StorageTypeMap = map[Type]bool{
	LOCAL:  true,
	OSS:    true,
	S3:     true,
	R2:     true,
	MinIO:  true,
	WebDAV: true,
}

// Config Unified storage configuration
// Config 统一存储配置
type Config struct {
	Type      Type `yaml:"type" default:"localfs"`
	IsEnabled bool `yaml:"is-enable"`
	// CustomPath 对象键前缀
	CustomPath string `yaml:"custom-path" default:"images"`
	// PublicURL 镜像文件的公开访问地址前缀
	PublicURL string `yaml:"public-url"`

	// S3 / OSS / MinIO / R2
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	AccountID       string `yaml:"account-id"` // Cloudflare R2

	// WebDAV
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Local FS
	SavePath string `yaml:"save-path" default:"storage/mirror"`
}

// Storager is an object store that accepts whole files.
type Storager interface {
	// Put 写入对象，返回最终对象键
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
	// Delete 删除对象，对象不存在时不报错
	Delete(ctx context.Context, key string) error
}

// NewClient builds the backend selected by config.Type.
func NewClient(config *Config, logger *zap.Logger) (Storager, error) {
	if config == nil {
		return nil, code.ErrorStorageTypeInvalid
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(config.Type) {
	case LOCAL:
		return local_fs.NewClient(&local_fs.Config{
			SavePath:   config.SavePath,
			CustomPath: config.CustomPath,
		})
	case OSS:
		return aliyun_oss.NewClient(&aliyun_oss.Config{
			Endpoint:        config.Endpoint,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		})
	case S3:
		return aws_s3.NewClient(&aws_s3.Config{
			Region:          config.Region,
			Endpoint:        config.Endpoint,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}, aws_s3.WithLogger(logger))
	case R2:
		return aws_s3.NewClient(&aws_s3.Config{
			Region:          "auto",
			Endpoint:        "https://" + config.AccountID + ".r2.cloudflarestorage.com",
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}, aws_s3.WithLogger(logger))
	case MinIO:
		return aws_s3.NewClient(&aws_s3.Config{
			Region:          config.Region,
			Endpoint:        config.Endpoint,
			UsePathStyle:    true,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}, aws_s3.WithLogger(logger))
	case WebDAV:
		return webdav.NewClient(&webdav.Config{
			Endpoint:   config.Endpoint,
			User:       config.User,
			Password:   config.Password,
			CustomPath: config.CustomPath,
		})
	}
	return nil, code.ErrorStorageTypeInvalid
}

// PublicURL joins the configured public prefix with an object key.
// Empty when no prefix is configured.
func PublicURL(config *Config, key string) string {
	if config == nil || config.PublicURL == "" {
		return ""
	}
	return strings.TrimSuffix(config.PublicURL, "/") + "/" + strings.TrimPrefix(key, "/")
}
