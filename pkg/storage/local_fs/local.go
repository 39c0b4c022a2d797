package local_fs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/haierkeys/omni-blogger/pkg/fileurl"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

type Config struct {
	SavePath   string `yaml:"save-path" default:"storage/mirror"`
	CustomPath string `yaml:"custom-path"`
}

// LocalFS stores objects as files below SavePath.
type LocalFS struct {
	Config *Config
}

func NewClient(conf *Config) (*LocalFS, error) {
	if conf == nil || conf.SavePath == "" {
		return nil, errors.New("local_fs: save path is required")
	}
	return &LocalFS{Config: conf}, nil
}

func (p *LocalFS) objectKey(fileKey string) string {
	if p.Config.CustomPath == "" {
		return fileKey
	}
	return fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/") + fileKey
}

func (p *LocalFS) Put(ctx context.Context, fileKey string, content []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := p.objectKey(fileKey)
	dst := filepath.Join(p.Config.SavePath, filepath.FromSlash(key))

	if err := fileurl.CreatePath(dst, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	if err := atomic.WriteFile(dst, bytes.NewReader(content)); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	return key, nil
}

func (p *LocalFS) Delete(ctx context.Context, fileKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := filepath.Join(p.Config.SavePath, filepath.FromSlash(p.objectKey(fileKey)))
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "local_fs")
	}
	return nil
}
