package webdav

import (
	"context"
	"path"

	"github.com/haierkeys/omni-blogger/pkg/fileurl"

	"github.com/pkg/errors"
)

func (w *WebDAV) objectKey(fileKey string) string {
	if w.Config.CustomPath == "" {
		return fileKey
	}
	return fileurl.PathSuffixCheckAdd(w.Config.CustomPath, "/") + fileKey
}

// Put 上传内容到 WebDAV 服务器
func (w *WebDAV) Put(ctx context.Context, fileKey string, content []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := w.objectKey(fileKey)

	if dir := path.Dir(key); dir != "." && dir != "/" {
		if err := w.Client.MkdirAll(dir, 0755); err != nil {
			return "", errors.Wrap(err, "webdav")
		}
	}
	if err := w.Client.Write(key, content, 0644); err != nil {
		return "", errors.Wrap(err, "webdav")
	}
	return key, nil
}

// Delete 删除 WebDAV 服务器上的文件
func (w *WebDAV) Delete(ctx context.Context, fileKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.Client.Remove(w.objectKey(fileKey)); err != nil {
		return errors.Wrap(err, "webdav")
	}
	return nil
}
