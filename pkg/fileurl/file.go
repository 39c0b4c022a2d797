package fileurl

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

type FileType int

const ImageType FileType = iota + 1

// ImageExts 允许上传的图片后缀
var ImageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".avif"}

// IsDir determines if the given path is a directory
// IsDir 判断所给路径是否为文件夹
func IsDir(path string) bool {
	s, err := os.Stat(path)
	if err != nil {
		return false
	}
	return s.IsDir()
}

// GetFileExt gets file extension
// GetFileExt 获取文件后缀
func GetFileExt(name string) string {
	return path.Ext(name)
}

// IsContainExt determines if file extension is within the allowed range
// IsContainExt 判断文件后缀是否在允许范围内
func IsContainExt(t FileType, name string, allowExts []string) bool {
	ext := strings.ToUpper(GetFileExt(name))
	switch t {
	case ImageType:
		for _, allowExt := range allowExts {
			if strings.ToUpper(allowExt) == ext {
				return true
			}
		}
	}
	return false
}

// IsExist determines if the given path exists
// IsExist 判断所给路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// CreatePath creates the parent directory of dst
// CreatePath 创建文件所在目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), perm)
}

// PathSuffixCheckAdd checks path suffix, adds it if not exists
// PathSuffixCheckAdd 检查路径后缀，如果没有则添加
func PathSuffixCheckAdd(path string, suffix string) string {
	if !strings.HasSuffix(path, suffix) {
		path = path + suffix
	}
	return path
}

// SafeBaseName returns the last path element of name when it is a plain
// file name, or "" when name tries to escape its directory.
// SafeBaseName 校验并返回安全的文件名
func SafeBaseName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ""
	}
	if strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}

// ResolvePath returns p when absolute, otherwise p joined to root.
// ResolvePath 相对路径基于 root 解析
func ResolvePath(p, root string) string {
	if filepath.IsAbs(p) || root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
