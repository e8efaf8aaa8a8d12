package drive

import "errors"

var (
	// ErrFileNotFound 远端存储中不存在该文件
	ErrFileNotFound = errors.New("远端文件不存在")
	// ErrEmptyFile 远端返回了零字节内容
	ErrEmptyFile = errors.New("远端文件内容为空")
)
