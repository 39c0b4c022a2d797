package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldPath 文件路径字段
	FieldPath = "path"

	// FieldSlug 文章 slug 字段
	FieldSlug = "slug"

	// FieldDraftID 草稿 ID 字段
	FieldDraftID = "draftId"

	// FieldVersion 内容版本 (SHA) 字段
	FieldVersion = "sha"

	// FieldStep 步骤 ID 字段
	FieldStep = "step"

	// FieldAttempt 尝试次数字段
	FieldAttempt = "attempt"

	// FieldKind 错误分类字段
	FieldKind = "kind"

	// FieldDelay 重试等待时间字段
	FieldDelay = "delay"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldSize 文件大小字段
	FieldSize = "size"

	// FieldBucket 存储桶名称字段
	FieldBucket = "bucket"

	// FieldFileKey 文件键字段
	FieldFileKey = "fileKey"

	// FieldCommand 外部命令字段
	FieldCommand = "command"
)
