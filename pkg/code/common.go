package code

import "net/http"

var (
	Success = NewSuss(1, lang{en: "Success", zh_cn: "成功"})

	Failed                = NewError(400, http.StatusBadRequest, lang{en: "Operation failed", zh_cn: "操作失败"})
	ErrorServerInternal   = NewError(500, http.StatusInternalServerError, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorNotFound         = NewError(404, http.StatusNotFound, lang{en: "Resource not found", zh_cn: "资源不存在"})
	ErrorInvalidParams    = NewError(405, http.StatusBadRequest, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorInvalidAuthToken = NewError(505, http.StatusUnauthorized, lang{en: "Invalid or missing authorization token", zh_cn: "授权令牌无效或缺失"})
	ErrorTooManyRequests  = NewError(507, http.StatusTooManyRequests, lang{en: "Too many requests, rate limit exceeded", zh_cn: "请求过多，已触发限流"})
	ErrorRequestTimeout   = NewError(508, http.StatusGatewayTimeout, lang{en: "Request timed out", zh_cn: "请求超时"})
	ErrorBodyTooLarge     = NewError(509, http.StatusRequestEntityTooLarge, lang{en: "Request body too large", zh_cn: "请求体过大"})

	ErrorDBQuery = NewError(1001, http.StatusInternalServerError, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
	ErrorDBWrite = NewError(1002, http.StatusInternalServerError, lang{en: "Database write failed", zh_cn: "数据库写入失败"})

	// Drafts 草稿
	ErrorDraftNotFound   = NewError(2001, http.StatusNotFound, lang{en: "Draft not found", zh_cn: "草稿不存在"})
	ErrorDraftTitleEmpty = NewError(2002, http.StatusBadRequest, lang{en: "Please enter a title", zh_cn: "请输入标题"})
	ErrorDraftBodyEmpty  = NewError(2003, http.StatusBadRequest, lang{en: "Please add some content", zh_cn: "请添加内容"})
	ErrorDraftSlugEmpty  = NewError(2004, http.StatusBadRequest, lang{en: "Title must contain at least one letter or digit", zh_cn: "标题至少需要包含一个字母或数字"})

	// Posts 文章
	ErrorPostNotFound        = NewError(3001, http.StatusNotFound, lang{en: "Post not found", zh_cn: "文章不存在"})
	ErrorPostConflict        = NewError(3002, http.StatusConflict, lang{en: "The post was changed remotely, reload it before saving again", zh_cn: "文章已在远端被修改，请重新加载后再保存"})
	ErrorPostFilenameInvalid = NewError(3003, http.StatusBadRequest, lang{en: "Invalid post filename", zh_cn: "文章文件名无效"})
	ErrorPostWrite           = NewError(3004, http.StatusInternalServerError, lang{en: "Failed to write post", zh_cn: "写入文章失败"})
	ErrorPostCommit          = NewError(3005, http.StatusInternalServerError, lang{en: "Failed to commit post changes", zh_cn: "提交文章变更失败"})
	ErrorImageInvalid        = NewError(3006, http.StatusBadRequest, lang{en: "Invalid image payload", zh_cn: "图片数据无效"})

	// Build & deploy 构建与部署
	ErrorBuildFailed  = NewError(4001, http.StatusInternalServerError, lang{en: "Site build failed", zh_cn: "站点构建失败"})
	ErrorDeployFailed = NewError(4002, http.StatusInternalServerError, lang{en: "Site deploy failed", zh_cn: "站点部署失败"})

	// Resume 续传
	ErrorResumeTokenInvalid = NewError(5001, http.StatusBadRequest, lang{en: "Invalid resume token", zh_cn: "续传令牌无效"})
	ErrorResumeExpired      = NewError(5002, http.StatusGone, lang{en: "Saved progress has expired", zh_cn: "已保存的进度已过期"})

	// Storage 存储
	ErrorStorageTypeInvalid = NewError(6001, http.StatusBadRequest, lang{en: "Invalid storage type", zh_cn: "存储类型无效"})
	ErrorStorageMirror      = NewError(6002, http.StatusInternalServerError, lang{en: "Failed to mirror image to storage", zh_cn: "图片镜像到存储失败"})
)
