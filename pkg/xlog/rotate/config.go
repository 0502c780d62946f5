package rotate

// Config 文件写入器配置
type Config struct {
	// Filename 日志文件路径（必填），所在目录必须已存在
	Filename string

	// Overwrite 打开时截断已有内容，否则追加
	Overwrite bool

	// Daily 是否按天轮转
	Daily bool

	// MaxAge 保留旧日志文件的最大天数（仅 Daily 有效），0 表示不删除
	MaxAge int
}
