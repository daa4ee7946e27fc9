package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// ClientOptions 出站 HTTP 客户端选项
type ClientOptions struct {
	BaseURL  string
	Timeout  time.Duration
	Debug    bool
	ProxyURL string
}

// NewHTTPClient 创建配置好基础地址、超时和调试模式的 Resty 客户端
// 它是全系统统一的出站请求入口
func NewHTTPClient(opts ClientOptions) *resty.Client {
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetDebug(opts.Debug).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "Storefront-Go/1.0").
		SetHeader("Accept", "application/json")

	if opts.ProxyURL != "" {
		client.SetProxy(opts.ProxyURL)
	}
	return client
}
