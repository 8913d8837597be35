package whisk

import (
	"math/rand/v2"
	"net/http"
	"time"
)

// Whisk 実サービスのエンドポイント群です。
const (
	DefaultGenerateURL = "https://aisandbox-pa.googleapis.com/v1/whisk:generateImage"
	DefaultWorkflowURL = "https://labs.google/fx/api/trpc/media.createOrUpdateWorkflow"
	DefaultSessionURL  = "https://labs.google/fx/api/auth/session"
	DefaultUploadURL   = "https://labs.google/fx/api/trpc/backbone.uploadImage"
	DefaultProjectURL  = "https://labs.google/fx/tools/whisk/project/"
)

// DefaultTimeout は 1 回の API 呼び出しに許す絶対タイムアウトです。
const DefaultTimeout = 300 * time.Second

// defaultHeaders は全リクエストに付与するブラウザ偽装ヘッダです。
// 値は上流サービスが受理する組み合わせそのものであり、変更すると弾かれます。
var defaultHeaders = map[string]string{
	"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
	"Accept":             "*/*",
	"Accept-Language":    "vi,en;q=0.9",
	"Origin":             "https://labs.google",
	"Referer":            "https://labs.google/",
	"sec-ch-ua":          `"Google Chrome";v="143", "Chromium";v="143", "Not A(Brand";v="24"`,
	"sec-ch-ua-mobile":   "?0",
	"sec-ch-ua-platform": `"Windows"`,
	"sec-fetch-dest":     "empty",
	"sec-fetch-mode":     "cors",
	"sec-fetch-site":     "cross-site",
}

// fingerprintHeaders は生成呼び出しの既定指紋です。呼び出し側が extraHeaders を
// 渡した場合はこの 3 つを丸ごと置き換えます（マージはしません）。
var fingerprintHeaders = map[string]string{
	"x-browser-channel":   "stable",
	"x-browser-copyright": "Copyright 2025 Google LLC. All Rights reserved.",
	"x-browser-year":      "2025",
}

// generateHeaders は生成呼び出しのみに付与する固定ヘッダです。
var generateHeaders = map[string]string{
	"Content-Type":         "text/plain;charset=UTF-8",
	"Priority":             "u=1, i",
	"X-Browser-Validation": "UujAs0GAwdnCJ9nvrswZ+O+oco0=",
	"X-Client-Data":        "CJC2yQEIpbbJAQipncoBCLHhygEIk6HLAQiFoM0BCJGkzwEY86LPAQ==",
}

// Doer は HTTP 送信の注入点です。*http.Client がそのまま満たします。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config はエンドポイントや乱数源などの静的設定です。
// ゼロ値のフィールドは NewClient がデフォルトで補完します。
type Config struct {
	GenerateURL string
	WorkflowURL string
	SessionURL  string
	UploadURL   string
	ProjectURL  string

	// Timeout は HTTPClient 未指定時にクライアントへ設定する呼び出し単位の上限です。
	Timeout time.Duration

	// HTTPClient を差し替えるとトランスポート層をテストで偽装できます。
	HTTPClient Doer

	// Now は時刻依存の識別子（sessionId, 保存ファイル名）を再現可能にします。
	Now func() time.Time

	// SeedBase はバッチごとのシード基点を返します。[100000, 999999) の一様乱数が既定です。
	SeedBase func() int64
}

// DefaultConfig は実サービス向けの既定設定を返します。
func DefaultConfig() Config {
	return Config{
		GenerateURL: DefaultGenerateURL,
		WorkflowURL: DefaultWorkflowURL,
		SessionURL:  DefaultSessionURL,
		UploadURL:   DefaultUploadURL,
		ProjectURL:  DefaultProjectURL,
		Timeout:     DefaultTimeout,
		Now:         time.Now,
		SeedBase:    randomSeedBase,
	}
}

func randomSeedBase() int64 {
	return rand.Int64N(999999-100000) + 100000
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.GenerateURL == "" {
		c.GenerateURL = d.GenerateURL
	}
	if c.WorkflowURL == "" {
		c.WorkflowURL = d.WorkflowURL
	}
	if c.SessionURL == "" {
		c.SessionURL = d.SessionURL
	}
	if c.UploadURL == "" {
		c.UploadURL = d.UploadURL
	}
	if c.ProjectURL == "" {
		c.ProjectURL = d.ProjectURL
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.SeedBase == nil {
		c.SeedBase = randomSeedBase
	}
}
