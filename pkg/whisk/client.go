package whisk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client は Whisk の各エンドポイントへのリクエスト構築と送信を担います。
// 認証解決・セッション確立・参照アップロード・生成呼び出しの各メソッドは
// credential.go / session.go / upload.go / dispatch.go に分かれています。
type Client struct {
	cfg Config
}

// NewClient は設定を補完して Client を初期化します。
func NewClient(cfg Config) *Client {
	cfg.normalize()
	return &Client{cfg: cfg}
}

// newRequest はブラウザ偽装ヘッダを付与した共通リクエストを構築します。
func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, err
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range fingerprintHeaders {
		req.Header.Set(k, v)
	}
	return req, nil
}

// postJSON は Cookie 認証の JSON POST（workflow 作成・参照アップロード）を送信し、
// ステータスと本文を返します。本文の解釈は呼び出し側の責務です。
func (c *Client) postJSON(ctx context.Context, url, cookie string, payload any, extra map[string]string) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("リクエスト本文の生成に失敗しました: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	return c.send(req)
}

func (c *Client) send(req *http.Request) (int, []byte, error) {
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("レスポンス本文の読み取りに失敗しました: %w", err)
	}
	return resp.StatusCode, body, nil
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

// preview は診断メッセージ用に本文の先頭だけを切り出します。文字単位で数えます。
func preview(body []byte, limit int) string {
	r := []rune(string(body))
	if len(r) > limit {
		return string(r[:limit])
	}
	return string(r)
}
