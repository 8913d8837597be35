// Package updater はリリースマニフェストの照会と更新バイナリの取得を行います。
// バッチ本体からは独立した外郭ユーティリティです。
package updater

import (
	"context"
	"fmt"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/tidwall/gjson"
)

// DefaultManifestURL は既定の照会先（GitHub の最新リリース API）です。
const DefaultManifestURL = "https://api.github.com/repos/duclagi159/AutoWhiskLozyMMO/releases/latest"

// ReleaseInfo は最新リリースの要約です。
type ReleaseInfo struct {
	Version     string
	DownloadURL string
	Notes       string
}

// Checker は更新確認の窓口です。
type Checker struct {
	client      httpkit.ClientInterface
	manifestURL string
}

// NewChecker は HTTP クライアントを注入して Checker を初期化します。
// manifestURL が空なら既定の照会先を使います。
func NewChecker(client httpkit.ClientInterface, manifestURL string) (*Checker, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if manifestURL == "" {
		manifestURL = DefaultManifestURL
	}
	return &Checker{client: client, manifestURL: manifestURL}, nil
}

// Check は最新リリースのメタデータを取得します。リトライはしません。
func (c *Checker) Check(ctx context.Context) (*ReleaseInfo, error) {
	body, err := c.client.FetchBytes(ctx, c.manifestURL)
	if err != nil {
		return nil, fmt.Errorf("リリース情報の取得に失敗しました: %w", err)
	}

	root := gjson.ParseBytes(body)
	version := root.Get("tag_name").String()
	if version == "" {
		return nil, fmt.Errorf("リリース情報に tag_name がありません")
	}

	return &ReleaseInfo{
		Version:     version,
		DownloadURL: root.Get("assets.0.browser_download_url").String(),
		Notes:       root.Get("body").String(),
	}, nil
}

// Download は更新バイナリをそのままバイト列で取得します。保存先の決定は
// 呼び出し側の責務です。
func (c *Checker) Download(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("download URL is required")
	}
	data, err := c.client.FetchBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("更新バイナリのダウンロードに失敗しました: %w", err)
	}
	return data, nil
}
