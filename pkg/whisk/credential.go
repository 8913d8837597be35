package whisk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// tokenPaths はセッション応答からトークンを引く既知のパスです。
// 先頭から順に評価し、最初に見つかったものを採用します。
var tokenPaths = []string{
	"accessToken",
	"access_token",
	"token",
	"user.accessToken",
	"user.access_token",
	"user.token",
}

// ResolveCredential は使える Bearer トークンを確定させます。
// 渡されたトークンが有効形式ならそのまま、そうでなければ Cookie による
// セッション交換を 1 回だけ試みます。どちらも失敗した場合は CredentialError を
// 返し、バッチはそこで打ち切りです。試行の顛末は必ず trace に残ります。
func (c *Client) ResolveCredential(ctx context.Context, cred Credential, trace *DiagnosticTrace) (string, error) {
	token := cred.BearerToken

	if !(Credential{BearerToken: token}).Valid() {
		trace.Addf("No bearer token, trying auto-fetch...")
		if cred.Cookie != "" {
			fetched, err := c.fetchBearerToken(ctx, cred.Cookie)
			switch {
			case err != nil:
				trace.Addf("Auto-fetch error: %v", err)
			case fetched == "":
				trace.Addf("Auto-fetch: no token")
			default:
				trace.Addf("Auto-fetch bearer OK")
				token = fetched
			}
		}
	}

	if !(Credential{BearerToken: token}).Valid() {
		return "", &CredentialError{Diagnostics: trace.String()}
	}

	// フルトークンは記録しません。末尾と長さだけで照合には足ります。
	tail := token
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	trace.Addf("Token: ya29...%s, %d chars", tail, len(token))
	return token, nil
}

// fetchBearerToken は Cookie でセッション交換エンドポイントを叩き、
// 既知のキー位置からトークンを抽出します。非 2xx は「トークンなし」として
// エラーにせず空文字を返します。
func (c *Client) fetchBearerToken(ctx context.Context, cookie string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.SessionURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.send(req)
	if err != nil {
		return "", err
	}
	if !is2xx(status) {
		slog.Debug("セッション交換が非 2xx で返りました", "status", status)
		return "", nil
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return "", fmt.Errorf("session response is not a JSON object: %s", preview(body, 80))
	}
	for _, path := range tokenPaths {
		if v := root.Get(path); v.Type == gjson.String && v.Str != "" {
			return strings.TrimSpace(v.Str), nil
		}
	}
	return "", nil
}
