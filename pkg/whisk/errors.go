package whisk

import "fmt"

// CredentialError は有効な Bearer トークンを得られなかったことを表します。
// バッチを打ち切る唯一のエラー種別です。
type CredentialError struct {
	Diagnostics string
}

func (e *CredentialError) Error() string {
	return "no valid bearer token: generate one image on the Whisk web UI first, then capture the cookie again. " + e.Diagnostics
}

// UpstreamStatusError は生成呼び出しが非 2xx で返ったことを表します。
type UpstreamStatusError struct {
	Status  int
	Preview string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Preview)
}

// ParseError は応答本文から画像ペイロードを取り出せなかったことを表します。
type ParseError struct {
	Preview string
}

func (e *ParseError) Error() string {
	return "no image in response: " + e.Preview
}
