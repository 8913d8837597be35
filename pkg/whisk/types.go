package whisk

import "strings"

// Credential は 1 バッチ分の認証情報です。解決後は不変として扱います。
type Credential struct {
	Cookie      string
	BearerToken string
}

// Valid は BearerToken がそのまま使える形式かどうかを返します。
// Whisk の生成 API は "ya29." で始まる OAuth トークンのみ受理します。
func (c Credential) Valid() bool {
	return strings.HasPrefix(c.BearerToken, "ya29.")
}

// SessionContext はバッチ内の呼び出しを束ねる相関識別子です。
// 認可情報ではないため、workflowId の取得失敗は致命的ではありません。
type SessionContext struct {
	WorkflowID string
	SessionID  string
}

// BatchRequest は 1 回のバッチ生成要求です。
type BatchRequest struct {
	Prompt      string
	AspectRatio string // "16:9" / "9:16" / "1:1"、その他は 16:9 扱い
	Count       int

	// ReferenceImages はファイルパスまたは data URI の列です。順序どおりに
	// 逐次アップロードされます。
	ReferenceImages []string

	// ExtraHeaders を指定すると既定の x-browser-* 指紋 3 つを丸ごと置き換えます。
	ExtraHeaders map[string]string

	// SaveFolder を指定すると成功画像を PNG として保存します。
	SaveFolder string
}

// SavedImage は生成された 1 枚の画像の受け渡し形式です。
type SavedImage struct {
	SavedPath    string `json:"savedPath,omitempty"`
	EncodedImage string `json:"encodedImage"`
}

// BatchResult はバッチの最終結果です。一部のタスクが失敗していても
// 1 枚以上生成できていれば Success は true になります。
type BatchResult struct {
	Success     bool         `json:"success"`
	Images      []SavedImage `json:"images,omitempty"`
	ProjectLink string       `json:"projectLink,omitempty"`
	Diagnostics string       `json:"diagInfo"`
}

// 上流 API のアスペクト比表現です。
const (
	aspectLandscape = "IMAGE_ASPECT_RATIO_LANDSCAPE"
	aspectPortrait  = "IMAGE_ASPECT_RATIO_PORTRAIT"
	aspectSquare    = "IMAGE_ASPECT_RATIO_SQUARE"
)

// mapAspectRatio は入力比率を API 表現に写します。全域関数であり、
// 未知の入力は横長（既定）に落とします。
func mapAspectRatio(ratio string) string {
	switch ratio {
	case "9:16":
		return aspectPortrait
	case "1:1":
		return aspectSquare
	default:
		return aspectLandscape
	}
}
