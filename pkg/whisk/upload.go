package whisk

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const referenceCaption = "Reference image for Whisk"

// UploadReferences は参照画像を与えられた順に 1 枚ずつアップロードします。
// 上流負荷と順序を単純に保つため、意図的に並行化していません。
// 個々の失敗（デコード不能・読み取り不能・非 2xx）は trace に残すだけで、
// 残りのアップロードもバッチ本体も止めません。
func (c *Client) UploadReferences(ctx context.Context, cookie string, refs []string, sess SessionContext, trace *DiagnosticTrace) {
	for _, ref := range refs {
		mime, data, err := loadReference(ref)
		if err != nil {
			trace.Addf("Ref error: %v", err)
			continue
		}

		ok, err := c.uploadReference(ctx, cookie, data, mime, sess)
		switch {
		case err != nil:
			trace.Addf("Ref error: %v", err)
		case ok:
			trace.Addf("Ref image uploaded")
		default:
			trace.Addf("Ref upload failed")
		}
	}
}

// loadReference は data URI またはファイルパスから (MIME, バイト列) を得ます。
func loadReference(ref string) (string, []byte, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return "", nil, fmt.Errorf("参照画像を読み取れませんでした: %w", err)
	}
	return mimeFromExt(ref), data, nil
}

func decodeDataURI(uri string) (string, []byte, error) {
	pos := strings.Index(uri, ",")
	if pos < 0 {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	header := uri[:pos]
	mime := strings.TrimPrefix(header, "data:")
	mime = strings.Replace(mime, ";base64", "", 1)

	data, err := base64.StdEncoding.DecodeString(uri[pos+1:])
	if err != nil {
		return "", nil, fmt.Errorf("data URI のデコードに失敗しました: %w", err)
	}
	return mime, data, nil
}

func mimeFromExt(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	default:
		return "image/png"
	}
}

func (c *Client) uploadReference(ctx context.Context, cookie string, data []byte, mime string, sess SessionContext) (bool, error) {
	rawBytes := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))

	payload := map[string]any{
		"json": map[string]any{
			"clientContext": map[string]any{
				"workflowId": sess.WorkflowID,
				"sessionId":  sess.SessionID,
			},
			"uploadMediaInput": map[string]any{
				"mediaCategory": "MEDIA_CATEGORY_SUBJECT",
				"rawBytes":      rawBytes,
				"caption":       referenceCaption,
			},
		},
	}

	// アップロードだけは対象プロジェクトを Referer で指す必要があります。
	extra := map[string]string{"Referer": c.cfg.ProjectURL + sess.WorkflowID}

	status, _, err := c.postJSON(ctx, c.cfg.UploadURL, cookie, payload, extra)
	if err != nil {
		return false, err
	}
	return is2xx(status), nil
}
