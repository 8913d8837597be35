package whisk

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/whisk-batch-kit/pkg/imgutil"
)

const savedFilePrefix = "whisk"

// Aggregate はディスパッチ結果を順に畳み込み、最終的な BatchResult を組み立てます。
// 成功ペイロードは要求があればディスクへ保存し、失敗はバッチ全体で最初の 1 件
// だけを trace に語らせます（高失敗率でも診断が膨らまないようにするためです）。
func (c *Client) Aggregate(outcomes []Outcome, saveFolder, workflowID string, trace *DiagnosticTrace) BatchResult {
	var images []SavedImage
	failureNarrated := false
	failed := 0

	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			if !failureNarrated {
				trace.Addf("Error #%d: %v", o.Index+1, o.Err)
				failureNarrated = true
			}
			continue
		}
		images = append(images, c.persist(o, saveFolder))
	}

	trace.Addf("API done")
	if failed > 0 {
		slog.Info("一部のタスクが失敗しました", "failed", failed, "total", len(outcomes))
	}

	if len(images) == 0 {
		trace.Addf("no images generated")
		return BatchResult{
			Success:     false,
			ProjectLink: c.cfg.ProjectURL + workflowID,
			Diagnostics: trace.String(),
		}
	}

	return BatchResult{
		Success:     true,
		Images:      images,
		ProjectLink: c.cfg.ProjectURL + workflowID,
		Diagnostics: trace.String(),
	}
}

// persist は成功した 1 件を SavedImage に変換します。保存先が指定されていれば
// PNG として書き出し、ラスタ復元できないバイト列はそのまま書きます。
// 保存に失敗してもペイロードはインラインで返るため、致命的ではありません。
func (c *Client) persist(o Outcome, saveFolder string) SavedImage {
	dataURI := "data:image/jpeg;base64," + o.Encoded
	img := SavedImage{EncodedImage: dataURI}

	if saveFolder == "" {
		return img
	}

	raw, err := base64.StdEncoding.DecodeString(o.Encoded)
	if err != nil {
		slog.Warn("画像ペイロードを base64 デコードできませんでした。保存せずにインラインで返します",
			"index", o.Index, "error", err)
		return img
	}

	if err := os.MkdirAll(saveFolder, 0o755); err != nil {
		slog.Warn("保存先フォルダを作成できませんでした", "folder", saveFolder, "error", err)
		return img
	}

	name := fmt.Sprintf("%s_%d_%d.png", savedFilePrefix, c.cfg.Now().Unix(), o.Index+1)
	path := filepath.Join(saveFolder, name)

	if pngBytes, err := imgutil.ToPNG(raw); err == nil {
		raw = pngBytes
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		slog.Warn("画像の保存に失敗しました", "path", path, "error", err)
		return img
	}

	img.SavedPath = path
	img.EncodedImage = path
	return img
}
