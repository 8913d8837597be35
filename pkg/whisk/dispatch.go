package whisk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Outcome は 1 タスクの結果です。Err が nil なら Encoded に画像ペイロードが入ります。
type Outcome struct {
	Index   int
	Seed    int64
	Encoded string
	Err     error
}

// generateRequest は生成エンドポイントのリクエスト本文です。
type generateRequest struct {
	ClientContext      clientContext      `json:"clientContext"`
	ImageModelSettings imageModelSettings `json:"imageModelSettings"`
	Seed               int64              `json:"seed"`
	Prompt             string             `json:"prompt"`
	MediaCategory      string             `json:"mediaCategory"`
}

type clientContext struct {
	WorkflowID string `json:"workflowId"`
	Tool       string `json:"tool"`
	SessionID  string `json:"sessionId"`
}

type imageModelSettings struct {
	ImageModel  string `json:"imageModel"`
	AspectRatio string `json:"aspectRatio"`
}

// Dispatch は count 個の生成タスクを同時に発行し、全タスクの完了を待ってから
// インデックス順の結果列を返します。シードはバッチごとの基点 + インデックスで
// 導出され、バッチ内で一意です。タスク同士は不変の入力を共有するだけで、
// 飛行中に共有状態へ書き込むものはありません。最初の成功や失敗での早期復帰も
// しません。count が 0 以下ならタスクは発行せず、空の結果列を返します。
func (c *Client) Dispatch(ctx context.Context, token string, req BatchRequest, apiRatio string, sess SessionContext) []Outcome {
	count := req.Count
	if count < 0 {
		count = 0
	}
	base := c.cfg.SeedBase()

	outcomes := make([]Outcome, count)
	var g errgroup.Group
	for i := 0; i < count; i++ {
		seed := base + int64(i)
		outcomes[i] = Outcome{Index: i, Seed: seed}
		g.Go(func() error {
			// 各タスクは自分のスロットにだけ書き込みます。
			encoded, err := c.generate(ctx, token, req.Prompt, apiRatio, seed, sess, req.ExtraHeaders)
			outcomes[i].Encoded = encoded
			outcomes[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// generate は生成 API を 1 回だけ呼びます。リトライはしません。
// タイムアウト・非 2xx・本文解釈失敗はそのままエラーとして返します。
func (c *Client) generate(ctx context.Context, token, prompt, apiRatio string, seed int64, sess SessionContext, extraHeaders map[string]string) (string, error) {
	body, err := json.Marshal(generateRequest{
		ClientContext: clientContext{
			WorkflowID: sess.WorkflowID,
			Tool:       "BACKBONE",
			SessionID:  sess.SessionID,
		},
		ImageModelSettings: imageModelSettings{
			ImageModel:  "IMAGEN_3_5",
			AspectRatio: apiRatio,
		},
		Seed:          seed,
		Prompt:        prompt,
		MediaCategory: "MEDIA_CATEGORY_BOARD",
	})
	if err != nil {
		return "", fmt.Errorf("リクエスト本文の生成に失敗しました: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, c.cfg.GenerateURL, body)
	if err != nil {
		return "", err
	}

	token = strings.TrimPrefix(token, "Bearer ")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	for k, v := range generateHeaders {
		httpReq.Header.Set(k, v)
	}

	// 呼び出し側のヘッダ指定は既定指紋を丸ごと置き換えます。マージはしません。
	if extraHeaders != nil {
		for k := range fingerprintHeaders {
			httpReq.Header.Del(k)
		}
		for k, v := range extraHeaders {
			httpReq.Header.Set(k, v)
		}
	}

	status, respBody, err := c.send(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP error: %w", err)
	}
	if !is2xx(status) {
		return "", &UpstreamStatusError{Status: status, Preview: preview(respBody, 300)}
	}
	return extractImage(respBody)
}
