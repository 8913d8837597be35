package whisk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// workflowIDPath は tRPC 応答の中の workflowId の位置です。
const workflowIDPath = "result.data.json.result.workflowId"

// EstablishSession はバッチの相関コンテキストを確立します。
// sessionId はローカル生成のため常に得られます。workflowId はサーバ発行を
// 1 回だけ試み、取れなければローカル生成の UUID に黙って落とします。
// 相関トークンであって認可情報ではないので、この失敗は進行を妨げません。
func (c *Client) EstablishSession(ctx context.Context, cookie string, trace *DiagnosticTrace) SessionContext {
	sess := SessionContext{
		WorkflowID: uuid.NewString(),
		SessionID:  newSessionID(c.cfg.Now()),
	}

	if cookie == "" {
		return sess
	}

	trace.Addf("Workflow creating...")
	wfID, err := c.createWorkflow(ctx, cookie, sess.SessionID)
	if err != nil || wfID == "" {
		trace.Addf("Workflow failed, using fallback")
		return sess
	}

	head := wfID
	if len(head) > 8 {
		head = head[:8]
	}
	trace.Addf("Workflow OK: %s...", head)
	sess.WorkflowID = wfID
	return sess
}

func (c *Client) createWorkflow(ctx context.Context, cookie, sessionID string) (string, error) {
	payload := map[string]any{
		"json": map[string]any{
			"clientContext": map[string]any{
				"tool":      "BACKBONE",
				"sessionId": sessionID,
			},
			"mediaGenerationIdsToCopy": []string{},
			"workflowMetadata": map[string]any{
				"workflowName": "Whisk: " + workflowDate(c.cfg.Now()),
			},
		},
	}

	status, body, err := c.postJSON(ctx, c.cfg.WorkflowURL, cookie, payload, nil)
	if err != nil {
		return "", err
	}
	if !is2xx(status) {
		return "", fmt.Errorf("workflow creation returned HTTP %d", status)
	}
	return gjson.GetBytes(body, workflowIDPath).String(), nil
}

// newSessionID は ";<unixミリ秒>" 形式のローカル識別子を生成します。
func newSessionID(now time.Time) string {
	return fmt.Sprintf(";%d", now.UnixMilli())
}

// workflowDate はワークフロー名に埋める "月/日/年" を返します。
// 1 年 365 日・1 か月 30 日の粗い割り算は上流の表示仕様に合わせたものです。
func workflowDate(now time.Time) string {
	secs := now.Unix()
	days := secs / 86400
	years := 1970 + days/365
	dayOfYear := days % 365
	month := dayOfYear/30 + 1
	day := dayOfYear%30 + 1
	return fmt.Sprintf("%d/%d/%d", month, day, years%100)
}
