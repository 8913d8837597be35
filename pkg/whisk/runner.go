package whisk

import (
	"context"
	"log/slog"
)

// Runner は 1 バッチの全ステージを順に駆動する統合窓口です。
// 認証解決 → セッション確立 → 参照アップロード → 並行ディスパッチ → 集約、
// の順で進み、認証解決の失敗だけが後続を打ち切ります。
// どんな失敗でも構造化された BatchResult を返し、エラーを呼び出し元へ送出しません。
type Runner struct {
	client *Client
}

// NewRunner は設定から Runner を初期化します。
func NewRunner(cfg Config) *Runner {
	return &Runner{client: NewClient(cfg)}
}

// GenerateBatch は 1 回のバッチ生成を実行します。バッチ内で使う全エンティティは
// この呼び出しの中で生まれ、返るときに破棄されます。保存された画像ファイルだけが
// 呼び出しを超えて残ります。
func (r *Runner) GenerateBatch(ctx context.Context, cred Credential, req BatchRequest) BatchResult {
	trace := &DiagnosticTrace{}
	apiRatio := mapAspectRatio(req.AspectRatio)

	token, err := r.client.ResolveCredential(ctx, cred, trace)
	if err != nil {
		slog.Warn("認証解決に失敗したためバッチを打ち切ります", "error", err)
		return BatchResult{Success: false, Diagnostics: err.Error()}
	}

	sess := r.client.EstablishSession(ctx, cred.Cookie, trace)

	if len(req.ReferenceImages) > 0 {
		r.client.UploadReferences(ctx, cred.Cookie, req.ReferenceImages, sess, trace)
	}

	trace.Addf("API start: inputRatio=%s, ratio=%s, count=%d", req.AspectRatio, apiRatio, req.Count)
	slog.Info("生成タスクを発行します", "count", req.Count, "ratio", apiRatio, "workflow_id", sess.WorkflowID)

	outcomes := r.client.Dispatch(ctx, token, req, apiRatio, sess)
	return r.client.Aggregate(outcomes, req.SaveFolder, sess.WorkflowID, trace)
}
