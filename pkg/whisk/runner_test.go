package whisk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestGenerateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("全段成功の素直な 1 バッチ", func(t *testing.T) {
		u := newFakeUpstream(t)
		runner := NewRunner(u.config())

		result := runner.GenerateBatch(ctx, Credential{Cookie: "session=abc", BearerToken: "ya29.token"}, BatchRequest{
			Prompt: "a lighthouse at dusk",
			Count:  3,
		})

		assert.True(t, result.Success)
		assert.Len(t, result.Images, 3)
		assert.Equal(t, DefaultProjectURL+"wf-0123456789", result.ProjectLink)
		assert.Contains(t, result.Diagnostics, "API start: inputRatio=, ratio=IMAGE_ASPECT_RATIO_LANDSCAPE, count=3")
		assert.Contains(t, result.Diagnostics, "API done")

		_, workflow, _, generates := u.hits()
		assert.Equal(t, 1, workflow)
		assert.Equal(t, 3, generates)
	})

	t.Run("認証解決に失敗したら生成呼び出しは一切走らない", func(t *testing.T) {
		u := newFakeUpstream(t)
		u.sessionHandler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}
		runner := NewRunner(u.config())

		result := runner.GenerateBatch(ctx, Credential{Cookie: "session=expired"}, BatchRequest{Prompt: "a cat", Count: 2})

		assert.False(t, result.Success)
		assert.Empty(t, result.Images)
		assert.Contains(t, result.Diagnostics, "no valid bearer token")
		_, workflow, _, generates := u.hits()
		assert.Zero(t, workflow, "セッション確立にも進まない")
		assert.Zero(t, generates)
	})

	t.Run("M of N 成功は Success true で失敗 1 件だけが語られる", func(t *testing.T) {
		u := newFakeUpstream(t)
		var calls atomic.Int64
		u.generateHandler = func(w http.ResponseWriter, r *http.Request) {
			// 5 回中 2 回だけ成功させる
			if calls.Add(1) <= 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprint(w, `{"error": "overloaded"}`)
				return
			}
			fmt.Fprintf(w, `{"imagePanels": [{"generatedImages": [{"encodedImage": %q}]}]}`,
				strings.Repeat("a", 1500))
		}
		runner := NewRunner(u.config())

		result := runner.GenerateBatch(ctx, Credential{BearerToken: "ya29.token"}, BatchRequest{Prompt: "a cat", Count: 5})

		assert.True(t, result.Success)
		assert.Len(t, result.Images, 2)
		assert.Equal(t, 1, strings.Count(result.Diagnostics, "overloaded"), "失敗詳細は 1 件だけ")
	})

	t.Run("N of N 失敗は Success false とマーカー付き診断", func(t *testing.T) {
		u := newFakeUpstream(t)
		u.generateHandler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error": "overloaded"}`)
		}
		runner := NewRunner(u.config())

		result := runner.GenerateBatch(ctx, Credential{BearerToken: "ya29.token"}, BatchRequest{Prompt: "a cat", Count: 3})

		assert.False(t, result.Success)
		assert.Empty(t, result.Images)
		assert.Equal(t, 1, strings.Count(result.Diagnostics, "overloaded"))
		assert.Contains(t, result.Diagnostics, "no images generated")
		assert.Contains(t, result.ProjectLink, DefaultProjectURL)
	})

	t.Run("参照画像の失敗はバッチを止めない", func(t *testing.T) {
		u := newFakeUpstream(t)
		u.uploadHandler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}
		runner := NewRunner(u.config())

		result := runner.GenerateBatch(ctx, Credential{Cookie: "session=abc", BearerToken: "ya29.token"}, BatchRequest{
			Prompt:          "a cat",
			Count:           1,
			ReferenceImages: []string{"data:image/png;base64,AAAA"},
		})

		assert.True(t, result.Success)
		assert.Contains(t, result.Diagnostics, "Ref upload failed")
	})

	t.Run("workflow 作成失敗でもフォールバック ID でバッチは進む", func(t *testing.T) {
		u := newFakeUpstream(t)
		u.workflowHandler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}
		runner := NewRunner(u.config())

		result := runner.GenerateBatch(ctx, Credential{Cookie: "session=abc", BearerToken: "ya29.token"}, BatchRequest{Prompt: "a cat", Count: 1})

		assert.True(t, result.Success)
		assert.Contains(t, result.Diagnostics, "Workflow failed, using fallback")
		assert.Contains(t, result.ProjectLink, DefaultProjectURL)

		// 生成呼び出しにもフォールバック ID が伝搬している
		wf := gjson.Get(u.generateBody(), "clientContext.workflowId").String()
		assert.NotEmpty(t, wf)
		assert.NotEqual(t, "wf-0123456789", wf)
	})

	t.Run("count が 0 のバッチは生成を 1 回も呼ばず全滅扱いになる", func(t *testing.T) {
		u := newFakeUpstream(t)
		runner := NewRunner(u.config())

		result := runner.GenerateBatch(ctx, Credential{BearerToken: "ya29.token"}, BatchRequest{Prompt: "a cat", Count: 0})

		assert.False(t, result.Success)
		assert.Empty(t, result.Images)
		assert.Contains(t, result.Diagnostics, "no images generated")
		_, _, _, generates := u.hits()
		assert.Zero(t, generates)
	})

	t.Run("Cookie なしトークンのみでも生成は走る", func(t *testing.T) {
		u := newFakeUpstream(t)
		runner := NewRunner(u.config())

		result := runner.GenerateBatch(ctx, Credential{BearerToken: "ya29.token"}, BatchRequest{Prompt: "a cat", Count: 1})

		assert.True(t, result.Success)
		session, workflow, _, _ := u.hits()
		assert.Zero(t, session)
		assert.Zero(t, workflow)
	})
}

func TestGenerateBatch_SeedProperty(t *testing.T) {
	// シード列 {base, base+1, ..., base+N-1} の検証は dispatch 側で済んでいるため、
	// ここでは基点が注入可能で再現することだけを確認する
	u := newFakeUpstream(t)
	cfg := u.config()
	cfg.SeedBase = func() int64 { return 555000 }
	runner := NewRunner(cfg)

	runner.GenerateBatch(context.Background(), Credential{BearerToken: "ya29.token"}, BatchRequest{Prompt: "a cat", Count: 2})

	seeds := u.seeds()
	require.Len(t, seeds, 2)
	assert.ElementsMatch(t, []int64{555000, 555001}, seeds)
}
