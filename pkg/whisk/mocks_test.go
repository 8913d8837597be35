package whisk

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

// --- フェイク上流サーバ ---

// fakeUpstream は 4 エンドポイントを 1 つの httptest.Server に束ねたフェイクです。
// 各ハンドラはテストごとに差し替えられます。未指定なら成功応答を返します。
type fakeUpstream struct {
	server *httptest.Server

	mu           sync.Mutex
	sessionHits  int
	workflowHits int
	uploadHits   int
	generateHits int

	// 生成呼び出しごとの観測値（シードとヘッダと本文）
	seenSeeds        []int64
	seenHeaders      []http.Header
	uploadBodys      []string
	lastGenerateBody string

	sessionHandler  http.HandlerFunc
	workflowHandler http.HandlerFunc
	uploadHandler   http.HandlerFunc
	generateHandler http.HandlerFunc
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{}

	mux := http.NewServeMux()
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.sessionHits++
		h := u.sessionHandler
		u.mu.Unlock()
		if h != nil {
			h(w, r)
			return
		}
		fmt.Fprint(w, `{"accessToken": "ya29.fetched-token"}`)
	})
	mux.HandleFunc("/workflow", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.workflowHits++
		h := u.workflowHandler
		u.mu.Unlock()
		if h != nil {
			h(w, r)
			return
		}
		fmt.Fprint(w, `{"result": {"data": {"json": {"result": {"workflowId": "wf-0123456789"}}}}}`)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.uploadHits++
		u.uploadBodys = append(u.uploadBodys, string(body))
		h := u.uploadHandler
		u.mu.Unlock()
		if h != nil {
			h(w, r)
			return
		}
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.generateHits++
		u.seenSeeds = append(u.seenSeeds, gjson.Get(string(body), "seed").Int())
		u.seenHeaders = append(u.seenHeaders, r.Header.Clone())
		u.lastGenerateBody = string(body)
		h := u.generateHandler
		u.mu.Unlock()
		if h != nil {
			h(w, r)
			return
		}
		fmt.Fprintf(w, `{"imagePanels": [{"generatedImages": [{"encodedImage": %q}]}]}`,
			strings.Repeat("a", 1500))
	})

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

// config はこのフェイクへ向けたテスト用設定を返します。時刻と乱数は固定です。
func (u *fakeUpstream) config() Config {
	cfg := DefaultConfig()
	cfg.SessionURL = u.server.URL + "/session"
	cfg.WorkflowURL = u.server.URL + "/workflow"
	cfg.UploadURL = u.server.URL + "/upload"
	cfg.GenerateURL = u.server.URL + "/generate"
	cfg.Now = func() time.Time { return time.Unix(1700000000, 0) }
	cfg.SeedBase = func() int64 { return 123456 }
	return cfg
}

func (u *fakeUpstream) seeds() []int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]int64(nil), u.seenSeeds...)
}

func (u *fakeUpstream) headers(i int) http.Header {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.seenHeaders[i]
}

func (u *fakeUpstream) uploadBody(i int) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploadBodys[i]
}

func (u *fakeUpstream) generateBody() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastGenerateBody
}

func (u *fakeUpstream) hits() (session, workflow, upload, generate int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sessionHits, u.workflowHits, u.uploadHits, u.generateHits
}
