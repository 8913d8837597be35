package updater

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockFetcher struct {
	responses map[string][]byte
	err       error
	lastURL   string
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.lastURL = url
	if m.err != nil {
		return nil, m.err
	}
	return m.responses[url], nil
}

func TestChecker_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("マニフェストからバージョンとダウンロード URL を取り出す", func(t *testing.T) {
		fetcher := &mockFetcher{responses: map[string][]byte{
			"https://example.com/latest": []byte(`{
				"tag_name": "v2.1.0",
				"body": "bug fixes",
				"assets": [{"browser_download_url": "https://example.com/dl/v2.1.0.bin"}]
			}`),
		}}
		checker, err := NewChecker(fetcher, "https://example.com/latest")
		require.NoError(t, err)

		info, err := checker.Check(ctx)

		require.NoError(t, err)
		assert.Equal(t, "v2.1.0", info.Version)
		assert.Equal(t, "https://example.com/dl/v2.1.0.bin", info.DownloadURL)
		assert.Equal(t, "bug fixes", info.Notes)
	})

	t.Run("tag_name の無い応答はエラー", func(t *testing.T) {
		fetcher := &mockFetcher{responses: map[string][]byte{
			"https://example.com/latest": []byte(`{"message": "rate limited"}`),
		}}
		checker, err := NewChecker(fetcher, "https://example.com/latest")
		require.NoError(t, err)

		_, err = checker.Check(ctx)
		assert.Error(t, err)
	})

	t.Run("取得失敗はラップして返す", func(t *testing.T) {
		fetcher := &mockFetcher{err: errors.New("network down")}
		checker, err := NewChecker(fetcher, "")
		require.NoError(t, err)

		_, err = checker.Check(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "network down")
		assert.Equal(t, DefaultManifestURL, fetcher.lastURL, "URL 未指定なら既定先を照会する")
	})
}

func TestChecker_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("バイナリをそのまま返す", func(t *testing.T) {
		payload := []byte{0x4d, 0x5a, 0x90}
		fetcher := &mockFetcher{responses: map[string][]byte{
			"https://example.com/dl/bin": payload,
		}}
		checker, err := NewChecker(fetcher, "x")
		require.NoError(t, err)

		data, err := checker.Download(ctx, "https://example.com/dl/bin")
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("URL が空ならエラー", func(t *testing.T) {
		checker, err := NewChecker(&mockFetcher{}, "x")
		require.NoError(t, err)

		_, err = checker.Download(ctx, "")
		assert.Error(t, err)
	})
}

func TestNewChecker(t *testing.T) {
	t.Run("クライアントは必須", func(t *testing.T) {
		_, err := NewChecker(nil, "")
		assert.Error(t, err)
	})
}
