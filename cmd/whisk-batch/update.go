package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/whisk-batch-kit/pkg/updater"
)

// byteFetcher は httpkit.ClientInterface を満たす最小の実装です。
type byteFetcher struct {
	client *http.Client
}

func (f *byteFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "AutoWhisk")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func newUpdateCmd() *cobra.Command {
	var download bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "更新を確認し、必要ならダウンロードします",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker, err := updater.NewChecker(&byteFetcher{client: &http.Client{Timeout: 60 * time.Second}}, "")
			if err != nil {
				return err
			}

			info, err := checker.Check(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println("latest:", info.Version)
			if info.Notes != "" {
				cmd.Println(info.Notes)
			}

			if !download {
				return nil
			}
			data, err := checker.Download(cmd.Context(), info.DownloadURL)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0o755); err != nil {
				return err
			}
			cmd.Println("saved:", outPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&download, "download", false, "最新バイナリをダウンロードする")
	cmd.Flags().StringVar(&outPath, "out", "autowhisk_update", "ダウンロードの保存先")
	return cmd
}
