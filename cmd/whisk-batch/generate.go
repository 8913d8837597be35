package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shouni/whisk-batch-kit/pkg/accounts"
	"github.com/shouni/whisk-batch-kit/pkg/whisk"
)

func newGenerateCmd() *cobra.Command {
	var (
		prompt    string
		ratio     string
		count     int
		refs      []string
		outDir    string
		accountID string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "1 バッチ分の画像を生成します",
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := resolveCredentialSource(accountID)
			if err != nil {
				return err
			}

			runner := whisk.NewRunner(whisk.DefaultConfig())
			result := runner.GenerateBatch(cmd.Context(), cred, whisk.BatchRequest{
				Prompt:          prompt,
				AspectRatio:     ratio,
				Count:           count,
				ReferenceImages: refs,
				SaveFolder:      outDir,
			})

			if !result.Success {
				return fmt.Errorf("generation failed: %s", result.Diagnostics)
			}

			for _, img := range result.Images {
				if img.SavedPath != "" {
					cmd.Println(img.SavedPath)
				}
			}
			cmd.Println("project:", result.ProjectLink)
			cmd.Println("diag:", result.Diagnostics)
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "生成プロンプト（必須）")
	cmd.Flags().StringVar(&ratio, "ratio", "16:9", "アスペクト比 (16:9 / 9:16 / 1:1)")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "生成枚数")
	cmd.Flags().StringSliceVar(&refs, "ref", nil, "参照画像のパスまたは data URI（複数可）")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "保存先フォルダ（省略時は保存しない）")
	cmd.Flags().StringVar(&accountID, "account", "", "アカウントストアのレコード ID")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

// resolveCredentialSource はフラグ/環境変数、またはアカウントストアのレコードから
// バッチに使う Credential を決めます。
func resolveCredentialSource(accountID string) (whisk.Credential, error) {
	if accountID == "" {
		return whisk.Credential{
			Cookie:      viper.GetString("cookie"),
			BearerToken: viper.GetString("token"),
		}, nil
	}

	store, err := accounts.NewStore(afero.NewOsFs(), viper.GetString("accounts_file"))
	if err != nil {
		return whisk.Credential{}, err
	}
	for _, a := range store.List() {
		if a.ID == accountID || a.Email == accountID {
			return whisk.Credential{Cookie: a.CookieData, BearerToken: a.BearerToken}, nil
		}
	}
	return whisk.Credential{}, fmt.Errorf("account not found: %s", accountID)
}
