// whisk-batch は Whisk に対する一括画像生成のコマンドラインシェルです。
// 資格情報の指定はフラグ・環境変数（WHISK_*）・アカウントストアのいずれでも行えます。
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "whisk-batch",
		Short:         "Whisk への一括画像生成クライアント",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("accounts-file", "accounts.json", "アカウントストアのパス")
	root.PersistentFlags().String("cookie", "", "Whisk セッションの Cookie 文字列")
	root.PersistentFlags().String("token", "", "Bearer トークン（ya29. で始まるもの）")

	viper.SetEnvPrefix("WHISK")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("accounts_file", root.PersistentFlags().Lookup("accounts-file"))
	_ = viper.BindPFlag("cookie", root.PersistentFlags().Lookup("cookie"))
	_ = viper.BindPFlag("token", root.PersistentFlags().Lookup("token"))

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newAccountsCmd())
	root.AddCommand(newUpdateCmd())
	return root
}
