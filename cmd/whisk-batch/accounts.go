package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shouni/whisk-batch-kit/pkg/accounts"
)

func openStore() (*accounts.Store, error) {
	return accounts.NewStore(afero.NewOsFs(), viper.GetString("accounts_file"))
}

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "保存済みアカウントを管理します",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "アカウント一覧を表示します",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			for _, a := range store.List() {
				cmd.Printf("%s\t%s\tcookies=%v\n", a.ID, a.Email, a.HasCookies)
			}
			return nil
		},
	}

	var email string
	add := &cobra.Command{
		Use:   "add",
		Short: "アカウントを追加します（Cookie とトークンはフラグ/環境変数から）",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			a, err := store.Add(email, viper.GetString("cookie"), viper.GetString("token"), nil)
			if err != nil {
				return err
			}
			cmd.Println("added:", a.ID)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "アカウントの表示名")
	_ = add.MarkFlagRequired("email")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "アカウントを削除します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			removed, err := store.Delete(args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("account not found: %s", args[0])
			}
			cmd.Println("deleted:", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}
