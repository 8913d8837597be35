// Package accounts は Whisk のログイン済みアカウント（Cookie とトークンの組）を
// フラットな JSON ファイルで管理します。バッチ本体はここから Credential を
// 受け取るだけで、永続化の面倒は見ません。
package accounts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Account は保存される 1 アカウント分のレコードです。
// フィールド名は既存の accounts.json との互換のために固定です。
type Account struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	Credits     int               `json:"credits"`
	HasCookies  bool              `json:"hasCookies"`
	IsExpired   bool              `json:"isExpired"`
	ExpiresIn   string            `json:"expiresIn,omitempty"`
	CookieData  string            `json:"cookieData,omitempty"`
	BearerToken string            `json:"bearerToken,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Store はアカウント一覧の読み書きを直列化するファイルストアです。
type Store struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewStore はファイルシステムと保存先パスを注入して Store を初期化します。
func NewStore(fs afero.Fs, path string) (*Store, error) {
	if fs == nil {
		return nil, fmt.Errorf("fs is required")
	}
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return &Store{fs: fs, path: path}, nil
}

// List は全アカウントを返します。ファイルが無い・壊れている場合は
// エラーにせず空のリストを返します。
func (s *Store) List() []Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add は新しいアカウントを追記し、ID を採番したレコードを返します。
func (s *Store) Add(email, cookies, bearerToken string, headers map[string]string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := Account{
		ID:          "acc-" + uuid.NewString(),
		Email:       email,
		HasCookies:  cookies != "",
		CookieData:  cookies,
		BearerToken: bearerToken,
		Headers:     headers,
	}

	all := append(s.load(), account)
	if err := s.save(all); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Delete は ID で指定したアカウントを削除し、実際に消えたかどうかを返します。
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	kept := all[:0]
	for _, a := range all {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(all) {
		return false, nil
	}
	if err := s.save(kept); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) load() []Account {
	content, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil
	}

	var all []Account
	if err := json.Unmarshal(content, &all); err != nil {
		slog.Warn("アカウントファイルを解釈できないため空として扱います", "path", s.path, "error", err)
		return nil
	}
	return all
}

func (s *Store) save(all []Account) error {
	content, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, s.path, content, 0o644); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}
