package whisk

import (
	"fmt"
	"strings"
)

// DiagnosticTrace は各ステージの顛末を人間可読の形で積み上げる追記専用の記録です。
// 並行区間の外（ディスパッチ完了後の集約時）でのみ追記されるため、ロックは持ちません。
type DiagnosticTrace struct {
	entries []string
}

// Addf は書式化した 1 エントリを追記します。
func (t *DiagnosticTrace) Addf(format string, args ...any) {
	t.entries = append(t.entries, fmt.Sprintf(format, args...))
}

// Entries は追記順のエントリ列を返します。
func (t *DiagnosticTrace) Entries() []string {
	return t.entries
}

// String は "[entry] [entry] ..." 形式の物語文字列を返します。
func (t *DiagnosticTrace) String() string {
	if len(t.entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range t.entries {
		b.WriteString("[")
		b.WriteString(e)
		b.WriteString("] ")
	}
	return strings.TrimRight(b.String(), " ")
}
