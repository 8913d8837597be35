package whisk

import "github.com/tidwall/gjson"

// deepSearchMinLen はフォールバック探索が画像ペイロードとみなす文字列長の閾値です。
// 上流スキーマ互換のためのヒューリスティックであり、正しさの保証はありません。
const deepSearchMinLen = 1000

// extractImage は応答本文から画像ペイロードを取り出します。
// まず既知のパスを構造的に引き、それが空振りしたときだけ深さ優先の
// フォールバック探索に落ちます。どちらも失敗した場合は ParseError を返します。
func extractImage(body []byte) (string, error) {
	root := gjson.ParseBytes(body)

	if s, ok := extractStructural(root); ok {
		return s, nil
	}
	if s, ok := findLongString(root); ok {
		return s, nil
	}
	return "", &ParseError{Preview: preview(body, 200)}
}

// extractStructural は既知の JSON パスを優先順で評価します。
// imagePanels[].generatedImages[].encodedImage → imagePanels[].generatedImage.encodedImage
// → トップレベル encodedImage の順で、最初に見つかった非空文字列を返します。
func extractStructural(root gjson.Result) (string, bool) {
	for _, panel := range root.Get("imagePanels").Array() {
		for _, img := range panel.Get("generatedImages").Array() {
			if s := img.Get("encodedImage"); s.Type == gjson.String && s.Str != "" {
				return s.Str, true
			}
		}
		if s := panel.Get("generatedImage.encodedImage"); s.Type == gjson.String && s.Str != "" {
			return s.Str, true
		}
	}
	if s := root.Get("encodedImage"); s.Type == gjson.String && s.Str != "" {
		return s.Str, true
	}
	return "", false
}

// findLongString は JSON ツリー全体を文書順に深さ優先で走査し、
// 閾値を超える長さの最初の文字列を画像ペイロードとして返します。
func findLongString(v gjson.Result) (string, bool) {
	if v.Type == gjson.String {
		if len(v.Str) > deepSearchMinLen {
			return v.Str, true
		}
		return "", false
	}
	if !v.IsObject() && !v.IsArray() {
		return "", false
	}

	var found string
	var ok bool
	v.ForEach(func(_, child gjson.Result) bool {
		if s, hit := findLongString(child); hit {
			found, ok = s, true
			return false
		}
		return true
	})
	return found, ok
}
