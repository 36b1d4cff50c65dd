package node

import (
	"encoding/json"
	"strings"
)

// StripCodeFence 去掉模型输出中的 Markdown 代码块围栏与 json 语言标记
func StripCodeFence(s string) string {
	raw := strings.TrimSpace(s)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if nl := strings.IndexByte(raw, '\n'); nl >= 0 {
		lang := strings.TrimSpace(raw[:nl])
		if lang == "" || strings.EqualFold(lang, "json") {
			raw = raw[nl+1:]
		}
	} else {
		raw = strings.TrimPrefix(strings.TrimSpace(raw), "json")
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// ExtractJSON 从模型输出中截取第一个完整的 JSON 对象或数组。
// 找不到合法 JSON 时返回空串与 false。
func ExtractJSON(s string) (string, bool) {
	raw := StripCodeFence(s)
	if raw == "" {
		return "", false
	}

	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' && raw[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		dec.UseNumber()
		var v json.RawMessage
		if err := dec.Decode(&v); err == nil {
			return string(v), true
		}
	}
	return "", false
}
