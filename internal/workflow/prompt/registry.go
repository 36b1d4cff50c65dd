package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptQueryInterpretV1  PromptID = "query_interpret_v1"
	PromptAnswerSynthesisV1 PromptID = "answer_synthesis_v1"
)

// promptFiles 模板文件，assistant 为空表示不追加预填充消息
type promptFiles struct {
	system    string
	user      string
	assistant string
}

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	files, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(files.system)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(files.user)
	if err != nil {
		return nil, err
	}

	msgs := []schema.MessagesTemplate{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	if files.assistant != "" {
		assistant, err := readEmbeddedText(files.assistant)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, schema.AssistantMessage(assistant, nil))
	}

	tpl := einoprompt.FromMessages(schema.FString, msgs...)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (promptFiles, error) {
	switch id {
	case PromptQueryInterpretV1:
		return promptFiles{
			system: "templates/query_interpret_v1.system.txt",
			user:   "templates/query_interpret_v1.user.txt",
		}, nil
	case PromptAnswerSynthesisV1:
		return promptFiles{
			system:    "templates/answer_synthesis_v1.system.txt",
			user:      "templates/answer_synthesis_v1.user.txt",
			assistant: "templates/answer_synthesis_v1.assistant.txt",
		}, nil
	default:
		return promptFiles{}, fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
