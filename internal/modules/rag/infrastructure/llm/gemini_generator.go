package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
)

const generationProvider = "generation"

const maxBodySnippet = 512

// FallbackAnswer 生成服务不可用时的固定兜底话术，聊天回合必须始终产出可见文本
const FallbackAnswer = "抱歉，我暂时无法回答这个问题，请稍后再试。"

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
)

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// 内容安全阈值固定，不随租户配置变化
var fixedSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

type GeminiGeneratorFactory struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewGeminiGeneratorFactory(baseURL, model string, timeoutSeconds int) *GeminiGeneratorFactory {
	timeout := 60 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &GeminiGeneratorFactory{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *GeminiGeneratorFactory) New(apiKey string) repository.Generator {
	return &geminiGenerator{factory: f, apiKey: apiKey}
}

func (f *GeminiGeneratorFactory) Close() {
	f.client.CloseIdleConnections()
}

type geminiGenerator struct {
	factory *GeminiGeneratorFactory
	apiKey  string
}

// Generate 组装提示词并调用生成服务。
// 任何失败都降级为兜底话术，错误细节保留在返回值里供日志使用。
func (g *geminiGenerator) Generate(ctx context.Context, in repository.GenerateInput) repository.GenerateOutput {
	temperature := in.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	maxTokens := in.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	prompt := BuildPrompt(in.SystemPrompt, in.ContextBlock, in.Question)
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: maxTokens,
		},
		SafetySettings: fixedSafetySettings,
	}

	text, totalTokens, err := g.call(ctx, reqBody)
	if err != nil {
		zlog.Warn("生成服务调用失败，使用兜底回复", zap.Error(err))
		return repository.GenerateOutput{Text: FallbackAnswer, Failed: true, Err: err}
	}
	return repository.GenerateOutput{Text: text, TotalTokens: totalTokens}
}

func (g *geminiGenerator) call(ctx context.Context, body generateRequest) (string, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", 0, err
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", g.factory.baseURL, g.factory.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.factory.client.Do(req)
	if err != nil {
		return "", 0, &rag.ProviderError{Provider: generationProvider, Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &rag.ProviderError{Provider: generationProvider, Status: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, &rag.ProviderError{Provider: generationProvider, Status: resp.StatusCode, Body: snippet(raw)}
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", 0, &rag.ProviderError{Provider: generationProvider, Status: resp.StatusCode, Body: snippet(raw)}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", 0, &rag.ProviderError{Provider: generationProvider, Status: resp.StatusCode, Body: snippet(raw)}
	}
	return parsed.Candidates[0].Content.Parts[0].Text, parsed.UsageMetadata.TotalTokenCount, nil
}

func snippet(raw []byte) string {
	s := string(raw)
	if len(s) > maxBodySnippet {
		return s[:maxBodySnippet]
	}
	return s
}
