package llm

import (
	"strings"

	"DocLink/internal/modules/bot/domain/entity"
)

// 各类型机器人的默认系统提示词，租户可在 Bot 记录上覆盖
var defaultSystemPrompts = map[string]string{
	entity.BotTypeSupport: "You are a helpful customer support assistant. Answer questions based on the provided documentation. Be concise, friendly and accurate. If the answer is not in the context, say so honestly.",
	entity.BotTypeSales:   "You are a knowledgeable sales assistant. Use the provided product information to answer questions and highlight relevant benefits. Never invent pricing or availability that is not in the context.",
	entity.BotTypeFAQ:     "You are an FAQ assistant. Answer questions directly and briefly using the provided context. Prefer quoting the documented answer over paraphrasing.",
	entity.BotTypeGeneral: "You are a helpful assistant. Answer questions using the provided context when it is relevant.",
}

// SystemPromptFor 返回租户覆盖的提示词，为空时回落到机器人类型的默认提示词
func SystemPromptFor(botType, override string) string {
	if s := strings.TrimSpace(override); s != "" {
		return s
	}
	if s, ok := defaultSystemPrompts[botType]; ok {
		return s
	}
	return defaultSystemPrompts[entity.BotTypeGeneral]
}

// BuildPrompt 拼装最终提示词：系统指令 + 检索上下文 + 用户问题 + 格式要求
func BuildPrompt(systemPrompt, contextBlock, question string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	b.WriteString("Context from knowledge base:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\n")
	b.WriteString("User question: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString("Answer in plain text without markdown headings. Keep the answer grounded in the context above; if the context does not contain the answer, say you could not find it in the documentation.")
	return b.String()
}
