package service

import (
	"context"
	"errors"
	"testing"

	"DocLink/internal/modules/bot/domain/entity"
	"DocLink/internal/modules/rag/application/dto/request"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/internal/modules/rag/infrastructure/pipeline"
	"DocLink/pkg/vault"
	"DocLink/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotRepo struct {
	bots map[string]*entity.Bot
}

func (f *fakeBotRepo) Create(_ context.Context, bot *entity.Bot) error {
	f.bots[bot.Uuid] = bot
	return nil
}

func (f *fakeBotRepo) GetByUuid(_ context.Context, uuid string) (*entity.Bot, error) {
	return f.bots[uuid], nil
}

func (f *fakeBotRepo) ListByOwner(_ context.Context, _ string) ([]entity.Bot, error) {
	return nil, nil
}

func (f *fakeBotRepo) Update(_ context.Context, _ *entity.Bot) error { return nil }
func (f *fakeBotRepo) Delete(_ context.Context, _ string) error      { return nil }

type recordingEmbedder struct {
	calls int
}

func (e *recordingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1}
	}
	return out, nil
}

func (e *recordingEmbedder) EmbedOne(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	return []float32{0.1}, nil
}

func (e *recordingEmbedder) Dimension() int { return 1 }

type recordingEmbedderFactory struct {
	embedder *recordingEmbedder
	apiKeys  []string
}

func (f *recordingEmbedderFactory) New(apiKey string) repository.Embedder {
	f.apiKeys = append(f.apiKeys, apiKey)
	return f.embedder
}

func (f *recordingEmbedderFactory) Close() {}

type recordingStore struct {
	queryErr error
	matches  []repository.VectorMatch
}

func (s *recordingStore) Upsert(_ context.Context, records []repository.VectorRecord) (int, error) {
	return len(records), nil
}

func (s *recordingStore) Query(_ context.Context, _ []float32, _ int) ([]repository.VectorMatch, error) {
	if s.queryErr != nil {
		return []repository.VectorMatch{}, s.queryErr
	}
	return s.matches, nil
}

func (s *recordingStore) DeleteByDocument(_ context.Context, _ string) error { return nil }

type recordingStoreFactory struct {
	store *recordingStore
	hosts []string
}

func (f *recordingStoreFactory) New(host string) repository.VectorStore {
	f.hosts = append(f.hosts, host)
	return f.store
}

func (f *recordingStoreFactory) Close() {}

type fakeGenerator struct {
	out   repository.GenerateOutput
	seen  []repository.GenerateInput
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, in repository.GenerateInput) repository.GenerateOutput {
	g.calls++
	g.seen = append(g.seen, in)
	return g.out
}

type fakeGeneratorFactory struct {
	gen     *fakeGenerator
	apiKeys []string
}

func (f *fakeGeneratorFactory) New(apiKey string) repository.Generator {
	f.apiKeys = append(f.apiKeys, apiKey)
	return f.gen
}

func (f *fakeGeneratorFactory) Close() {}

type memorySessionStore struct {
	appendErr error
	messages  map[string][]repository.ChatMessage
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{messages: map[string][]repository.ChatMessage{}}
}

func (s *memorySessionStore) Append(_ context.Context, botUuid, sessionID string, msgs ...repository.ChatMessage) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	key := botUuid + ":" + sessionID
	s.messages[key] = append(s.messages[key], msgs...)
	return nil
}

func (s *memorySessionStore) History(_ context.Context, botUuid, sessionID string) ([]repository.ChatMessage, error) {
	return s.messages[botUuid+":"+sessionID], nil
}

type chatFixture struct {
	service         ChatService
	bots            *fakeBotRepo
	embedderFactory *recordingEmbedderFactory
	storeFactory    *recordingStoreFactory
	genFactory      *fakeGeneratorFactory
	sessions        *memorySessionStore
	masterKey       []byte
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	masterKey := make([]byte, vault.KeySize)
	for i := range masterKey {
		masterKey[i] = byte(i)
	}

	f := &chatFixture{
		bots:            &fakeBotRepo{bots: map[string]*entity.Bot{}},
		embedderFactory: &recordingEmbedderFactory{embedder: &recordingEmbedder{}},
		storeFactory:    &recordingStoreFactory{store: &recordingStore{}},
		genFactory:      &fakeGeneratorFactory{gen: &fakeGenerator{out: repository.GenerateOutput{Text: "generated answer"}}},
		sessions:        newMemorySessionStore(),
		masterKey:       masterKey,
	}
	f.service = NewChatService(f.bots, f.embedderFactory, f.storeFactory, f.genFactory, pipeline.NewRetrievePipeline(5), f.sessions, masterKey)
	return f
}

func (f *chatFixture) addBot(t *testing.T, status string) *entity.Bot {
	t.Helper()
	embKey, err := vault.Encrypt("embedding-api-key", f.masterKey)
	require.NoError(t, err)
	genKey, err := vault.Encrypt("generation-api-key", f.masterKey)
	require.NoError(t, err)

	bot := &entity.Bot{
		Uuid:                   "bot-1",
		OwnerUserId:            "owner-1",
		Name:                   "support bot",
		BotType:                entity.BotTypeSupport,
		Status:                 status,
		VectorHost:             "https://idx.example.com",
		EncryptedEmbeddingKey:  embKey,
		EncryptedGenerationKey: genKey,
		Temperature:            0.5,
		MaxTokens:              256,
	}
	f.bots.bots[bot.Uuid] = bot
	return bot
}

func TestChatSuccess(t *testing.T) {
	f := newChatFixture(t)
	f.addBot(t, entity.BotStatusActive)
	f.storeFactory.store.matches = []repository.VectorMatch{
		{ID: "a", Score: 0.9, Metadata: repository.RecordMetadata{SourceText: "docs say yes"}},
	}

	resp, err := f.service.Chat(context.Background(), "bot-1", request.ChatRequest{Message: "question?"})
	require.NoError(t, err)

	assert.Equal(t, "generated answer", resp.Answer)
	assert.True(t, resp.ContextUsed)
	assert.False(t, resp.Failed)
	assert.NotEmpty(t, resp.SessionID)

	// 工厂收到的是解密后的明文凭据与租户索引地址
	assert.Equal(t, []string{"embedding-api-key"}, f.embedderFactory.apiKeys)
	assert.Equal(t, []string{"generation-api-key"}, f.genFactory.apiKeys)
	assert.Equal(t, []string{"https://idx.example.com"}, f.storeFactory.hosts)

	require.Len(t, f.genFactory.gen.seen, 1)
	in := f.genFactory.gen.seen[0]
	assert.Contains(t, in.ContextBlock, "docs say yes")
	assert.Equal(t, "question?", in.Question)
	assert.Equal(t, 0.5, in.Temperature)
	assert.Equal(t, 256, in.MaxOutputTokens)

	history, err := f.sessions.History(context.Background(), "bot-1", resp.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, repository.RoleUser, history[0].Role)
	assert.Equal(t, repository.RoleAssistant, history[1].Role)
	assert.True(t, history[1].Metadata.ContextUsed)
}

func TestChatReusesSessionID(t *testing.T) {
	f := newChatFixture(t)
	f.addBot(t, entity.BotStatusActive)

	resp, err := f.service.Chat(context.Background(), "bot-1", request.ChatRequest{SessionID: "sess-7", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "sess-7", resp.SessionID)
}

func TestChatEmptyMessage(t *testing.T) {
	f := newChatFixture(t)
	f.addBot(t, entity.BotStatusActive)

	_, err := f.service.Chat(context.Background(), "bot-1", request.ChatRequest{Message: "   "})
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.BadRequest, codeErr.Code)
}

func TestChatUnknownBot(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.Chat(context.Background(), "missing", request.ChatRequest{Message: "hi"})
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.NotFound, codeErr.Code)
}

func TestChatInactiveBot(t *testing.T) {
	f := newChatFixture(t)
	f.addBot(t, entity.BotStatusPaused)

	_, err := f.service.Chat(context.Background(), "bot-1", request.ChatRequest{Message: "hi"})
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.Forbidden, codeErr.Code)

	// 状态校验在前，未激活的机器人不触碰任何外部服务
	assert.Empty(t, f.embedderFactory.apiKeys)
	assert.Empty(t, f.genFactory.apiKeys)
	assert.Zero(t, f.genFactory.gen.calls)
}

func TestChatDegradedRetrievalStillAnswers(t *testing.T) {
	f := newChatFixture(t)
	f.addBot(t, entity.BotStatusActive)
	f.storeFactory.store.queryErr = errors.New("vector store down")

	resp, err := f.service.Chat(context.Background(), "bot-1", request.ChatRequest{Message: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "generated answer", resp.Answer)
	assert.False(t, resp.ContextUsed)
	require.Len(t, f.genFactory.gen.seen, 1)
	assert.Equal(t, pipeline.NoContextMarker, f.genFactory.gen.seen[0].ContextBlock)
}

func TestChatGenerationFailureSetsFailedFlag(t *testing.T) {
	f := newChatFixture(t)
	f.addBot(t, entity.BotStatusActive)
	f.genFactory.gen.out = repository.GenerateOutput{
		Text:   "抱歉，我暂时无法回答，请稍后再试。",
		Failed: true,
		Err:    errors.New("gemini 503"),
	}

	resp, err := f.service.Chat(context.Background(), "bot-1", request.ChatRequest{Message: "hi"})
	require.NoError(t, err)

	// 生成失败不报错，兜底文案照常返回，failed 标记透给挂件
	assert.True(t, resp.Failed)
	assert.Equal(t, "抱歉，我暂时无法回答，请稍后再试。", resp.Answer)
}

func TestChatSessionAppendFailureNotFatal(t *testing.T) {
	f := newChatFixture(t)
	f.addBot(t, entity.BotStatusActive)
	f.sessions.appendErr = errors.New("redis down")

	resp, err := f.service.Chat(context.Background(), "bot-1", request.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "generated answer", resp.Answer)
}

func TestHistory(t *testing.T) {
	f := newChatFixture(t)
	f.addBot(t, entity.BotStatusActive)

	resp, err := f.service.Chat(context.Background(), "bot-1", request.ChatRequest{SessionID: "s1", Message: "hi"})
	require.NoError(t, err)

	hist, err := f.service.History(context.Background(), "bot-1", resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "s1", hist.SessionID)
	assert.Len(t, hist.Messages, 2)
}

func TestHistoryUnknownBot(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.History(context.Background(), "missing", "s1")
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.NotFound, codeErr.Code)
}
