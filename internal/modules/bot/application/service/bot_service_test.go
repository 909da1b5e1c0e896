package service

import (
	"context"
	"testing"

	"DocLink/internal/modules/bot/application/dto/request"
	"DocLink/internal/modules/bot/domain/entity"
	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/pkg/vault"
	"DocLink/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBotRepo struct {
	bots map[string]*entity.Bot
}

func newMemoryBotRepo() *memoryBotRepo {
	return &memoryBotRepo{bots: map[string]*entity.Bot{}}
}

func (r *memoryBotRepo) Create(_ context.Context, bot *entity.Bot) error {
	r.bots[bot.Uuid] = bot
	return nil
}

func (r *memoryBotRepo) GetByUuid(_ context.Context, uuid string) (*entity.Bot, error) {
	return r.bots[uuid], nil
}

func (r *memoryBotRepo) ListByOwner(_ context.Context, owner string) ([]entity.Bot, error) {
	var out []entity.Bot
	for _, b := range r.bots {
		if b.OwnerUserId == owner {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memoryBotRepo) Update(_ context.Context, bot *entity.Bot) error {
	r.bots[bot.Uuid] = bot
	return nil
}

func (r *memoryBotRepo) Delete(_ context.Context, uuid string) error {
	delete(r.bots, uuid)
	return nil
}

type memoryDocs struct {
	docs map[string]*rag.BotDocument
}

func newMemoryDocs() *memoryDocs {
	return &memoryDocs{docs: map[string]*rag.BotDocument{}}
}

func (r *memoryDocs) Create(_ context.Context, doc *rag.BotDocument) error {
	r.docs[doc.Uuid] = doc
	return nil
}

func (r *memoryDocs) GetByUuid(_ context.Context, uuid string) (*rag.BotDocument, error) {
	return r.docs[uuid], nil
}

func (r *memoryDocs) ListByBot(_ context.Context, botUuid string) ([]rag.BotDocument, error) {
	var out []rag.BotDocument
	for _, d := range r.docs {
		if d.BotUuid == botUuid {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *memoryDocs) MarkReady(_ context.Context, uuid string, chunkCount int) error {
	r.docs[uuid].Status = rag.DocumentStatusReady
	r.docs[uuid].ChunkCount = chunkCount
	return nil
}

func (r *memoryDocs) MarkFailed(_ context.Context, uuid string) error {
	r.docs[uuid].Status = rag.DocumentStatusFailed
	return nil
}

func (r *memoryDocs) Delete(_ context.Context, uuid string) error {
	delete(r.docs, uuid)
	return nil
}

type purgeStore struct {
	deleted []string
}

func (s *purgeStore) Upsert(_ context.Context, records []repository.VectorRecord) (int, error) {
	return len(records), nil
}

func (s *purgeStore) Query(_ context.Context, _ []float32, _ int) ([]repository.VectorMatch, error) {
	return []repository.VectorMatch{}, nil
}

func (s *purgeStore) DeleteByDocument(_ context.Context, documentUuid string) error {
	s.deleted = append(s.deleted, documentUuid)
	return nil
}

type purgeStoreFactory struct {
	store *purgeStore
	hosts []string
}

func (f *purgeStoreFactory) New(host string) repository.VectorStore {
	f.hosts = append(f.hosts, host)
	return f.store
}

func (f *purgeStoreFactory) Close() {}

func testMasterKey() []byte {
	key := make([]byte, vault.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

type botFixture struct {
	service BotService
	repo    *memoryBotRepo
	docs    *memoryDocs
	stores  *purgeStoreFactory
}

func newBotFixture() *botFixture {
	f := &botFixture{
		repo:   newMemoryBotRepo(),
		docs:   newMemoryDocs(),
		stores: &purgeStoreFactory{store: &purgeStore{}},
	}
	f.service = NewBotService(f.repo, f.docs, f.stores, testMasterKey())
	return f
}

func TestCreateBot(t *testing.T) {
	f := newBotFixture()

	item, err := f.service.Create(context.Background(), "owner-1", request.CreateBotRequest{
		Name:          "support bot",
		BotType:       entity.BotTypeSupport,
		VectorHost:    "https://idx.example.com",
		EmbeddingKey:  "emb-key",
		GenerationKey: "gen-key",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, item.Uuid)
	assert.Equal(t, entity.BotStatusActive, item.Status)
	assert.Equal(t, 0.7, item.Temperature)
	assert.Equal(t, 1024, item.MaxTokens)

	stored := f.repo.bots[item.Uuid]
	require.NotNil(t, stored)
	// 凭据落库必须是 vault 信封，不得出现明文
	assert.NotEqual(t, "emb-key", stored.EncryptedEmbeddingKey)
	assert.NotContains(t, stored.EncryptedEmbeddingKey, "emb-key")

	plain, err := vault.Decrypt(stored.EncryptedEmbeddingKey, testMasterKey())
	require.NoError(t, err)
	assert.Equal(t, "emb-key", plain)
}

func TestCreateBotValidation(t *testing.T) {
	f := newBotFixture()

	_, err := f.service.Create(context.Background(), "owner-1", request.CreateBotRequest{VectorHost: "h"})
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.BadRequest, codeErr.Code)

	_, err = f.service.Create(context.Background(), "owner-1", request.CreateBotRequest{Name: "n"})
	require.ErrorAs(t, err, &codeErr)

	_, err = f.service.Create(context.Background(), "owner-1", request.CreateBotRequest{
		Name: "n", VectorHost: "h", BotType: "wizard",
	})
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.BadRequest, codeErr.Code)
}

func TestCreateBotDefaultsType(t *testing.T) {
	f := newBotFixture()

	item, err := f.service.Create(context.Background(), "owner-1", request.CreateBotRequest{Name: "n", VectorHost: "h"})
	require.NoError(t, err)
	assert.Equal(t, entity.BotTypeGeneral, item.BotType)
}

func TestGetOwnedRejectsForeignBot(t *testing.T) {
	f := newBotFixture()

	item, err := f.service.Create(context.Background(), "owner-1", request.CreateBotRequest{Name: "n", VectorHost: "h"})
	require.NoError(t, err)

	bot, err := f.service.GetOwned(context.Background(), "owner-1", item.Uuid)
	require.NoError(t, err)
	assert.Equal(t, item.Uuid, bot.Uuid)

	// 非属主访问等同于不存在，避免暴露机器人存在性
	_, err = f.service.GetOwned(context.Background(), "owner-2", item.Uuid)
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.NotFound, codeErr.Code)
}

func TestUpdateBot(t *testing.T) {
	f := newBotFixture()

	item, err := f.service.Create(context.Background(), "owner-1", request.CreateBotRequest{
		Name: "n", VectorHost: "h", EmbeddingKey: "old-key",
	})
	require.NoError(t, err)

	temp := 1.2
	updated, err := f.service.Update(context.Background(), "owner-1", item.Uuid, request.UpdateBotRequest{
		Status:       entity.BotStatusPaused,
		EmbeddingKey: "new-key",
		Temperature:  &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.BotStatusPaused, updated.Status)
	assert.Equal(t, 1.2, updated.Temperature)

	plain, err := vault.Decrypt(f.repo.bots[item.Uuid].EncryptedEmbeddingKey, testMasterKey())
	require.NoError(t, err)
	assert.Equal(t, "new-key", plain)

	_, err = f.service.Update(context.Background(), "owner-1", item.Uuid, request.UpdateBotRequest{Status: "deleted"})
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.BadRequest, codeErr.Code)
}

func TestDeleteBot(t *testing.T) {
	f := newBotFixture()

	item, err := f.service.Create(context.Background(), "owner-1", request.CreateBotRequest{Name: "n", VectorHost: "h"})
	require.NoError(t, err)

	require.Error(t, f.service.Delete(context.Background(), "owner-2", item.Uuid))
	require.NoError(t, f.service.Delete(context.Background(), "owner-1", item.Uuid))
	assert.NotContains(t, f.repo.bots, item.Uuid)
	// 无文档的机器人不必连向量库
	assert.Empty(t, f.stores.hosts)
}

func TestDeleteBotPurgesDocumentsAndVectors(t *testing.T) {
	f := newBotFixture()

	item, err := f.service.Create(context.Background(), "owner-1", request.CreateBotRequest{
		Name: "n", VectorHost: "https://idx.example.com",
	})
	require.NoError(t, err)

	for _, uuid := range []string{"doc-1", "doc-2"} {
		require.NoError(t, f.docs.Create(context.Background(), &rag.BotDocument{
			Uuid:    uuid,
			BotUuid: item.Uuid,
			Status:  rag.DocumentStatusReady,
		}))
	}
	require.NoError(t, f.docs.Create(context.Background(), &rag.BotDocument{
		Uuid:    "doc-other",
		BotUuid: "other-bot",
		Status:  rag.DocumentStatusReady,
	}))

	require.NoError(t, f.service.Delete(context.Background(), "owner-1", item.Uuid))

	// 每篇文档都按 documentId 过滤清掉向量，再删文档行
	assert.ElementsMatch(t, []string{"doc-1", "doc-2"}, f.stores.store.deleted)
	assert.NotContains(t, f.docs.docs, "doc-1")
	assert.NotContains(t, f.docs.docs, "doc-2")
	assert.Contains(t, f.docs.docs, "doc-other")
	assert.NotContains(t, f.repo.bots, item.Uuid)
	assert.Equal(t, []string{"https://idx.example.com"}, f.stores.hosts)
}
