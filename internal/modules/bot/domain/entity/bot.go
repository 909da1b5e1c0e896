package entity

import "time"

const (
	BotStatusActive = "active"
	BotStatusPaused = "paused"
)

const (
	BotTypeSupport = "support"
	BotTypeSales   = "sales"
	BotTypeFAQ     = "faq"
	BotTypeGeneral = "general"
)

// Bot 租户机器人记录。嵌入/生成密钥以 vault 信封格式加密存储，
// 只有摄取与问答链路在调用外部服务前才会解密。
type Bot struct {
	Id          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid        string `gorm:"column:uuid;type:char(36);not null;uniqueIndex:uniq_bot_uuid"`
	OwnerUserId string `gorm:"column:owner_user_id;type:char(36);not null;index:idx_bot_owner"`
	Name        string `gorm:"column:name;type:varchar(64);not null"`
	BotType     string `gorm:"column:bot_type;type:varchar(20);not null;default:general"`
	Status      string `gorm:"column:status;type:varchar(16);not null;default:active"`

	// 向量索引位置：host 为唯一权威字段，索引名仅作展示
	VectorHost string `gorm:"column:vector_host;type:varchar(255);not null"`
	IndexName  string `gorm:"column:index_name;type:varchar(64)"`

	EncryptedEmbeddingKey  string `gorm:"column:encrypted_embedding_key;type:text"`
	EncryptedGenerationKey string `gorm:"column:encrypted_generation_key;type:text"`

	SystemPrompt string  `gorm:"column:system_prompt;type:text"`
	Temperature  float64 `gorm:"column:temperature;type:double;not null;default:0.7"`
	MaxTokens    int     `gorm:"column:max_tokens;type:int;not null;default:1024"`

	CreatedAt time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (Bot) TableName() string { return "bot_info" }

func (b *Bot) IsActive() bool {
	return b != nil && b.Status == BotStatusActive
}
