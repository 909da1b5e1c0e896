package rag

import "time"

const (
	DocumentStatusIngesting = "ingesting"
	DocumentStatusReady     = "ready"
	DocumentStatusFailed    = "failed"
)

// 摄取任务阶段，单次运行内百分比单调不减
const (
	JobStageQueued    = "queued"
	JobStageChunking  = "chunking"
	JobStageEmbedding = "embedding"
	JobStageUpserting = "upserting"
	JobStageCompleted = "completed"
	JobStageFailed    = "failed"
)

// BotDocument 上传的纯文本文档。raw_text 由上游解析产出，管道只读；
// chunk_count 在摄取成功后回写。
type BotDocument struct {
	Id         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid       string    `gorm:"column:uuid;type:char(36);not null;uniqueIndex:uniq_bot_doc_uuid"`
	BotUuid    string    `gorm:"column:bot_uuid;type:char(36);not null;index:idx_bot_doc_bot"`
	Filename   string    `gorm:"column:filename;type:varchar(255);not null"`
	RawText    string    `gorm:"column:raw_text;type:longtext"`
	ChunkCount int       `gorm:"column:chunk_count;type:int;not null;default:0"`
	Status     string    `gorm:"column:status;type:varchar(16);not null;default:ingesting"`
	CreatedAt  time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (BotDocument) TableName() string { return "bot_document" }

// IngestJob 一次上传对应一个摄取任务，是进度轮询的权威状态记录。
// 失败即终态，不自动重试；重试通过重新上传整个文档完成。
type IngestJob struct {
	Id              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid            string    `gorm:"column:uuid;type:char(36);not null;uniqueIndex:uniq_ingest_job_uuid"`
	BotUuid         string    `gorm:"column:bot_uuid;type:char(36);not null;index:idx_ingest_job_bot"`
	DocumentUuid    string    `gorm:"column:document_uuid;type:char(36);not null;index:idx_ingest_job_doc"`
	Stage           string    `gorm:"column:stage;type:varchar(16);not null;default:queued"`
	Percent         int       `gorm:"column:percent;type:int;not null;default:0"`
	Message         string    `gorm:"column:message;type:varchar(512)"`
	VectorsUploaded int       `gorm:"column:vectors_uploaded;type:int;not null;default:0"`
	ErrorMsg        string    `gorm:"column:error_msg;type:varchar(255)"`
	CreatedAt       time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (IngestJob) TableName() string { return "bot_ingest_job" }

func (j *IngestJob) Terminal() bool {
	return j != nil && (j.Stage == JobStageCompleted || j.Stage == JobStageFailed)
}
