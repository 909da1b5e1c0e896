package entity

import "time"

// UserInfo 控制台账号。密码存加盐摘要，明文不落库。
type UserInfo struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid         string    `gorm:"column:uuid;type:char(36);not null;uniqueIndex:uniq_user_uuid"`
	Username     string    `gorm:"column:username;type:varchar(64);not null;uniqueIndex:uniq_user_name"`
	PasswordHash string    `gorm:"column:password_hash;type:char(64);not null"`
	PasswordSalt string    `gorm:"column:password_salt;type:char(32);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (UserInfo) TableName() string { return "user_info" }
