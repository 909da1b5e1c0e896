package initial

import (
	"fmt"
	"log"
	"os"
	"time"

	"DocLink/internal/config"
	botEntity "DocLink/internal/modules/bot/domain/entity"
	ragEntity "DocLink/internal/modules/rag/domain/rag"
	userEntity "DocLink/internal/modules/user/domain/entity"
	"DocLink/pkg/zlog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var GormDB *gorm.DB

func init() {
	conf := config.GetConfig()
	dbName := conf.MysqlConfig.DatabaseName
	if dbName == "" {
		dbName = conf.AppName
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.MysqlConfig.User, conf.MysqlConfig.Password, conf.MysqlConfig.Host, conf.MysqlConfig.Port, dbName)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		zlog.Fatal(err.Error())
	}

	// 自动迁移，如果没有建表，会自动创建对应的表
	err = GormDB.AutoMigrate(
		&userEntity.UserInfo{},
		&botEntity.Bot{},
		&ragEntity.BotDocument{},
		&ragEntity.IngestJob{},
	)
	if err != nil {
		zlog.Fatal(err.Error())
	}
}
