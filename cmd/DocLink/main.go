package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	api "DocLink/api/http"
	"DocLink/internal/config"
	"DocLink/pkg/zlog"
)

func main() {
	conf := config.GetConfig()
	zlog.Init(conf.LogConfig.LogPath)
	defer zlog.Sync()

	workerCtx, cancelWorker := context.WithCancel(context.Background())

	// 摄取任务消费端，与 HTTP 服务同进程不同协程
	go func() {
		if err := api.IngestWorker.Run(workerCtx); err != nil && workerCtx.Err() == nil {
			zlog.Fatal("摄取消费端异常退出: " + err.Error())
		}
	}()

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		zlog.Info("服务器正在启动，监听地址: " + addr)
		if err := api.GE.Run(addr); err != nil {
			zlog.Fatal("服务器启动失败: " + err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("正在关闭服务器...")
	cancelWorker()
	api.Shutdown()
	zlog.Info("服务器已关闭")
}
