package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lydiaBn/mcp-market-research-agent/internal/config"
	"github.com/lydiaBn/mcp-market-research-agent/internal/logger"
	"github.com/lydiaBn/mcp-market-research-agent/internal/research"
	"github.com/lydiaBn/mcp-market-research-agent/internal/search"
	"github.com/lydiaBn/mcp-market-research-agent/internal/server"
	"github.com/lydiaBn/mcp-market-research-agent/internal/speech"
)

func main() {
	boot := logger.Bootstrap()

	// 加载配置
	cfg := config.Load(boot)
	boot.Sync()

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	log.Info("starting market research MCP server")
	cfg.Print(log)

	// 初始化外部服务
	searchManager := search.NewManager(cfg, log)
	defer searchManager.Close()

	synthesizer := speech.NewElevenLabs(cfg.Speech.BaseURL, cfg.Speech.APIKey, cfg.Speech.ModelID, cfg.Timeouts.Speech, cfg.ProxyURL(), log)

	svc := research.NewService(searchManager, synthesizer, research.OptionsFromConfig(cfg), log)

	// 创建并启动服务器
	srv := server.New(cfg, svc, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// 优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
