package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/api"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/config"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/dashboard"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/loader"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/logger"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/narrative"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/server"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/util"
)

var (
	port        = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode     = flag.Bool("dev", false, "开发模式")
	dataDir     = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	noBrowser   = flag.Bool("no-browser", false, "启动后不自动打开浏览器")
	writeConfig = flag.Bool("write-config", false, "将当前生效配置写入 config.toml 后退出")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	if *writeConfig {
		path := info.Path
		if path == "" {
			path = "config.toml"
		}
		// 密钥只从环境变量读取
		out := *cfg
		out.Narrative.APIKey = ""
		if err := config.SaveConfig(&out, path); err != nil {
			log.Fatalf("写入配置失败: %v", err)
		}
		fmt.Printf("配置已写入 %s\n", path)
		return
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, "employment-dashboard")
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, zlog *zap.Logger) error {
	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	zlog.Info("data directory ready", zap.String("data_dir", dir), zap.String("db_driver", cfg.Database.Driver))

	st, err := store.Open(cfg.Database.Driver, config.DatabaseDSN(cfg, dir))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ld := loader.New(st, loader.Options{
		Retries: cfg.Analytics.LoadRetries,
		Backoff: cfg.Analytics.RetryBackoff(),
	}, zlog, loader.NewMetrics(reg))
	svc := dashboard.NewService(st, ld, dashboard.Options{TopN: cfg.Analytics.TopN}, zlog, dashboard.NewMetrics(reg))

	var narrator narrative.Generator = &narrative.TemplateGenerator{MaxChars: cfg.Narrative.MaxChars}
	if cfg.Narrative.Enabled() {
		narrator = narrative.NewClient(narrative.ClientOptions{
			Endpoint: cfg.Narrative.Endpoint,
			APIKey:   cfg.Narrative.APIKey,
			Model:    cfg.Narrative.Model,
			MaxChars: cfg.Narrative.MaxChars,
			Timeout:  time.Duration(cfg.Narrative.TimeoutSeconds) * time.Second,
		}, zlog)
		zlog.Info("narrative client enabled", zap.String("model", cfg.Narrative.Model))
	} else {
		zlog.Info("narrative client not configured, using template summary")
	}

	handler := api.NewHandler(api.Deps{
		Store:     st,
		Dashboard: svc,
		Narrator:  narrator,
		UploadDir: filepath.Join(dir, "uploads"),
		Logger:    zlog,
	})
	srv := server.NewServer(cfg, handler, reg, zlog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	if !cfg.Server.DevMode && !*noBrowser {
		if err := util.OpenBrowser(url); err != nil {
			zlog.Warn("无法自动打开浏览器，请手动访问", zap.String("url", url), zap.Error(err))
		}
	} else {
		zlog.Info("dashboard available", zap.String("url", url))
	}

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
