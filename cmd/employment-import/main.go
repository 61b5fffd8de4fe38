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

	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/config"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/importer"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/logger"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

var (
	month   = flag.String("month", "", "数据月份 (YYYY-MM，为空时从月份列/Sheet 名/文件名识别)")
	replace = flag.Bool("replace", false, "导入前删除该月已有月报")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "用法: %s [参数] <月报.xlsx>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, _, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	zlog, err := logger.New(cfg.Logging.Level, "console", "employment-import")
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		zlog.Fatal("create data dir failed", zap.Error(err))
	}
	st, err := store.Open(cfg.Database.Driver, config.DatabaseDSN(cfg, dir))
	if err != nil {
		zlog.Fatal("open store failed", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := importer.NewCoordinator(st, zlog)
	failed := 0
	for _, path := range flag.Args() {
		if !importFile(ctx, coord, path) {
			failed++
		}
	}
	if failed > 0 {
		stop()
		_ = st.Close()
		os.Exit(1)
	}
}

// importFile 导入单个文件并打印进度，返回是否成功
func importFile(ctx context.Context, coord *importer.Coordinator, path string) bool {
	ok := true
	ch := coord.Import(ctx, importer.ImportOptions{
		FilePath:     path,
		Month:        *month,
		ReplaceMonth: *replace,
	})
	for evt := range ch {
		switch evt.Type {
		case "error":
			ok = false
			fmt.Fprintf(os.Stderr, "[%s] 失败: %s\n", filepath.Base(path), evt.Message)
		case "warning", "sheet_done", "done":
			fmt.Printf("[%s] %s\n", filepath.Base(path), evt.Message)
		}
	}
	return ok
}
