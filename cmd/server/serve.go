package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/program"
	"github.com/blues/fundraiser/internal/router"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/blues/fundraiser/internal/store"
	"github.com/blues/fundraiser/internal/task"
	"github.com/blues/fundraiser/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the reference host and scheduled tasks",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	// 初始化数据库
	db, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	st := store.New(db, rt.ProgramID())
	if err := st.Restore(cmd.Context(), rt); err != nil {
		return err
	}
	rt.AddHook(st)

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 启动定时任务
	tasks, err := task.NewManager(db, rt.Clock(), cfg)
	if err != nil {
		return err
	}
	if err := tasks.Start(); err != nil {
		return err
	}
	defer tasks.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Setup(db, rt, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s, program %s", cfg.Server.Port, rt.ProgramID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRuntime 按配置组装程序、代币服务和宿主
func newRuntime(cfg *config.Config) (*runtime.Runtime, error) {
	programID, err := cfg.Program.ProgramID()
	if err != nil {
		return nil, err
	}
	tokenID, err := cfg.Program.TokenProgram()
	if err != nil {
		return nil, err
	}
	systemID, err := cfg.Program.SystemProgram()
	if err != nil {
		return nil, err
	}
	proc, err := program.NewProcessor(programID, cfg.Program.MaxContributionBps)
	if err != nil {
		return nil, err
	}
	return runtime.New(runtime.NewBank(), proc, token.NewService(tokenID), runtime.Options{
		SystemProgram: systemID,
		Clock:         runtime.SystemClock{},
		Rent: runtime.Rent{
			LamportsPerByte: cfg.Rent.LamportsPerByte,
			AccountOverhead: cfg.Rent.AccountOverhead,
		},
	}), nil
}
