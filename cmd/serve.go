package cmd

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	serveEnv := new(serveFlags)

	var serveCommand = &cobra.Command{
		Use:   "serve [-c config_file] [-d working_dir] [-p port]",
		Short: "Run the content API service",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath()
			if err != nil {
				return err
			}

			s, err := NewServer(configPath, serveEnv)
			if err != nil {
				bootstrapLogger.Error("api service start err", zap.Error(err))
				return err
			}

			var mu sync.Mutex
			current := func() *Server {
				mu.Lock()
				defer mu.Unlock()
				return s
			}

			w := watcher.New()

			// 每个监听周期至多接收 1 个事件
			w.SetMaxEvents(1)

			// 只通知写入事件。
			w.FilterOps(watcher.Write)

			go func() {
				for {
					select {
					case event := <-w.Event:
						old := current()
						old.logger.Info("config watcher change", zap.String("event", event.Op.String()), zap.String("file", event.Path))
						old.sc.SendCloseSignal(nil)

						// 端口释放后再重建 server
						if err := old.sc.WaitClosed(); err != nil {
							old.logger.Warn("service closed with error before reload", zap.Error(err))
						}

						ns, err := NewServer(configPath, serveEnv)
						if err != nil {
							bootstrapLogger.Error("service start err", zap.Error(err))
							continue
						}
						mu.Lock()
						s = ns
						mu.Unlock()

					case err := <-w.Error:
						current().logger.Error("config watcher error", zap.Error(err))
					case <-w.Closed:
						bootstrapLogger.Info("config watcher closed")
						return
					}
				}
			}()

			if err := w.Add(configPath); err != nil {
				s.logger.Error("config watcher file error", zap.Error(err))
			}

			go func() {
				if err := w.Start(time.Second * 5); err != nil {
					current().logger.Error("config watcher start error", zap.Error(err))
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			w.Close()
			s = current()
			s.logger.Info("Received shutdown signal, initiating graceful shutdown...")
			s.sc.SendCloseSignal(nil)

			// Wait for all shutdown handlers to complete (including App Container graceful shutdown)
			// 等待所有关闭处理器完成（包括 App Container 的优雅关闭）
			if err := s.sc.WaitClosed(); err != nil {
				s.logger.Error("Shutdown completed with error", zap.Error(err))
			} else {
				s.logger.Info("Service has been shut down gracefully.")
			}
			_ = s.logger.Sync()
			return nil
		},
	}

	rootCmd.AddCommand(serveCommand)
	fs := serveCommand.Flags()
	fs.StringVarP(&serveEnv.port, "port", "p", "", "run port")
	fs.StringVarP(&serveEnv.runMode, "mode", "m", "", "run mode")
}
