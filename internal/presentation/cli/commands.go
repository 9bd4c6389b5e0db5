package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"webcam-photobooth/internal/application"
	"webcam-photobooth/internal/domain"
)

const (
	snapTimeout     = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// CLI представляет CLI интерфейс приложения
type CLI struct {
	cameraManager application.CameraManager
	session       *application.CaptureSession
	handler       http.Handler
	logger        application.Logger
	config        *Config
	out           io.Writer
}

// NewCLI создает новый CLI интерфейс
func NewCLI(cameraManager application.CameraManager, session *application.CaptureSession, logger application.Logger) *CLI {
	return &CLI{
		cameraManager: cameraManager,
		session:       session,
		logger:        logger,
		out:           os.Stdout,
	}
}

// SetConfig устанавливает конфигурацию
func (c *CLI) SetConfig(config *Config) {
	c.config = config
}

// SetHandler задает HTTP обработчик для режима сервера
func (c *CLI) SetHandler(handler http.Handler) {
	c.handler = handler
}

// Run запускает выбранный режим: список камер, один снимок или сервер со страницей
func (c *CLI) Run(ctx context.Context) error {
	if c.config.ListDevices {
		return c.listDevices()
	}

	// Настраиваем обработку сигналов завершения
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.config.Snap {
		return c.snap(ctx)
	}
	return c.serve(ctx)
}

// listDevices выводит список доступных устройств
func (c *CLI) listDevices() error {
	devices, err := c.cameraManager.ListDevices()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Доступные устройства:")
	for i, device := range devices {
		fmt.Fprintf(c.out, "[%d] %s (%s) id=%s\n", i, device.Label, device.Kind, device.ID)
	}

	return nil
}

// snap включает камеру, ждет первого кадра, делает снимок и сохраняет его
func (c *CLI) snap(ctx context.Context) error {
	defer c.session.Close()

	if err := c.session.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, snapTimeout)
	defer cancel()

	status, err := c.session.Await(ctx, func(st application.Status) bool {
		return st.CanCapture || st.State == domain.StateFailed
	})
	if err != nil {
		return fmt.Errorf("камера не прислала кадр: %w", err)
	}
	if status.State == domain.StateFailed {
		return fmt.Errorf("%s: %w", status.Message, c.session.Err())
	}

	photo, err := c.session.Capture()
	if err != nil {
		return fmt.Errorf("ошибка съемки: %w", err)
	}

	if err := os.WriteFile(c.config.Output, photo.Data, 0o644); err != nil {
		return fmt.Errorf("ошибка записи снимка: %w", err)
	}
	fmt.Fprintf(c.out, "Снимок сохранен: %s (%dx%d)\n", c.config.Output, photo.Width, photo.Height)
	return nil
}

// serve запускает HTTP сервер до сигнала завершения
func (c *CLI) serve(ctx context.Context) error {
	server := &http.Server{
		Addr:    c.config.Address,
		Handler: c.handler,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.logger.Info("Запуск сервера на %s", c.config.Address)
		c.logger.Info("Страница доступна по адресу http://%s", c.config.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка HTTP сервера: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		c.logger.Info("Прерывание получено, закрытие...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)

		// Камера освобождается в любом состоянии
		c.session.Close()
		return err
	})

	return g.Wait()
}
