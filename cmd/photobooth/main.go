package main

import (
	"context"
	"flag"
	"log"
	"os"

	_ "github.com/pion/mediadevices/pkg/driver/camera" // Регистрируем драйвер камеры

	"webcam-photobooth/internal/application"
	"webcam-photobooth/internal/infrastructure/camera"
	"webcam-photobooth/internal/infrastructure/canvas"
	"webcam-photobooth/internal/infrastructure/logger"
	"webcam-photobooth/internal/infrastructure/streaming"
	"webcam-photobooth/internal/presentation/cli"
	"webcam-photobooth/internal/presentation/web"
)

func main() {
	// Парсим флаги и файл конфигурации
	config, err := cli.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	// Инициализируем логгер
	rootLogger := logger.New(logger.Options{Debug: config.Debug, File: config.LogFile})
	defer rootLogger.Close()

	interpolator, err := canvas.ParseInterpolator(config.Interpolation)
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	// Инициализируем инфраструктурные компоненты
	cameraManager := camera.NewMediaDevicesManager(rootLogger.Child("camera"))

	// Без страницы область показа фиксированная, со страницей ее размер сообщает хаб
	var hub *streaming.Hub
	var viewport application.Viewport = application.StaticViewport{
		Width:  config.DisplayWidth,
		Height: config.DisplayHeight,
	}
	var presenter application.OverlayPresenter
	if !config.Snap && !config.ListDevices {
		hub = streaming.NewHub(config.DisplayWidth, config.DisplayHeight, rootLogger.Child("ws"), config.Debug)
		viewport = hub
		presenter = hub
	}

	sessionLogger := rootLogger.Child("session")
	overlay := application.NewOverlayLoop(canvas.New(), presenter, config.PreviewFPS, sessionLogger)
	pipeline := application.NewCapturePipeline(canvas.New(canvas.WithInterpolator(interpolator)), sessionLogger)

	// Инициализируем сессию съемки
	session := application.NewCaptureSession(cameraManager, viewport, overlay, pipeline, config.VideoConfig(), sessionLogger)
	defer session.Close()

	cliApp := cli.NewCLI(cameraManager, session, rootLogger)
	cliApp.SetConfig(config)

	if hub != nil {
		hub.SetController(session)
		session.OnChange(hub.PublishStatus)
		session.SetPhotoSink(hub.PublishPhoto)
		cliApp.SetHandler(web.NewServer(session, hub, rootLogger.Child("http")).Router())
	} else {
		session.SetPhotoSink(func(dataURL string) {
			sessionLogger.Debug("Снимок готов, data URL: %d байт", len(dataURL))
		})
	}

	// Запускаем CLI
	if err := cliApp.Run(context.Background()); err != nil {
		rootLogger.Error("Ошибка: %v", err)
		session.Close()
		rootLogger.Close()
		os.Exit(1)
	}
}
