package streaming

import (
	"errors"
	"fmt"
)

var (
	// ErrNoController команды пришли раньше, чем подключена сессия
	ErrNoController = errors.New("сессия не подключена")
	// ErrUnknownAction неизвестная команда
	ErrUnknownAction = errors.New("неизвестная команда")
)

// Dispatch выполняет команду по имени: start, capture, cancel, retake.
// Снимок передается страницам через PhotoSink, поэтому здесь он не возвращается.
func Dispatch(controller Controller, action string) error {
	switch action {
	case "start":
		return controller.Start()
	case "capture":
		_, err := controller.Capture()
		return err
	case "cancel":
		return controller.Cancel()
	case "retake":
		return controller.Retake()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}
