package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAcquisition камера не запустилась (нет доступа или устройства)
	ErrAcquisition = errors.New("камера не запустилась")
	// ErrFrameNotReady съемка запрошена до первого декодированного кадра
	ErrFrameNotReady = errors.New("кадр еще не готов")
	// ErrSurfaceUnavailable нет поверхности для рисования
	ErrSurfaceUnavailable = errors.New("поверхность рисования недоступна")
	// ErrIllegalTransition запрошенный переход состояний запрещен
	ErrIllegalTransition = errors.New("недопустимый переход состояния")
	// ErrSessionClosed сессия уже закрыта
	ErrSessionClosed = errors.New("сессия закрыта")
)

// AcquisitionReason причина отказа камеры
type AcquisitionReason int

const (
	ReasonUnavailable AcquisitionReason = iota // нет устройства или оно занято
	ReasonDenied                               // нет прав доступа
)

func (r AcquisitionReason) String() string {
	if r == ReasonDenied {
		return "denied"
	}
	return "unavailable"
}

// AcquisitionError ошибка получения камеры
type AcquisitionError struct {
	Reason AcquisitionReason
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("%v (%s): %v", ErrAcquisition, e.Reason, e.Err)
}

func (e *AcquisitionError) Unwrap() []error {
	return []error{ErrAcquisition, e.Err}
}

// TransitionError запрещенный переход from -> to
type TransitionError struct {
	From CaptureState
	To   CaptureState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
