package domain

// transitions перечисляет все разрешенные переходы состояний сессии
var transitions = map[CaptureState][]CaptureState{
	StateIdle:          {StateAwaitingStart},
	StateAwaitingStart: {StateLive, StateFailed, StateIdle},
	StateLive:          {StateCaptured, StateIdle},
	StateFailed:        {StateAwaitingStart, StateIdle},
	StateCaptured:      {StateAwaitingStart},
}

// CanTransition сообщает, разрешен ли переход from -> to
func CanTransition(from, to CaptureState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition проверяет переход и возвращает *TransitionError, если он запрещен
func Transition(from, to CaptureState) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// HoldsCamera сообщает, может ли в этом состоянии удерживаться камера
func (s CaptureState) HoldsCamera() bool {
	return s == StateLive || s == StateAwaitingStart
}
