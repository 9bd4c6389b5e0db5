package application

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"webcam-photobooth/internal/domain"
)

// Сообщения для пользователя
const (
	MessageStarting = "Камера запускается..."
	MessageFailed   = "Не удалось запустить камеру."
)

// Status снимок состояния сессии для страницы
type Status struct {
	SessionID  string              `json:"sessionId"`
	State      domain.CaptureState `json:"state"`
	CanCapture bool                `json:"canCapture"`
	Message    string              `json:"message,omitempty"`
	PhotoID    string              `json:"photoId,omitempty"`
}

// CaptureSession сессия съемки: владеет камерой, циклом превью и снимком.
// Единственный компонент, который открывает и закрывает камеру.
type CaptureSession struct {
	cameraManager CameraManager
	viewport      Viewport
	video         *LiveVideo
	overlay       *OverlayLoop
	pipeline      *CapturePipeline
	logger        Logger
	config        domain.VideoConfig

	mutex      sync.Mutex
	id         string
	state      domain.CaptureState
	track      domain.VideoTrack
	cancelFunc context.CancelFunc
	generation uint64
	photo      *domain.Photo
	lastErr    error
	closed     bool
	sink       PhotoSink
	listeners  []StateListener
	changed    chan struct{}
}

// NewCaptureSession создает сессию в состоянии Idle
func NewCaptureSession(cameraManager CameraManager, viewport Viewport, overlay *OverlayLoop,
	pipeline *CapturePipeline, config domain.VideoConfig, logger Logger) *CaptureSession {
	s := &CaptureSession{
		cameraManager: cameraManager,
		viewport:      viewport,
		overlay:       overlay,
		pipeline:      pipeline,
		logger:        logger,
		config:        config,
		state:         domain.StateIdle,
		changed:       make(chan struct{}),
	}
	s.video = NewLiveVideo(viewport, logger)
	s.video.onFirstFrame = s.frameReady
	return s
}

// SetPhotoSink задает получателя готовых снимков
func (s *CaptureSession) SetPhotoSink(sink PhotoSink) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sink = sink
}

// OnChange подписывает listener на изменения состояния.
// listener вызывается под мьютексом сессии и не должен обращаться к ней.
func (s *CaptureSession) OnChange(listener StateListener) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Start запускает камеру: Idle или Failed -> AwaitingStart
func (s *CaptureSession) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.state != domain.StateIdle && s.state != domain.StateFailed {
		return &domain.TransitionError{From: s.state, To: domain.StateAwaitingStart}
	}

	s.beginAcquisition()
	return nil
}

// Retake отбрасывает снимок и запускает камеру заново: Captured -> AwaitingStart
func (s *CaptureSession) Retake() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.state != domain.StateCaptured {
		return &domain.TransitionError{From: s.state, To: domain.StateAwaitingStart}
	}

	s.photo = nil
	s.beginAcquisition()
	return nil
}

// Cancel останавливает съемку: Live, AwaitingStart или Failed -> Idle
func (s *CaptureSession) Cancel() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if err := domain.Transition(s.state, domain.StateIdle); err != nil {
		return err
	}

	s.releaseCamera()
	s.lastErr = nil
	s.setState(domain.StateIdle)
	return nil
}

// Capture делает снимок: Live -> Captured. Камера освобождается в том же переходе.
// При ошибке конвейера сессия остается в Live.
func (s *CaptureSession) Capture() (*domain.Photo, error) {
	s.mutex.Lock()

	if s.closed {
		s.mutex.Unlock()
		return nil, domain.ErrSessionClosed
	}
	if err := domain.Transition(s.state, domain.StateCaptured); err != nil {
		s.mutex.Unlock()
		return nil, err
	}

	photo, err := s.pipeline.Capture(s.video, s.id)
	if err != nil {
		s.mutex.Unlock()
		s.logger.Error("Ошибка съемки: %v", err)
		return nil, err
	}

	s.photo = photo
	s.releaseCamera()
	s.setState(domain.StateCaptured)
	sink := s.sink
	s.mutex.Unlock()

	s.notifySink(sink, photo)
	return photo, nil
}

// Close освобождает камеру из любого состояния. Дальнейшие команды вернут ErrSessionClosed.
func (s *CaptureSession) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.releaseCamera()
	if s.state != domain.StateIdle && domain.CanTransition(s.state, domain.StateIdle) {
		s.setState(domain.StateIdle)
	}
	return nil
}

// State возвращает текущее состояние
func (s *CaptureSession) State() domain.CaptureState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// Status возвращает снимок состояния для страницы
func (s *CaptureSession) Status() Status {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.status()
}

// Photo возвращает последний снимок или nil
func (s *CaptureSession) Photo() *domain.Photo {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.photo
}

// Err возвращает причину последнего отказа камеры
func (s *CaptureSession) Err() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastErr
}

// CanCapture сообщает, можно ли нажимать на спуск: Live и кадр уже декодирован
func (s *CaptureSession) CanCapture() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.canCapture()
}

// Await ждет, пока cond не станет истинным для состояния сессии
func (s *CaptureSession) Await(ctx context.Context, cond func(Status) bool) (Status, error) {
	for {
		s.mutex.Lock()
		status := s.status()
		changed := s.changed
		s.mutex.Unlock()

		if cond(status) {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-changed:
		}
	}
}

// beginAcquisition переводит сессию в AwaitingStart и запускает получение камеры.
// Вызывается под мьютексом.
func (s *CaptureSession) beginAcquisition() {
	s.generation++
	s.id = uuid.NewString()
	s.lastErr = nil

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFunc = cancel
	s.setState(domain.StateAwaitingStart)

	go s.acquire(ctx, s.generation)
}

// acquire ждет готовности области показа, открывает камеру и подключает ее к видео
func (s *CaptureSession) acquire(ctx context.Context, generation uint64) {
	err := s.viewport.WaitReady(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.logger.Debug("Ожидание области показа прервано: %v", err)
		return
	}

	s.logger.Info("Открытие камеры с параметрами: %dx%d, %d fps",
		s.config.Width, s.config.Height, s.config.FrameRate)
	track, err := s.cameraManager.OpenCamera(ctx, s.config)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if generation != s.generation || s.state != domain.StateAwaitingStart || s.closed {
		// Попытка устарела: отмена или новый запуск уже произошли
		if track != nil {
			s.logger.Info("Камера получена после отмены, закрываем: %s", track.ID())
			s.closeTrack(track)
		}
		return
	}
	s.cancelFunc()
	s.cancelFunc = nil

	if err != nil {
		s.logger.Error("Ошибка открытия камеры: %v", err)
		s.lastErr = err
		s.setState(domain.StateFailed)
		return
	}

	if err := s.video.Attach(track); err != nil {
		s.logger.Error("Ошибка подключения камеры к видео: %v", err)
		s.closeTrack(track)
		s.lastErr = &domain.AcquisitionError{Reason: domain.ReasonUnavailable, Err: err}
		s.setState(domain.StateFailed)
		return
	}

	s.track = track
	s.logger.Info("Используется камера: %s", track.ID())
	s.overlay.Start(s.video)
	s.setState(domain.StateLive)
}

// frameReady вызывается видео при первом декодированном кадре
func (s *CaptureSession) frameReady() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state == domain.StateLive {
		s.notify()
	}
}

// releaseCamera останавливает превью и освобождает камеру. Вызывается под мьютексом.
func (s *CaptureSession) releaseCamera() {
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.overlay.Stop()
	s.video.Detach()
	if s.track != nil {
		s.closeTrack(s.track)
		s.track = nil
	}
}

func (s *CaptureSession) closeTrack(track domain.VideoTrack) {
	if err := track.Close(); err != nil {
		s.logger.Error("Ошибка закрытия трека: %v", err)
		return
	}
	s.logger.Info("Камера освобождена: %s", track.ID())
}

// setState меняет состояние. Вне Live и AwaitingStart камера не удерживается.
func (s *CaptureSession) setState(next domain.CaptureState) {
	if !next.HoldsCamera() && (s.track != nil || s.video.Attached()) {
		s.logger.Error("Камера удерживается в состоянии %s, освобождаем", next)
		s.releaseCamera()
	}

	prev := s.state
	s.state = next
	s.logger.Info("Сессия %s: %s -> %s", s.id, prev, next)
	s.notify()
}

// notify будит Await и вызывает подписчиков. Вызывается под мьютексом.
func (s *CaptureSession) notify() {
	close(s.changed)
	s.changed = make(chan struct{})

	status := s.status()
	for _, listener := range s.listeners {
		listener(status)
	}
}

func (s *CaptureSession) canCapture() bool {
	if s.state != domain.StateLive {
		return false
	}
	width, height := s.video.NativeSize()
	return width > 0 && height > 0
}

func (s *CaptureSession) status() Status {
	status := Status{
		SessionID:  s.id,
		State:      s.state,
		CanCapture: s.canCapture(),
	}
	switch s.state {
	case domain.StateAwaitingStart:
		status.Message = MessageStarting
	case domain.StateFailed:
		status.Message = MessageFailed
	case domain.StateCaptured:
		if s.photo != nil {
			status.PhotoID = s.photo.ID
		}
	}
	return status
}

// notifySink передает снимок странице. Ошибки получателя только логируются.
func (s *CaptureSession) notifySink(sink PhotoSink, photo *domain.Photo) {
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Получатель снимка завершился с ошибкой: %v", r)
		}
	}()
	sink(photo.DataURL())
}
