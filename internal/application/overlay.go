package application

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"webcam-photobooth/internal/domain"
)

// DefaultOverlayFPS частота тактов превью по умолчанию
const DefaultOverlayFPS = 30

// OverlayLoop перерисовывает прозрачный слой с узором поверх живого видео.
// Такты выполняются последовательно в одной горутине и никогда не пересекаются.
type OverlayLoop struct {
	surface   domain.Surface
	presenter OverlayPresenter
	logger    Logger
	limit     rate.Limit

	mutex  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	ticks  atomic.Uint64
}

// NewOverlayLoop создает цикл превью. presenter может быть nil.
func NewOverlayLoop(surface domain.Surface, presenter OverlayPresenter, fps int, logger Logger) *OverlayLoop {
	if fps <= 0 {
		fps = DefaultOverlayFPS
	}
	return &OverlayLoop{
		surface:   surface,
		presenter: presenter,
		logger:    logger,
		limit:     rate.Limit(fps),
	}
}

// Start запускает цикл для источника. Предыдущий запуск останавливается.
func (l *OverlayLoop) Start(source domain.VideoSource) {
	l.Stop()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go l.run(ctx, source, done)
	l.logger.Debug("Цикл превью запущен")
}

// Stop отменяет цикл и ждет завершения текущего такта.
// После возврата ни один такт уже не выполняется и не будет запланирован.
func (l *OverlayLoop) Stop() {
	l.mutex.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mutex.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	l.logger.Debug("Цикл превью остановлен после %d тактов", l.ticks.Load())
}

// Running сообщает, запланирован ли следующий такт
func (l *OverlayLoop) Running() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.cancel != nil
}

// Ticks возвращает число выполненных тактов с отрисовкой
func (l *OverlayLoop) Ticks() uint64 {
	return l.ticks.Load()
}

func (l *OverlayLoop) run(ctx context.Context, source domain.VideoSource, done chan struct{}) {
	defer close(done)

	limiter := rate.NewLimiter(l.limit, 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		l.Tick(source)
	}
}

// Tick выполняет один такт: crop по текущим размерам, слой нужного размера, узор.
// Возвращает false, если кадр еще не декодирован.
func (l *OverlayLoop) Tick(source domain.VideoSource) bool {
	frame, crop, ok := domain.FrameCrop(source)
	if !ok {
		return false
	}

	bounds := crop.Bounds()
	l.surface.Resize(bounds.Dx(), bounds.Dy())
	l.surface.Clear()
	domain.DrawDecoration(l.surface, float64(bounds.Dx()), float64(bounds.Dy()))
	l.ticks.Add(1)

	if l.presenter != nil {
		l.presenter.PresentOverlay(OverlayFrame{
			Crop:    crop,
			Overlay: l.surface.Snapshot(),
			Video:   frame,
		})
	}
	return true
}
