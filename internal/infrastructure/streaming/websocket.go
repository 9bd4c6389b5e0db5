package streaming

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"webcam-photobooth/internal/application"
	"webcam-photobooth/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Префиксы бинарных сообщений превью
const (
	BinaryFrame   byte = 0x01 // JPEG кадра камеры без отражения
	BinaryOverlay byte = 0x02 // PNG слоя с узором
)

const (
	writeWait      = 5 * time.Second
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Разрешаем все подключения
	},
}

// Controller команды, которые страница может отправить сессии
type Controller interface {
	Start() error
	Capture() (*domain.Photo, error)
	Cancel() error
	Retake() error
	Status() application.Status
}

// Event сообщение для страницы
type Event struct {
	Type    string              `json:"type"`
	Status  *application.Status `json:"status,omitempty"`
	DataURL string              `json:"dataUrl,omitempty"`
	Crop    *domain.CropRect    `json:"crop,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// PageMessage сообщение от страницы
type PageMessage struct {
	Type   string  `json:"type"` // mounted, resize, command
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Action string  `json:"action,omitempty"` // start, capture, cancel, retake
}

type outgoing struct {
	kind int
	data []byte
}

type client struct {
	conn *websocket.Conn
	send chan outgoing
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub мост между сессией и страницами по WebSocket.
// Для сессии это область показа (Viewport) и получатель превью (OverlayPresenter).
type Hub struct {
	logger      application.Logger
	debugMode   bool
	jpegQuality int

	mutex       sync.Mutex
	controller  Controller
	clients     map[*client]struct{}
	width       float64
	height      float64
	ready       chan struct{}
	isReady     bool
	overlaySize image.Point

	frameCounter int
	startTime    time.Time
}

// NewHub создает хаб. width и height используются, пока страница не сообщила свой размер.
func NewHub(width, height float64, logger application.Logger, debugMode bool) *Hub {
	return &Hub{
		logger:      logger,
		debugMode:   debugMode,
		jpegQuality: 80,
		clients:     make(map[*client]struct{}),
		width:       width,
		height:      height,
		ready:       make(chan struct{}),
	}
}

// SetController задает получателя команд страницы
func (h *Hub) SetController(controller Controller) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.controller = controller
}

// DisplaySize возвращает размер области показа, сообщенный страницей
func (h *Hub) DisplaySize() (float64, float64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.width, h.height
}

// WaitReady ждет, пока хотя бы одна страница не смонтирует область показа
func (h *Hub) WaitReady(ctx context.Context) error {
	h.mutex.Lock()
	ready := h.ready
	h.mutex.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MarkReady отмечает область показа готовой и обновляет ее размер
func (h *Hub) MarkReady(width, height float64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.resize(width, height)
	if !h.isReady {
		h.isReady = true
		close(h.ready)
	}
}

// Clients возвращает число подключенных страниц
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) resize(width, height float64) {
	if width > 0 && height > 0 {
		h.width, h.height = width, height
	}
}

// PresentOverlay отправляет страницам кадр и, при смене размера, слой с узором.
// Не блокирует цикл превью: медленные клиенты теряют кадры.
func (h *Hub) PresentOverlay(frame application.OverlayFrame) {
	h.mutex.Lock()
	if len(h.clients) == 0 {
		h.mutex.Unlock()
		return
	}
	size := frame.Overlay.Bounds().Size()
	sendOverlay := size != h.overlaySize
	h.overlaySize = size
	h.mutex.Unlock()

	if sendOverlay {
		crop := frame.Crop
		h.broadcastEvent(Event{Type: "overlay", Crop: &crop})

		var buf bytes.Buffer
		buf.WriteByte(BinaryOverlay)
		if err := imaging.Encode(&buf, frame.Overlay, imaging.PNG); err != nil {
			h.logger.Error("Ошибка кодирования слоя: %v", err)
		} else {
			h.broadcast(outgoing{kind: websocket.BinaryMessage, data: buf.Bytes()})
		}
	}

	if frame.Video == nil {
		return
	}
	var buf bytes.Buffer
	buf.WriteByte(BinaryFrame)
	if err := imaging.Encode(&buf, frame.Video, imaging.JPEG, imaging.JPEGQuality(h.jpegQuality)); err != nil {
		h.logger.Error("Ошибка кодирования кадра: %v", err)
		return
	}
	h.broadcast(outgoing{kind: websocket.BinaryMessage, data: buf.Bytes()})
	h.countFrame(buf.Len())
}

func (h *Hub) countFrame(size int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.frameCounter == 0 {
		h.startTime = time.Now()
	}
	h.frameCounter++

	// Отладочная информация
	if h.debugMode && h.frameCounter%30 == 0 {
		elapsed := time.Since(h.startTime).Seconds()
		fps := float64(h.frameCounter) / elapsed
		h.logger.Debug("Отправлено кадров: %d, FPS: %.2f, Размер последнего кадра: %d байт",
			h.frameCounter, fps, size)
	}
}

// PublishStatus рассылает состояние сессии. Подходит как StateListener:
// не обращается к сессии.
func (h *Hub) PublishStatus(status application.Status) {
	h.broadcastEvent(Event{Type: "state", Status: &status})
}

// PublishPhoto рассылает готовый снимок. Подходит как PhotoSink.
func (h *Hub) PublishPhoto(dataURL string) {
	h.broadcastEvent(Event{Type: "photo", DataURL: dataURL})
}

func (h *Hub) broadcastEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Ошибка сериализации события %s: %v", event.Type, err)
		return
	}
	h.broadcast(outgoing{kind: websocket.TextMessage, data: data})
}

func (h *Hub) broadcast(msg outgoing) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		h.enqueue(c, msg)
	}
}

// enqueue кладет сообщение в очередь клиента без блокировки
func (h *Hub) enqueue(c *client, msg outgoing) {
	select {
	case c.send <- msg:
	default:
		h.logger.Debug("Очередь клиента %s переполнена, сообщение отброшено", c.conn.RemoteAddr())
	}
}

// ServeWS обрабатывает подключение страницы
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Ошибка при апгрейде до WebSocket: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan outgoing, sendBufferSize),
		done: make(chan struct{}),
	}

	h.mutex.Lock()
	h.clients[c] = struct{}{}
	// Новая страница должна получить слой заново
	h.overlaySize = image.Point{}
	controller := h.controller
	h.mutex.Unlock()

	clientAddr := conn.RemoteAddr().String()
	h.logger.Info("Клиент подключен: %s", clientAddr)

	if controller != nil {
		status := controller.Status()
		h.sendEvent(c, Event{Type: "state", Status: &status})
	}

	go h.writePump(c)
	h.readPump(c)

	h.mutex.Lock()
	delete(h.clients, c)
	h.mutex.Unlock()
	c.close()
	conn.Close()

	h.logger.Info("Клиент отключен: %s", clientAddr)
}

func (h *Hub) sendEvent(c *client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Ошибка сериализации события %s: %v", event.Type, err)
		return
	}
	h.enqueue(c, outgoing{kind: websocket.TextMessage, data: data})
}

func (h *Hub) writePump(c *client) {
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				h.logger.Error("Ошибка отправки клиенту %s: %v", c.conn.RemoteAddr(), err)
				c.close()
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Error("Ошибка чтения: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg PageMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.sendEvent(c, Event{Type: "error", Error: "некорректное сообщение"})
			continue
		}
		h.handle(c, msg)
	}
}

func (h *Hub) handle(c *client, msg PageMessage) {
	switch msg.Type {
	case "mounted":
		h.MarkReady(msg.Width, msg.Height)
	case "resize":
		h.mutex.Lock()
		h.resize(msg.Width, msg.Height)
		h.mutex.Unlock()
	case "command":
		if err := h.dispatch(msg.Action); err != nil {
			h.sendEvent(c, Event{Type: "error", Error: err.Error()})
		}
	default:
		h.sendEvent(c, Event{Type: "error", Error: "неизвестный тип сообщения: " + msg.Type})
	}
}

// dispatch выполняет команду страницы
func (h *Hub) dispatch(action string) error {
	h.mutex.Lock()
	controller := h.controller
	h.mutex.Unlock()
	if controller == nil {
		return ErrNoController
	}
	return Dispatch(controller, action)
}

var (
	_ application.Viewport         = (*Hub)(nil)
	_ application.OverlayPresenter = (*Hub)(nil)
)
