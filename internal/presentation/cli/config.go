package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"webcam-photobooth/internal/domain"
	"webcam-photobooth/internal/infrastructure/canvas"
)

// Config представляет конфигурацию приложения
type Config struct {
	Address       string  `yaml:"addr"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	FPS           int     `yaml:"fps"`
	PreviewFPS    int     `yaml:"preview_fps"`
	DeviceID      string  `yaml:"device"`
	DisplayWidth  float64 `yaml:"display_width"`
	DisplayHeight float64 `yaml:"display_height"`
	Interpolation string  `yaml:"interpolation"`
	Output        string  `yaml:"output"`
	Debug         bool    `yaml:"debug"`
	LogFile       string  `yaml:"log_file"`

	// Режимы запуска задаются только флагами
	ListDevices bool   `yaml:"-"`
	Snap        bool   `yaml:"-"`
	ConfigPath  string `yaml:"-"`
}

// DefaultConfig значения по умолчанию
func DefaultConfig() Config {
	return Config{
		Address:       "localhost:8080",
		Width:         640,
		Height:        480,
		FPS:           30,
		PreviewFPS:    30,
		DisplayWidth:  672,
		DisplayHeight: 378,
		Interpolation: "approx-bilinear",
		Output:        "photo.png",
	}
}

// ParseFlags парсит аргументы командной строки. Если задан -config, сначала
// читается YAML файл, а явно указанные флаги переопределяют его значения.
func ParseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	config := DefaultConfig()

	fs.StringVar(&config.Address, "addr", config.Address, "адрес HTTP сервера")
	fs.IntVar(&config.Width, "width", config.Width, "предпочтительная ширина видео")
	fs.IntVar(&config.Height, "height", config.Height, "предпочтительная высота видео")
	fs.IntVar(&config.FPS, "fps", config.FPS, "частота кадров камеры")
	fs.IntVar(&config.PreviewFPS, "preview-fps", config.PreviewFPS, "частота обновления превью")
	fs.StringVar(&config.DeviceID, "device", config.DeviceID, "ID устройства камеры для использования")
	fs.Float64Var(&config.DisplayWidth, "display-width", config.DisplayWidth, "ширина области показа")
	fs.Float64Var(&config.DisplayHeight, "display-height", config.DisplayHeight, "высота области показа")
	fs.StringVar(&config.Interpolation, "interpolation", config.Interpolation, "интерполяция: nearest, approx-bilinear, bilinear, catmull-rom")
	fs.StringVar(&config.Output, "output", config.Output, "файл для снимка в режиме -snap")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "включить отладочные сообщения")
	fs.StringVar(&config.LogFile, "log-file", config.LogFile, "файл лога с ротацией")
	fs.BoolVar(&config.ListDevices, "list-devices", false, "показать список доступных камер и выйти")
	fs.BoolVar(&config.Snap, "snap", false, "сделать один снимок без страницы и выйти")
	fs.StringVar(&config.ConfigPath, "config", "", "путь к YAML файлу конфигурации")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if config.ConfigPath != "" {
		explicit := map[string]string{}
		fs.Visit(func(f *flag.Flag) {
			explicit[f.Name] = f.Value.String()
		})

		if err := config.loadFile(config.ConfigPath); err != nil {
			return nil, err
		}
		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return nil, fmt.Errorf("флаг -%s: %w", name, err)
			}
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ошибка чтения конфигурации: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}
	return nil
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("размер видео должен быть положительным: %dx%d", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("частота кадров должна быть положительной: %d", c.FPS))
	}
	if c.PreviewFPS <= 0 {
		errs = append(errs, fmt.Errorf("частота превью должна быть положительной: %d", c.PreviewFPS))
	}
	if c.DisplayWidth <= 0 || c.DisplayHeight <= 0 {
		errs = append(errs, fmt.Errorf("размер области показа должен быть положительным: %gx%g", c.DisplayWidth, c.DisplayHeight))
	}
	if _, err := canvas.ParseInterpolator(c.Interpolation); err != nil {
		errs = append(errs, err)
	}
	if c.Snap && c.Output == "" {
		errs = append(errs, errors.New("для -snap нужен -output"))
	}
	return errors.Join(errs...)
}

// VideoConfig параметры камеры
func (c *Config) VideoConfig() domain.VideoConfig {
	return domain.VideoConfig{
		Width:     c.Width,
		Height:    c.Height,
		FrameRate: c.FPS,
		DeviceID:  c.DeviceID,
	}
}
