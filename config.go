package probestation

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Транспорты SMU.
const (
	TransportGPIB   = "gpib"
	TransportVISA   = "visa"
	TransportSerial = "serial"
)

// Драйверы осей столика.
const (
	StageConex = "conex"
	StageGSC01 = "gsc01"
)

// Config хранит модель конфигурации стенда
type Config struct {
	LogLevel string
	// Simulate подменяет все приборы имитаторами из instruments/sim.
	Simulate bool

	SMU     SMUConfig
	StageX  StageConfig
	StageY  StageConfig
	Laser   SerialDevice
	Shutter ShutterConfig

	// MotionPoll - интервал опроса окончания движения столика.
	MotionPoll time.Duration
	// DataFile - журнал результатов; пустая строка - результаты только в памяти.
	DataFile string
	// PlotDir - каталог для PNG-графиков кривых; пустая строка отключает графики.
	PlotDir string
}

// SMUConfig - подключение источника-измерителя и назначение его каналов.
type SMUConfig struct {
	Transport   string
	Address     string
	GPIBAddress int
	ChannelGS   string
	ChannelDS   string
}

// SerialDevice - прибор на последовательном порту. Нулевая скорость - скорость драйвера по умолчанию.
type SerialDevice struct {
	Port string
	Baud int
}

// StageConfig - одна ось столика.
type StageConfig struct {
	Driver string
	SerialDevice
	SoftMin       float64
	SoftMax       float64
	PulsesPerUnit float64
}

// ShutterConfig - контроллер затвора и номер его выхода.
type ShutterConfig struct {
	SerialDevice
	Pin int
}

// Load загружает конфигурацию из переменных окружения (.env учитывается)
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Simulate: getEnvAsBool("INSTRUMENTS_SIMULATE", false),
		SMU: SMUConfig{
			Transport:   strings.ToLower(getEnv("SMU_TRANSPORT", TransportGPIB)),
			Address:     getEnv("SMU_ADDRESS", "/dev/ttyUSB0"),
			GPIBAddress: getEnvAsInt("SMU_GPIB_ADDRESS", 26),
			ChannelGS:   getEnv("SMU_CHANNEL_GS", "a"),
			ChannelDS:   getEnv("SMU_CHANNEL_DS", "b"),
		},
		StageX: loadStage("STAGE_X", StageConex, "/dev/ttyUSB1"),
		StageY: loadStage("STAGE_Y", StageGSC01, "/dev/ttyUSB2"),
		Laser: SerialDevice{
			Port: getEnv("LASER_PORT", "/dev/ttyUSB3"),
			Baud: getEnvAsInt("LASER_BAUD", 0),
		},
		Shutter: ShutterConfig{
			SerialDevice: SerialDevice{
				Port: getEnv("SHUTTER_PORT", "/dev/ttyACM0"),
				Baud: getEnvAsInt("SHUTTER_BAUD", 0),
			},
			Pin: getEnvAsInt("SHUTTER_PIN", 3),
		},
		MotionPoll: time.Duration(getEnvAsInt("MOTION_POLL_MS", 10)) * time.Millisecond,
		DataFile:   getEnv("DATA_FILE", "./data/probe_station.jsonl"),
		PlotDir:    getEnv("PLOT_DIR", ""),
	}
}

func loadStage(prefix, driver, port string) StageConfig {
	return StageConfig{
		Driver: strings.ToLower(getEnv(prefix+"_DRIVER", driver)),
		SerialDevice: SerialDevice{
			Port: getEnv(prefix+"_PORT", port),
			Baud: getEnvAsInt(prefix+"_BAUD", 0),
		},
		SoftMin:       getEnvAsFloat(prefix+"_SOFT_MIN", 0),
		SoftMax:       getEnvAsFloat(prefix+"_SOFT_MAX", 0),
		PulsesPerUnit: getEnvAsFloat(prefix+"_PULSES_PER_UNIT", 1),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(name string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(name, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, _ := strconv.ParseBool(value)
	return val
}
