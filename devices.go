package probestation

import (
	"io"

	"github.com/iwtcode/probeStation/instruments"
	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/iwtcode/probeStation/instruments/sim"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Devices - приборы стенда. Любой из оптических приборов может отсутствовать.
type Devices struct {
	SMU     model.SourceMeter
	X       model.Stage
	Y       model.Stage
	Laser   model.Laser
	Shutter model.Shutter
}

func (d Devices) closers() []io.Closer {
	var out []io.Closer
	for _, c := range []io.Closer{d.SMU, d.X, d.Y, d.Laser, d.Shutter} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// SimulatedDevices возвращает имитаторы всех приборов; затвор и сток модели
// транзистора подключены к каналам из конфигурации.
func SimulatedDevices(cfg *Config) Devices {
	fet := sim.DefaultFET()
	fet.Gate, fet.Drain = cfg.SMU.ChannelGS, cfg.SMU.ChannelDS
	return Devices{
		SMU:     sim.NewSMU(fet),
		X:       sim.NewStage(-25, 25),
		Y:       sim.NewStage(-25, 25),
		Laser:   sim.NewLaser(),
		Shutter: sim.NewShutter(),
	}
}

// OpenDevices подключает реальные приборы. При ошибке уже открытые соединения закрываются.
func OpenDevices(cfg *Config, logger logrus.FieldLogger) (dev Devices, err error) {
	defer func() {
		if err != nil {
			for _, c := range dev.closers() {
				_ = c.Close()
			}
			dev = Devices{}
		}
	}()

	smuConn, err := openSMUConn(cfg.SMU)
	if err != nil {
		return dev, err
	}
	k, err := instruments.NewKeithley2600(smuConn)
	if err != nil {
		_ = smuConn.Close()
		return dev, err
	}
	dev.SMU = k
	logger.WithField("transport", cfg.SMU.Transport).Info("source meter connected")

	if dev.X, err = openStage(cfg.StageX); err != nil {
		return dev, err
	}
	if dev.Y, err = openStage(cfg.StageY); err != nil {
		return dev, err
	}

	if cfg.Laser.Port != "" {
		conn, err := instruments.OpenSerial(serialConfig(instruments.MCLS1Serial, cfg.Laser))
		if err != nil {
			return dev, err
		}
		dev.Laser = instruments.NewMCLS1(conn)
	}
	if cfg.Shutter.Port != "" {
		conn, err := instruments.OpenSerial(serialConfig(instruments.ShutterSerial, cfg.Shutter.SerialDevice))
		if err != nil {
			return dev, err
		}
		dev.Shutter = instruments.NewShutterController(conn, cfg.Shutter.Pin)
	}
	return dev, nil
}

func openSMUConn(cfg SMUConfig) (model.Conn, error) {
	switch cfg.Transport {
	case TransportGPIB:
		return instruments.OpenGPIB(cfg.Address, cfg.GPIBAddress)
	case TransportVISA:
		return instruments.OpenVISA(cfg.Address)
	case TransportSerial:
		return instruments.OpenSerial(instruments.SerialConfig{Port: cfg.Address, Baud: 115200, Terminator: "\n"})
	default:
		return nil, apperrors.Configurationf("smu_transport", "unknown transport %q", cfg.Transport)
	}
}

func openStage(cfg StageConfig) (model.Stage, error) {
	switch cfg.Driver {
	case StageConex:
		conn, err := instruments.OpenSerial(serialConfig(instruments.ConexSerial, cfg.SerialDevice))
		if err != nil {
			return nil, err
		}
		return instruments.NewConexMFACC(conn), nil
	case StageGSC01:
		conn, err := instruments.OpenSerial(serialConfig(instruments.GSC01Serial, cfg.SerialDevice))
		if err != nil {
			return nil, err
		}
		return instruments.NewGSC01(conn, cfg.PulsesPerUnit), nil
	default:
		return nil, apperrors.Configurationf("stage_driver", "unknown stage driver %q", cfg.Driver)
	}
}

func serialConfig(base instruments.SerialConfig, dev SerialDevice) instruments.SerialConfig {
	base.Port = dev.Port
	if dev.Baud > 0 {
		base.Baud = dev.Baud
	}
	return base
}
