package experiments

import (
	"fmt"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxPointGroups = 99

// LaserScanConfig - приборы сканирования с лазерной засветкой.
type LaserScanConfig struct {
	Grid    *GridScanEngine
	Sweep   *SweepEngine
	Laser   model.Laser
	Shutter model.Shutter
	X       model.Axis
	Y       model.Axis
	Clock   Clock
	Logger  logrus.FieldLogger
}

// LaserScan в каждой точке сетки снимает две развертки: с закрытым и открытым затвором.
type LaserScan struct {
	cfg LaserScanConfig
}

func NewLaserScan(cfg LaserScanConfig) *LaserScan {
	cfg.Clock = clockOrSystem(cfg.Clock)
	cfg.Logger = loggerOrDiscard(cfg.Logger)
	return &LaserScan{cfg: cfg}
}

// Start запускает сканирование; лазер выключается по окончании.
func (s *LaserScan) Start(parent *Token, req models.GridRequest, sink datafile.Group) (*Task, error) {
	return s.cfg.Grid.Start(parent, s.GridRun(req, sink, true))
}

// GridRun собирает запуск сканирования. ownsLaser=false оставляет лазер включенным
// после сканирования: им распоряжается параметрическая развертка.
func (s *LaserScan) GridRun(req models.GridRequest, sink datafile.Group, ownsLaser bool) GridRun {
	req = req.WithDefaults()
	run := GridRun{
		Request: req,
		Sink:    sink,
		Measure: func(p GridPoint) error { return s.measurePoint(p, req) },
		Attrs: []datafile.Attr{
			{Name: "shutter_cooling_delay", Value: req.CoolingDelay},
		},
		Hooks: GridHooks{
			BeforeScan: func(scan datafile.Group) error { return s.prepareLaser(scan, req) },
		},
		Check: func() error {
			if s.cfg.Sweep == nil {
				return apperrors.Configurationf("sweep", "laser scan needs a sweep engine")
			}
			return s.cfg.Sweep.Validate(req.Sweep)
		},
	}
	if ownsLaser {
		run.Hooks.AfterScan = s.DisableLaser
	}
	return run
}

func (s *LaserScan) prepareLaser(scan datafile.Group, req models.GridRequest) error {
	if s.cfg.Laser == nil {
		return nil
	}
	if err := s.cfg.Laser.SetSystemEnabled(true); err != nil {
		return err
	}
	if err := s.cfg.Laser.SetChannel(req.LaserChannel); err != nil {
		return err
	}
	if err := s.cfg.Laser.SetEnabled(true); err != nil {
		return err
	}
	s.cfg.Clock.Sleep(models.Seconds(req.LaserWarmup))
	if scan == nil {
		return nil
	}
	return s.saveLaserAttrs(scan)
}

func (s *LaserScan) saveLaserAttrs(g datafile.Group) error {
	st, err := s.cfg.Laser.Status()
	if err != nil {
		return err
	}
	return setAttrs(g, []datafile.Attr{
		{Name: "enabled_channels", Value: st.EnabledChannels},
		{Name: "active_channel", Value: st.ActiveChannel},
		{Name: "power", Value: st.Power},
		{Name: "current", Value: st.Current},
		{Name: "temperature", Value: st.Temperature},
	})
}

// DisableLaser выключает канал и систему лазера.
func (s *LaserScan) DisableLaser() error {
	if s.cfg.Laser == nil {
		return nil
	}
	if err := s.cfg.Laser.SetEnabled(false); err != nil {
		return err
	}
	return s.cfg.Laser.SetSystemEnabled(false)
}

func (s *LaserScan) measurePoint(p GridPoint, req models.GridRequest) (err error) {
	if s.cfg.Shutter == nil {
		return apperrors.Configurationf("shutter", "laser scan needs a shutter")
	}
	defer func() {
		if err != nil {
			if closeErr := s.cfg.Shutter.CloseShutter(); closeErr != nil {
				s.cfg.Logger.WithError(closeErr).Warn("close shutter after failure")
			}
		}
	}()
	var point datafile.Group
	if p.Scan != nil {
		name, nameErr := p.Scan.UniqueName(p.Label, maxPointGroups)
		if nameErr != nil {
			return nameErr
		}
		if point, err = p.Scan.CreateGroup(name); err != nil {
			return err
		}
		if err := setAttrs(point, []datafile.Attr{
			{Name: fmt.Sprintf("%s_nominal", p.Primary.Name()), Value: p.PrimaryValue},
			{Name: fmt.Sprintf("%s_nominal", p.Secondary.Name()), Value: p.SecondaryValue},
		}); err != nil {
			return err
		}
	}

	phases := []struct {
		name string
		on   bool
	}{{"laser_OFF", false}, {"laser_ON", true}}
	for _, ph := range phases {
		if !p.Token.Running() {
			break
		}
		if err := s.setShutter(ph.on); err != nil {
			return err
		}
		var sink datafile.Group
		if point != nil {
			g, err := point.CreateGroup(ph.name)
			if err != nil {
				return err
			}
			open, err := s.cfg.Shutter.IsOpen()
			if err != nil {
				return err
			}
			if err := setAttrs(g, []datafile.Attr{
				{Name: "laser_ON", Value: int(models.BoolValue(ph.on))},
				{Name: "shutter_state", Value: open},
			}); err != nil {
				return err
			}
			sink = g
		}
		task, err := s.cfg.Sweep.Start(p.Token, req.Sweep, sink)
		if err != nil {
			return err
		}
		if err := task.Wait(); err != nil {
			return err
		}
	}
	if err := s.cfg.Shutter.CloseShutter(); err != nil {
		return err
	}

	if point != nil {
		if err := s.saveMeasuredPosition(point); err != nil {
			return err
		}
	}
	s.cfg.Clock.Sleep(models.Seconds(req.CoolingDelay))
	return nil
}

func (s *LaserScan) setShutter(open bool) error {
	if open {
		return s.cfg.Shutter.OpenShutter()
	}
	return s.cfg.Shutter.CloseShutter()
}

func (s *LaserScan) saveMeasuredPosition(point datafile.Group) error {
	for _, axis := range []model.Axis{s.cfg.X, s.cfg.Y} {
		if axis == nil {
			continue
		}
		pos, err := axis.Position()
		if err != nil {
			return err
		}
		if err := point.SetAttr(fmt.Sprintf("%s_measured", axis.Name()), pos); err != nil {
			return err
		}
	}
	return nil
}

// ParameterRun собирает параметрическую развертку вокруг сканирования:
// ток лазера задается перед каждым сканированием, задержка подставляется в запрос.
func (s *LaserScan) ParameterRun(req models.ParameterSweepRequest, sink datafile.Group) (ParameterRun, error) {
	values, err := ParameterValues(req)
	if err != nil {
		return ParameterRun{}, err
	}
	grid := req.Grid.WithDefaults()
	// все значения сканируют одну и ту же сетку, поэтому достаточно одной проверки
	if err := s.cfg.Grid.Validate(s.GridRun(grid, sink, false)); err != nil {
		return ParameterRun{}, err
	}
	run := ParameterRun{
		Values: values,
		Grid: func(parent *Token, v float64) (*Task, error) {
			r := grid
			if req.Parameter == models.ParameterGridDelay {
				r.PointDelay = v
			}
			return s.cfg.Grid.Start(parent, s.GridRun(r, sink, false))
		},
		Cleanup: s.DisableLaser,
	}
	if req.Parameter == models.ParameterLaserCurrent {
		if s.cfg.Laser == nil {
			return ParameterRun{}, apperrors.Configurationf("laser", "laser current sweep needs a laser")
		}
		run.Apply = s.cfg.Laser.SetCurrent
	}
	return run, nil
}
