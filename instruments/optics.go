package instruments

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/pkg/errors"
)

// Serial settings of the optical setup controllers.
var (
	MCLS1Serial   = SerialConfig{Baud: 115200, Terminator: "\r"}
	ShutterSerial = SerialConfig{Baud: 115200, Terminator: "\n"}
	TenmaSerial   = SerialConfig{Baud: 9600}
)

const mclsDevice = "mcls1"

// MCLS1 - четырехканальный лазерный источник Thorlabs MCLS1.
// Прибор повторяет текст команды в первой строке ответа.
type MCLS1 struct {
	conn model.LineConn
}

var _ model.Laser = (*MCLS1)(nil)

func NewMCLS1(conn model.LineConn) *MCLS1 {
	return &MCLS1{conn: conn}
}

func (m *MCLS1) write(cmd string) error {
	if err := m.conn.Write(cmd); err != nil {
		return &apperrors.DeviceError{Device: mclsDevice, Command: cmd, Err: err}
	}
	return nil
}

func (m *MCLS1) query(cmd string) (string, error) {
	if _, err := m.conn.Query(cmd); err != nil {
		return "", &apperrors.DeviceError{Device: mclsDevice, Command: cmd, Err: err}
	}
	resp, err := m.conn.ReadLine()
	if err != nil {
		return "", &apperrors.DeviceError{Device: mclsDevice, Command: cmd, Err: err}
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(resp), ">")), nil
}

func (m *MCLS1) queryFloat(cmd string) (float64, error) {
	resp, err := m.query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(resp, 64)
	if err != nil {
		return 0, &apperrors.DeviceError{Device: mclsDevice, Command: cmd, Err: errors.Wrapf(err, "value %q", resp)}
	}
	return v, nil
}

func (m *MCLS1) SetSystemEnabled(on bool) error {
	return m.write(fmt.Sprintf("system=%d", boolInt(on)))
}

func (m *MCLS1) SetChannel(ch int) error {
	return m.write(fmt.Sprintf("channel=%d", ch))
}

func (m *MCLS1) SetEnabled(on bool) error {
	return m.write(fmt.Sprintf("enable=%d", boolInt(on)))
}

// SetCurrent задает ток активного канала в мА.
func (m *MCLS1) SetCurrent(mA float64) error {
	return m.write(fmt.Sprintf("current=%s", formatFloat(mA)))
}

func (m *MCLS1) SetTargetTemperature(c float64) error {
	if c < 20 || c > 30 {
		return apperrors.Configurationf("laser_temperature", "target %.2f outside 20..30 C", c)
	}
	return m.write(fmt.Sprintf("target=%s", formatFloat(c)))
}

// Status снимает состояние активного канала.
func (m *MCLS1) Status() (models.LaserStatus, error) {
	var st models.LaserStatus
	word, err := m.query("statword?")
	if err != nil {
		return st, err
	}
	st.EnabledChannels = word
	ch, err := m.queryFloat("channel?")
	if err != nil {
		return st, err
	}
	st.ActiveChannel = int(ch)
	if st.Power, err = m.queryFloat("power?"); err != nil {
		return st, err
	}
	if st.Current, err = m.queryFloat("current?"); err != nil {
		return st, err
	}
	if st.Temperature, err = m.queryFloat("temp?"); err != nil {
		return st, err
	}
	return st, nil
}

func (m *MCLS1) Close() error {
	return m.conn.Close()
}

const shutterDevice = "shutter-controller"

// ShutterController - Arduino-контроллер соленоидных затворов; Pin выбирает затвор.
type ShutterController struct {
	conn model.Conn
	pin  int
}

var _ model.Shutter = (*ShutterController)(nil)

func NewShutterController(conn model.Conn, pin int) *ShutterController {
	return &ShutterController{conn: conn, pin: pin}
}

func (s *ShutterController) send(action string) error {
	cmd := fmt.Sprintf("%s,%d", action, s.pin)
	if err := s.conn.Write(cmd); err != nil {
		return &apperrors.DeviceError{Device: shutterDevice, Command: cmd, Err: err}
	}
	return nil
}

func (s *ShutterController) OpenShutter() error  { return s.send("open") }
func (s *ShutterController) CloseShutter() error { return s.send("close") }
func (s *ShutterController) Enable() error       { return s.send("enable") }
func (s *ShutterController) Disable() error      { return s.send("disable") }

// IsOpen читает status?: по одной цифре на затвор в порядке возрастания номеров выводов.
// Контроллер обслуживает выводы начиная со второго.
func (s *ShutterController) IsOpen() (bool, error) {
	resp, err := s.conn.Query("status?")
	if err != nil {
		return false, &apperrors.DeviceError{Device: shutterDevice, Command: "status?", Err: err}
	}
	digits := strings.NewReplacer(",", "", " ", "").Replace(resp)
	idx := s.pin - 2
	if idx < 0 || idx >= len(digits) {
		return false, &apperrors.DeviceError{Device: shutterDevice, Command: "status?", Err: errors.Errorf("no state for pin %d in %q", s.pin, resp)}
	}
	return digits[idx] == '1', nil
}

func (s *ShutterController) Close() error {
	return s.conn.Close()
}

const tenmaDevice = "tenma-72-2705"

// Tenma722705 - одноканальный источник питания.
type Tenma722705 struct {
	conn model.Conn
}

var _ model.PowerSupply = (*Tenma722705)(nil)

func NewTenma722705(conn model.Conn) *Tenma722705 {
	return &Tenma722705{conn: conn}
}

func (t *Tenma722705) write(cmd string) error {
	if err := t.conn.Write(cmd); err != nil {
		return &apperrors.DeviceError{Device: tenmaDevice, Command: cmd, Err: err}
	}
	return nil
}

func (t *Tenma722705) queryFloat(cmd string) (float64, error) {
	resp, err := t.conn.Query(cmd)
	if err != nil {
		return 0, &apperrors.DeviceError{Device: tenmaDevice, Command: cmd, Err: err}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return 0, &apperrors.DeviceError{Device: tenmaDevice, Command: cmd, Err: errors.Wrapf(err, "value %q", resp)}
	}
	return v, nil
}

func (t *Tenma722705) SetCurrent(a float64) error {
	return t.write(fmt.Sprintf("ISET1:%.3f", a))
}

func (t *Tenma722705) SetVoltage(v float64) error {
	return t.write(fmt.Sprintf("VSET1:%.2f", v))
}

// Current - измеренный выходной ток, А.
func (t *Tenma722705) Current() (float64, error) { return t.queryFloat("IOUT1?") }

// Voltage - измеренное выходное напряжение, В.
func (t *Tenma722705) Voltage() (float64, error) { return t.queryFloat("VOUT1?") }

func (t *Tenma722705) Close() error {
	return t.conn.Close()
}
