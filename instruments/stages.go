package instruments

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iwtcode/probeStation/instruments/model"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/pkg/errors"
)

// Serial settings of the supported stage controllers.
var (
	ConexSerial = SerialConfig{Baud: 921600, Terminator: "\r\n"}
	GSC01Serial = SerialConfig{Baud: 9600, Terminator: "\r\n"}
)

const conexDevice = "conex-mfacc"

// Биты ошибок ответа 1TS, означающие концевой выключатель.
const (
	conexNegativeEndOfRun = 0x0001
	conexPositiveEndOfRun = 0x0002
)

// ConexMFACC - актуатор Newport CONEX-MFA-CC, адрес контроллера 1.
type ConexMFACC struct {
	conn model.Conn
}

var _ model.Stage = (*ConexMFACC)(nil)

func NewConexMFACC(conn model.Conn) *ConexMFACC {
	return &ConexMFACC{conn: conn}
}

func (c *ConexMFACC) MoveAbsolute(position float64) error {
	cmd := fmt.Sprintf("1PA%.6f", position)
	if err := c.conn.Write(cmd); err != nil {
		return &apperrors.DeviceError{Device: conexDevice, Command: cmd, Err: err}
	}
	return nil
}

func (c *ConexMFACC) Position() (float64, error) {
	resp, err := c.conn.Query("1TP")
	if err != nil {
		return 0, &apperrors.DeviceError{Device: conexDevice, Command: "1TP", Err: err}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(resp, "1TP")), 64)
	if err != nil {
		return 0, &apperrors.DeviceError{Device: conexDevice, Command: "1TP", Err: errors.Wrapf(err, "position %q", resp)}
	}
	return v, nil
}

// state возвращает слово ошибок и код состояния контроллера.
func (c *ConexMFACC) state() (uint64, string, error) {
	resp, err := c.conn.Query("1TS")
	if err != nil {
		return 0, "", &apperrors.DeviceError{Device: conexDevice, Command: "1TS", Err: err}
	}
	s := strings.TrimSpace(strings.TrimPrefix(resp, "1TS"))
	if len(s) < 6 {
		return 0, "", &apperrors.DeviceError{Device: conexDevice, Command: "1TS", Err: errors.Errorf("short state %q", resp)}
	}
	flags, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, "", &apperrors.DeviceError{Device: conexDevice, Command: "1TS", Err: errors.Wrapf(err, "error flags %q", s[:4])}
	}
	return flags, s[4:6], nil
}

// IsMoving: состояния 28 (движение) и 1E (поиск нуля).
func (c *ConexMFACC) IsMoving() (bool, error) {
	_, st, err := c.state()
	if err != nil {
		return false, err
	}
	return st == "28" || st == "1E", nil
}

func (c *ConexMFACC) LimitTriggered() (bool, string, error) {
	flags, st, err := c.state()
	if err != nil {
		return false, "", err
	}
	raw := fmt.Sprintf("%04X%s", flags, st)
	return flags&(conexNegativeEndOfRun|conexPositiveEndOfRun) != 0, raw, nil
}

func (c *ConexMFACC) Close() error {
	return c.conn.Close()
}

const gscDevice = "gsc-01"

// GSC01 - контроллер шагового двигателя OptoSigma GSC-01. Позиция задается в импульсах,
// PulsesPerUnit переводит единицы столика в импульсы.
type GSC01 struct {
	conn          model.Conn
	pulsesPerUnit float64
}

var _ model.Stage = (*GSC01)(nil)

func NewGSC01(conn model.Conn, pulsesPerUnit float64) *GSC01 {
	if pulsesPerUnit <= 0 {
		pulsesPerUnit = 1
	}
	return &GSC01{conn: conn, pulsesPerUnit: pulsesPerUnit}
}

func (g *GSC01) command(cmd string) error {
	resp, err := g.conn.Query(cmd)
	if err != nil {
		return &apperrors.DeviceError{Device: gscDevice, Command: cmd, Err: err}
	}
	if strings.TrimSpace(resp) != "OK" {
		return &apperrors.DeviceError{Device: gscDevice, Command: cmd, Err: errors.Errorf("command rejected: %q", resp)}
	}
	return nil
}

func (g *GSC01) MoveAbsolute(position float64) error {
	pulses := int64(math.Round(position * g.pulsesPerUnit))
	sign := "+"
	if pulses < 0 {
		sign = "-"
		pulses = -pulses
	}
	if err := g.command(fmt.Sprintf("A:1%sP%d", sign, pulses)); err != nil {
		return err
	}
	return g.command("G:")
}

// status разбирает ответ Q: вида "   1000,K,K,R".
func (g *GSC01) status() (int64, []string, error) {
	resp, err := g.conn.Query("Q:")
	if err != nil {
		return 0, nil, &apperrors.DeviceError{Device: gscDevice, Command: "Q:", Err: err}
	}
	parts := strings.Split(resp, ",")
	if len(parts) < 4 {
		return 0, nil, &apperrors.DeviceError{Device: gscDevice, Command: "Q:", Err: errors.Errorf("unexpected status %q", resp)}
	}
	pos, err := strconv.ParseInt(strings.ReplaceAll(parts[0], " ", ""), 10, 64)
	if err != nil {
		return 0, nil, &apperrors.DeviceError{Device: gscDevice, Command: "Q:", Err: errors.Wrapf(err, "position %q", parts[0])}
	}
	flags := make([]string, 3)
	for i := range flags {
		flags[i] = strings.TrimSpace(parts[i+1])
	}
	return pos, flags, nil
}

func (g *GSC01) Position() (float64, error) {
	pos, _, err := g.status()
	if err != nil {
		return 0, err
	}
	return float64(pos) / g.pulsesPerUnit, nil
}

func (g *GSC01) IsMoving() (bool, error) {
	_, flags, err := g.status()
	if err != nil {
		return false, err
	}
	return flags[2] == "B", nil
}

func (g *GSC01) LimitTriggered() (bool, string, error) {
	_, flags, err := g.status()
	if err != nil {
		return false, "", err
	}
	return flags[1] == "L", strings.Join(flags, ","), nil
}

func (g *GSC01) Close() error {
	return g.conn.Close()
}
