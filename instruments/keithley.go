// Управление источником-измерителем Keithley серии 2600 через TSP.

package instruments

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwtcode/probeStation/instruments/model"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/pkg/errors"
)

const keithleyDevice = "keithley2600"

// Keithley2600 - двухканальный SMU, каналы "a" и "b".
type Keithley2600 struct {
	conn model.Conn
}

var _ model.ScriptedSourceMeter = (*Keithley2600)(nil)

// NewKeithley2600 сбрасывает прибор и возвращает драйвер.
func NewKeithley2600(conn model.Conn) (*Keithley2600, error) {
	k := &Keithley2600{conn: conn}
	if err := k.Reset(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Keithley2600) write(format string, args ...interface{}) error {
	cmd := fmt.Sprintf(format, args...)
	if err := k.conn.Write(cmd); err != nil {
		return &apperrors.DeviceError{Device: keithleyDevice, Command: cmd, Err: err}
	}
	return nil
}

func (k *Keithley2600) query(format string, args ...interface{}) (string, error) {
	cmd := fmt.Sprintf(format, args...)
	resp, err := k.conn.Query(cmd)
	if err != nil {
		return "", &apperrors.DeviceError{Device: keithleyDevice, Command: cmd, Err: err}
	}
	return resp, nil
}

func (k *Keithley2600) Reset() error {
	return k.write("reset()")
}

func (k *Keithley2600) SetSourceFunction(ch string, fn model.SourceFunction) error {
	return k.write("smu%s.source.func = %d", ch, fn)
}

// SetLevel задает уровень источника; quantity - "v" или "i".
func (k *Keithley2600) SetLevel(ch string, quantity string, value float64) error {
	return k.write("smu%s.source.level%s = %s", ch, quantity, formatFloat(value))
}

func (k *Keithley2600) SetLimit(ch string, quantity string, value float64) error {
	return k.write("smu%s.source.limit%s = %s", ch, quantity, formatFloat(value))
}

func (k *Keithley2600) SetOutput(ch string, on bool) error {
	return k.write("smu%s.source.output = %d", ch, boolInt(on))
}

// MeasureIV возвращает ток и напряжение канала.
func (k *Keithley2600) MeasureIV(ch string) (float64, float64, error) {
	cmd := fmt.Sprintf("print(smu%s.measure.iv())", ch)
	resp, err := k.query("%s", cmd)
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(strings.ReplaceAll(resp, ",", " "))
	if len(fields) != 2 {
		return 0, 0, &apperrors.DeviceError{Device: keithleyDevice, Command: cmd, Err: errors.Errorf("unexpected response %q", resp)}
	}
	current, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, &apperrors.DeviceError{Device: keithleyDevice, Command: cmd, Err: errors.Wrap(err, "conversion for current value failed")}
	}
	voltage, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, &apperrors.DeviceError{Device: keithleyDevice, Command: cmd, Err: errors.Wrap(err, "conversion for voltage value failed")}
	}
	return current, voltage, nil
}

func (k *Keithley2600) Compliance(ch string) (bool, error) {
	resp, err := k.query("print(smu%s.source.compliance)", ch)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(resp), "true"), nil
}

var keithleySettingKeys = []string{
	"source.func",
	"source.limiti",
	"source.limitv",
	"source.rangev",
	"measure.nplc",
	"measure.autorangei",
}

// Settings опрашивает основные настройки обоих каналов.
func (k *Keithley2600) Settings() ([]model.Setting, error) {
	var out []model.Setting
	for _, ch := range []string{"a", "b"} {
		for _, key := range keithleySettingKeys {
			resp, err := k.query("print(smu%s.%s)", ch, key)
			if err != nil {
				return nil, err
			}
			name := fmt.Sprintf("%s_%s", ch, strings.ReplaceAll(key, ".", "_"))
			out = append(out, model.Setting{Key: name, Value: strings.TrimSpace(resp)})
		}
	}
	return out, nil
}

// LoadListSweep загружает скрипт, который проходит список уставок основного канала
// и на каждом шаге измеряет оба канала в nvbuffer1 (ток) и nvbuffer2 (напряжение).
func (k *Keithley2600) LoadListSweep(name string, sw model.ListSweep) error {
	if len(sw.Values) == 0 {
		return apperrors.Configurationf("script", "empty sweep for script %s", name)
	}
	for _, line := range listSweepScript(name, sw) {
		if err := k.write("%s", line); err != nil {
			return err
		}
	}
	return nil
}

func listSweepScript(name string, sw model.ListSweep) []string {
	values := make([]string, len(sw.Values))
	for i, v := range sw.Values {
		values[i] = formatFloat(v)
	}
	p := "smu" + sw.Channel
	lines := []string{
		"loadscript " + name,
		"display.screen = display.SMUA_SMUB",
	}
	channels := []string{p}
	if sw.Secondary != "" {
		channels = append(channels, "smu"+sw.Secondary)
	}
	for _, c := range channels {
		lines = append(lines,
			c+".nvbuffer1.clear()",
			c+".nvbuffer2.clear()",
			c+".nvbuffer1.collecttimestamps = 1",
			c+".nvbuffer1.collectsourcevalues = 1",
			c+".trigger.measure.iv("+c+".nvbuffer1, "+c+".nvbuffer2)",
			c+".trigger.measure.action = "+c+".ENABLE",
			fmt.Sprintf("%s.trigger.count = %d", c, len(sw.Values)),
		)
	}
	lines = append(lines,
		p+".trigger.source.listv({"+strings.Join(values, ", ")+"})",
		p+".trigger.source.action = "+p+".ENABLE",
		fmt.Sprintf("%s.measure.delay = %s", p, formatFloat(sw.Delay)),
		p+".source.output = 1",
	)
	if sw.Secondary != "" {
		s := "smu" + sw.Secondary
		lines = append(lines,
			s+".trigger.source.action = "+s+".DISABLE",
			s+".trigger.endpulse.stimulus = 0",
			s+".trigger.measure.stimulus = "+p+".trigger.MEASURE_COMPLETE_EVENT_ID",
			s+".trigger.initiate()",
		)
	}
	lines = append(lines,
		p+".trigger.initiate()",
		"waitcomplete()",
		"endscript",
	)
	return lines
}

// RunScript запускает загруженный скрипт и ждет его завершения.
func (k *Keithley2600) RunScript(name string) error {
	if err := k.write("%s()", name); err != nil {
		return err
	}
	resp, err := k.query("waitcomplete() print(1)")
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp) != "1" {
		return &apperrors.DeviceError{Device: keithleyDevice, Command: name + "()", Err: errors.Errorf("unexpected completion marker %q", resp)}
	}
	return nil
}

// ReadBuffer читает колонки буфера nvbuffer{buffer} канала.
func (k *Keithley2600) ReadBuffer(ch string, buffer int, fields ...model.BufferField) (map[model.BufferField][]float64, error) {
	buf := fmt.Sprintf("smu%s.nvbuffer%d", ch, buffer)
	out := make(map[model.BufferField][]float64, len(fields))
	for _, f := range fields {
		cmd := fmt.Sprintf("printbuffer(1, %s.n, %s.%s)", buf, buf, f)
		resp, err := k.query("%s", cmd)
		if err != nil {
			return nil, err
		}
		values, err := parseFloatList(resp)
		if err != nil {
			return nil, &apperrors.DeviceError{Device: keithleyDevice, Command: cmd, Err: err}
		}
		out[f] = values
	}
	return out, nil
}

func (k *Keithley2600) Close() error {
	return k.conn.Close()
}

func parseFloatList(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []float64{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "buffer value %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
