package instruments

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gotmc/prologix"
	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// SerialConfig - параметры последовательного порта прибора.
type SerialConfig struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
	// Terminator добавляется к каждой команде и завершает строку ответа.
	// Пустой терминатор означает, что ответ читается одним блоком.
	Terminator string
}

// lineConn - строковый обмен поверх произвольного потока.
type lineConn struct {
	mu     sync.Mutex
	rw     io.ReadWriteCloser
	reader *bufio.Reader
	term   string
}

var _ model.LineConn = (*lineConn)(nil)

// NewLineConn оборачивает поток в строковый канал с заданным терминатором.
func NewLineConn(rw io.ReadWriteCloser, terminator string) model.LineConn {
	return &lineConn{rw: rw, reader: bufio.NewReader(rw), term: terminator}
}

// OpenSerial открывает последовательный порт.
func OpenSerial(cfg SerialConfig) (model.LineConn, error) {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = time.Second
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", cfg.Port)
	}
	return NewLineConn(port, cfg.Terminator), nil
}

func (c *lineConn) Write(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(cmd)
}

func (c *lineConn) Query(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.write(cmd); err != nil {
		return "", err
	}
	return c.readLine()
}

func (c *lineConn) ReadLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLine()
}

func (c *lineConn) Close() error {
	return c.rw.Close()
}

func (c *lineConn) write(cmd string) error {
	if _, err := io.WriteString(c.rw, cmd+c.term); err != nil {
		return errors.Wrapf(err, "write %q", cmd)
	}
	return nil
}

func (c *lineConn) readLine() (string, error) {
	if c.term == "" {
		buf := make([]byte, 256)
		n, err := c.reader.Read(buf)
		if err != nil && n == 0 {
			return "", errors.Wrap(err, "read response")
		}
		return strings.TrimSpace(string(buf[:n])), nil
	}
	delim := c.term[len(c.term)-1]
	line, err := c.reader.ReadString(delim)
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", errors.Wrap(err, "read response")
	}
	return strings.TrimSpace(strings.TrimSuffix(line, c.term)), nil
}

// gpibConn - обмен с прибором через контроллер Prologix GPIB-USB.
type gpibConn struct {
	mu   sync.Mutex
	port io.Closer
	ctrl *prologix.Controller
}

var _ model.Conn = (*gpibConn)(nil)

// OpenGPIB открывает виртуальный COM-порт контроллера Prologix и адресует прибор.
func OpenGPIB(port string, address int) (model.Conn, error) {
	sp, err := serial.OpenPort(&serial.Config{Name: port, Baud: 115200, ReadTimeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open prologix port %s", port)
	}
	ctrl, err := prologix.NewController(sp, address, false)
	if err != nil {
		_ = sp.Close()
		return nil, errors.Wrapf(err, "prologix controller for GPIB address %d", address)
	}
	return &gpibConn{port: sp, ctrl: ctrl}, nil
}

func (c *gpibConn) Write(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ctrl.Command(cmd); err != nil {
		return errors.Wrapf(err, "gpib write %q", cmd)
	}
	return nil
}

func (c *gpibConn) Query(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.ctrl.Query(cmd)
	if err != nil && err != io.EOF {
		return "", errors.Wrapf(err, "gpib query %q", cmd)
	}
	return strings.TrimSpace(resp), nil
}

func (c *gpibConn) Close() error {
	return c.port.Close()
}
