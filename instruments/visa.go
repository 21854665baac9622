//go:build visa

package instruments

import (
	"fmt"
	"strings"
	"sync"

	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/jpoirier/visa"
	"github.com/pkg/errors"
)

const visaBufferSize = 4096

// visaConn - обмен через NI-VISA (требует установленной библиотеки VISA и cgo).
type visaConn struct {
	mu    sync.Mutex
	rm    visa.Session
	instr visa.Object
}

// OpenVISA открывает ресурс VISA, например "USB0::0x05E6::0x2604::4101847::INSTR".
func OpenVISA(resource string) (model.Conn, error) {
	rm, status := visa.OpenDefaultRM()
	if status != visa.SUCCESS {
		return nil, errors.Wrap(fmt.Errorf("status %d", status), "open VISA resource manager")
	}
	instr, status := rm.Open(resource, uint32(visa.NULL), uint32(visa.NULL))
	if status != visa.SUCCESS {
		rm.Close()
		return nil, errors.Wrapf(visaStatusErr(instr, status), "connect to %q", resource)
	}
	return &visaConn{rm: rm, instr: instr}, nil
}

func (c *visaConn) Write(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(cmd)
}

func (c *visaConn) write(cmd string) error {
	line := cmd + "\n"
	_, status := c.instr.Write([]byte(line), uint32(len(line)))
	if status != visa.SUCCESS {
		return errors.Wrapf(visaStatusErr(c.instr, status), "writing %q", cmd)
	}
	return nil
}

func (c *visaConn) Query(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.write(cmd); err != nil {
		return "", err
	}
	buf, _, status := c.instr.Read(visaBufferSize)
	if status != visa.SUCCESS {
		return "", errors.Wrapf(visaStatusErr(c.instr, status), "reading response after %q", cmd)
	}
	return strings.TrimSpace(string(buf)), nil
}

func (c *visaConn) Close() error {
	c.instr.Close()
	c.rm.Close()
	return nil
}

func visaStatusErr(instr visa.Object, status visa.Status) error {
	desc, _ := instr.StatusDesc(status)
	if i := strings.Index(desc, "."); i > 0 {
		desc = desc[:i]
	}
	return fmt.Errorf("%d, %s", status, desc)
}
