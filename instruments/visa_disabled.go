//go:build !visa

package instruments

import (
	"github.com/iwtcode/probeStation/instruments/model"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
)

// OpenVISA недоступен без тега сборки visa.
func OpenVISA(resource string) (model.Conn, error) {
	return nil, apperrors.Configurationf("smu_transport", "binary built without VISA support (build tag visa), cannot open %q", resource)
}
