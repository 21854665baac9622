package probestation

import (
	"bytes"
	"os"

	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RunFile - описание одного прогона в YAML. Заполняется ровно один из разделов;
// Kind можно не указывать, тогда он определяется по разделу.
type RunFile struct {
	Kind           string                        `yaml:"kind"`
	Sweep          *models.SweepRequest          `yaml:"sweep,omitempty"`
	Grid           *models.GridRequest           `yaml:"grid,omitempty"`
	ParameterSweep *models.ParameterSweepRequest `yaml:"parameter_sweep,omitempty"`
}

// LoadRunFile читает и проверяет файл прогона.
func LoadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read run file %s", path)
	}
	return ParseRunFile(data)
}

// ParseRunFile разбирает YAML; неизвестные поля считаются ошибкой.
func ParseRunFile(data []byte) (*RunFile, error) {
	var rf RunFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil {
		return nil, apperrors.Configurationf("run_file", "%v", err)
	}

	var kinds []string
	if rf.Sweep != nil {
		kinds = append(kinds, experiments.KindSweep)
	}
	if rf.Grid != nil {
		kinds = append(kinds, experiments.KindGridScan)
	}
	if rf.ParameterSweep != nil {
		kinds = append(kinds, experiments.KindParameterSweep)
	}
	if len(kinds) != 1 {
		return nil, apperrors.Configurationf("run_file", "exactly one of sweep, grid, parameter_sweep must be set, got %d", len(kinds))
	}
	if rf.Kind == "" {
		rf.Kind = kinds[0]
	}
	if rf.Kind != kinds[0] {
		return nil, apperrors.Configurationf("kind", "kind %q does not match section %q", rf.Kind, kinds[0])
	}
	return &rf, nil
}

// StartRun запускает прогон, описанный файлом.
func (c *Client) StartRun(rf *RunFile) (*experiments.Task, error) {
	switch rf.Kind {
	case experiments.KindSweep:
		return c.StartSweep(*rf.Sweep)
	case experiments.KindGridScan:
		return c.StartGridScan(*rf.Grid)
	case experiments.KindParameterSweep:
		return c.StartParameterSweep(*rf.ParameterSweep)
	default:
		return nil, apperrors.Configurationf("kind", "unknown run kind %q", rf.Kind)
	}
}
