package data_tree

import (
	"testing"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRowsFromFileChanges(t *testing.T) {
	var batch []datafile.Change
	f := datafile.New(datafile.PersisterFunc(func(changes []datafile.Change) error {
		batch = append(batch, changes...)
		return nil
	}))
	scan, err := f.Root().CreateChild("scan")
	require.NoError(t, err)
	point, err := scan.CreateChild("point_Y0.000_X1.000")
	require.NoError(t, err)
	require.NoError(t, scan.SetAttr("num_X_points", 2))
	require.NoError(t, point.SetAttr("laser_ON", 0))
	require.NoError(t, point.SetAttr("laser_ON", 1))
	require.NoError(t, point.SetAttr("shutter_state", true))
	require.NoError(t, point.CreateDataset("time", []float64{0, 0.1}))
	require.NoError(t, f.Flush())

	rows, err := ToRows(batch)
	require.NoError(t, err)

	assert.Equal(t, []entities.DataGroup{
		{Path: "/scan", Parent: "/", Name: "scan"},
		{Path: "/scan/point_Y0.000_X1.000", Parent: "/scan", Name: "point_Y0.000_X1.000"},
	}, rows.Groups)

	require.Len(t, rows.Attributes, 3, "повторная запись атрибута должна схлопнуться")
	assert.Equal(t, entities.DataAttribute{GroupPath: "/scan", Name: "num_X_points", Type: "int", Value: "2"}, rows.Attributes[0])
	assert.Equal(t, "1", rows.Attributes[1].Value)
	assert.Equal(t, "bool", rows.Attributes[2].Type)
	assert.Equal(t, "true", rows.Attributes[2].Value)

	require.Len(t, rows.Datasets, 1)
	assert.Equal(t, 2, rows.Datasets[0].Length)
	assert.Equal(t, []float64{0, 0.1}, rows.Datasets[0].Values)
}

func TestToRowsRejectsUnknownKind(t *testing.T) {
	_, err := ToRows([]datafile.Change{{Kind: "rename", Path: "/x"}})
	assert.Error(t, err)
}
