package data_tree

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/internal/domain/entities"
)

// Rows - строки таблиц для одного пакета изменений.
type Rows struct {
	Groups     []entities.DataGroup
	Attributes []entities.DataAttribute
	Datasets   []entities.Dataset
}

// ToRows переводит изменения в строки. Повторные записи атрибута в пакете
// схлопываются в последнюю: один INSERT не может обновить строку дважды.
func ToRows(changes []datafile.Change) (Rows, error) {
	var rows Rows
	attrIndex := map[[2]string]int{}
	for _, c := range changes {
		switch c.Kind {
		case datafile.ChangeGroup:
			rows.Groups = append(rows.Groups, entities.DataGroup{
				Path:   c.Path,
				Parent: path.Dir(c.Path),
				Name:   path.Base(c.Path),
			})
		case datafile.ChangeAttr:
			value, err := json.Marshal(c.Value)
			if err != nil {
				return Rows{}, fmt.Errorf("encode attribute %s of %s: %w", c.Name, c.Path, err)
			}
			attr := entities.DataAttribute{
				GroupPath: c.Path,
				Name:      c.Name,
				Type:      fmt.Sprintf("%T", c.Value),
				Value:     string(value),
			}
			key := [2]string{c.Path, c.Name}
			if i, ok := attrIndex[key]; ok {
				rows.Attributes[i] = attr
				continue
			}
			attrIndex[key] = len(rows.Attributes)
			rows.Attributes = append(rows.Attributes, attr)
		case datafile.ChangeDataset:
			rows.Datasets = append(rows.Datasets, entities.Dataset{
				GroupPath: c.Path,
				Name:      c.Name,
				Values:    c.Data,
				Length:    len(c.Data),
			})
		default:
			return Rows{}, fmt.Errorf("unknown change kind %q", c.Kind)
		}
	}
	return rows, nil
}
