package datafile

import (
	"bufio"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// ChangeKind - тип изменения дерева.
type ChangeKind string

const (
	ChangeGroup   ChangeKind = "group"
	ChangeAttr    ChangeKind = "attr"
	ChangeDataset ChangeKind = "dataset"
)

// Change - одно изменение с момента предыдущего Flush.
type Change struct {
	Kind  ChangeKind  `json:"kind"`
	Path  string      `json:"path"`
	Name  string      `json:"name,omitempty"`
	Value interface{} `json:"value"`
	Data  []float64   `json:"data,omitempty"`
}

// Persister сохраняет изменения дерева. Вызывается из Flush под блокировкой файла.
type Persister interface {
	Persist(changes []Change) error
}

// PersisterFunc адаптирует функцию к Persister.
type PersisterFunc func(changes []Change) error

func (f PersisterFunc) Persist(changes []Change) error { return f(changes) }

// MultiPersister передает изменения нескольким хранилищам по очереди.
type MultiPersister []Persister

func (m MultiPersister) Persist(changes []Change) error {
	for _, p := range m {
		if err := p.Persist(changes); err != nil {
			return err
		}
	}
	return nil
}

// JSONPersister дописывает изменения в журнал JSON Lines.
type JSONPersister struct {
	mu   sync.Mutex
	path string
}

func NewJSONPersister(path string) (*JSONPersister, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create data directory %s", dir)
		}
	}
	return &JSONPersister{path: path}, nil
}

func (p *JSONPersister) Path() string { return p.path }

func (p *JSONPersister) Persist(changes []Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open data file %s", p.path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, c := range changes {
		if err := enc.Encode(c); err != nil {
			return errors.Wrap(err, "encode change")
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "write data file %s", p.path)
	}
	return f.Sync()
}

// Load восстанавливает дерево из журнала JSONPersister. Новый файл не привязан к хранилищу.
func Load(name string) (*File, error) {
	in, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open data file %s", name)
	}
	defer in.Close()

	file := New(nil)
	dec := json.NewDecoder(bufio.NewReader(in))
	for dec.More() {
		var c Change
		if err := dec.Decode(&c); err != nil {
			return nil, errors.Wrap(err, "decode change")
		}
		if err := file.Apply(c); err != nil {
			return nil, err
		}
	}
	file.pending = nil
	return file, nil
}

// Apply воспроизводит одно изменение (используется при загрузке журналов).
func (f *File) Apply(c Change) error {
	switch c.Kind {
	case ChangeGroup:
		parentPath, name := path.Split(c.Path)
		parent, ok := f.Lookup(parentPath)
		if !ok {
			return errors.Errorf("apply %s: parent %s not found", c.Path, parentPath)
		}
		_, err := parent.CreateChild(name)
		return err
	case ChangeAttr:
		n, ok := f.Lookup(c.Path)
		if !ok {
			return errors.Errorf("apply attr %s: group %s not found", c.Name, c.Path)
		}
		// целые после JSON приходят как float64
		return n.SetAttr(c.Name, c.Value)
	case ChangeDataset:
		n, ok := f.Lookup(c.Path)
		if !ok {
			return errors.Errorf("apply dataset %s: group %s not found", c.Name, c.Path)
		}
		return n.CreateDataset(c.Name, c.Data)
	default:
		return errors.Errorf("unknown change kind %q", c.Kind)
	}
}
