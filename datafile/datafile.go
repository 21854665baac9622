// Package datafile - иерархическое хранилище результатов: группы с атрибутами и
// числовыми наборами данных. Наборы данных только добавляются, изменения
// передаются в Persister при Flush.
package datafile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/iwtcode/probeStation/pkg/errors"
)

// Group - контракт приемника результатов, которым пользуются движки измерений.
type Group interface {
	Path() string
	CreateGroup(name string) (Group, error)
	// UniqueName возвращает свободное имя дочерней группы и резервирует его.
	UniqueName(basename string, maxN int) (string, error)
	SetAttr(name string, value interface{}) error
	CreateDataset(name string, data []float64) error
	Flush() error
}

// Attr - именованное значение атрибута (string, float64, int или bool).
type Attr struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// File - корень дерева результатов.
type File struct {
	mu        sync.Mutex
	root      *Node
	persister Persister
	pending   []Change
}

// Node - группа дерева.
type Node struct {
	file     *File
	parent   *Node
	name     string
	attrs    []Attr
	children map[string]*Node
	order    []string
	datasets map[string][]float64
	dsOrder  []string
	reserved map[string]bool
}

var _ Group = (*Node)(nil)

// New создает пустой файл. persister может быть nil - тогда Flush только сбрасывает журнал.
func New(persister Persister) *File {
	f := &File{persister: persister}
	f.root = newNode(f, nil, "")
	return f
}

func newNode(f *File, parent *Node, name string) *Node {
	return &Node{
		file:     f,
		parent:   parent,
		name:     name,
		children: map[string]*Node{},
		datasets: map[string][]float64{},
		reserved: map[string]bool{},
	}
}

// Root возвращает корневую группу "/".
func (f *File) Root() *Node { return f.root }

// SetPersister подключает хранилище изменений.
func (f *File) SetPersister(p Persister) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persister = p
}

// Lookup находит группу по абсолютному пути, например "/sweep/curve_001".
func (f *File) Lookup(path string) (*Node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookupLocked(path)
}

func (f *File) lookupLocked(path string) (*Node, bool) {
	n := f.root
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		child, ok := n.children[part]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// Walk обходит дерево в порядке создания групп, начиная с корня.
func (f *File) Walk(fn func(n *Node) error) error {
	f.mu.Lock()
	nodes := f.root.collect(nil)
	f.mu.Unlock()
	for _, n := range nodes {
		if err := fn(n); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) collect(acc []*Node) []*Node {
	acc = append(acc, n)
	for _, name := range n.order {
		acc = n.children[name].collect(acc)
	}
	return acc
}

// Flush передает накопленные изменения в Persister.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil
	}
	if f.persister != nil {
		if err := f.persister.Persist(f.pending); err != nil {
			return err
		}
	}
	f.pending = nil
	return nil
}

// Pending - число изменений, еще не переданных в Persister.
func (f *File) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func (n *Node) Name() string { return n.name }

func (n *Node) Path() string {
	if n.parent == nil {
		return "/"
	}
	if n.parent.parent == nil {
		return "/" + n.name
	}
	return n.parent.Path() + "/" + n.name
}

func (n *Node) CreateGroup(name string) (Group, error) {
	return n.CreateChild(name)
}

// CreateChild - то же, что CreateGroup, но возвращает конкретный тип.
func (n *Node) CreateChild(name string) (*Node, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	if _, ok := n.children[name]; ok {
		return nil, apperrors.Configurationf("group", "%s already exists under %s", name, n.Path())
	}
	if _, ok := n.datasets[name]; ok {
		return nil, apperrors.Configurationf("group", "%s is a dataset under %s", name, n.Path())
	}
	child := newNode(n.file, n, name)
	n.children[name] = child
	n.order = append(n.order, name)
	n.reserved[name] = true
	n.file.pending = append(n.file.pending, Change{Kind: ChangeGroup, Path: child.Path()})
	return child, nil
}

// UniqueName: basename, если имя свободно, иначе basename_N с N, дополненным нулями до
// ширины maxN. Выданное имя резервируется, поэтому повторный вызов вернет другое.
func (n *Node) UniqueName(basename string, maxN int) (string, error) {
	if err := validName(basename); err != nil {
		return "", err
	}
	if maxN < 1 {
		return "", apperrors.Configurationf("max_n", "must be positive, got %d", maxN)
	}
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	if !n.taken(basename) {
		n.reserved[basename] = true
		return basename, nil
	}
	width := len(strconv.Itoa(maxN))
	for i := 1; i <= maxN; i++ {
		name := fmt.Sprintf("%s_%0*d", basename, width, i)
		if !n.taken(name) {
			n.reserved[name] = true
			return name, nil
		}
	}
	return "", apperrors.Configurationf("name", "no free name for %q under %s (max %d)", basename, n.Path(), maxN)
}

func (n *Node) taken(name string) bool {
	if n.reserved[name] {
		return true
	}
	if _, ok := n.children[name]; ok {
		return true
	}
	_, ok := n.datasets[name]
	return ok
}

// SetAttr добавляет или заменяет атрибут. Порядок атрибутов - порядок первой записи.
func (n *Node) SetAttr(name string, value interface{}) error {
	if err := validName(name); err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return apperrors.Configurationf("attr", "%s: %v", name, err)
	}
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	replaced := false
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = v
			replaced = true
			break
		}
	}
	if !replaced {
		n.attrs = append(n.attrs, Attr{Name: name, Value: v})
	}
	n.file.pending = append(n.file.pending, Change{Kind: ChangeAttr, Path: n.Path(), Name: name, Value: v})
	return nil
}

// CreateDataset создает набор данных; повторное имя - ошибка.
func (n *Node) CreateDataset(name string, data []float64) error {
	if err := validName(name); err != nil {
		return err
	}
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	if _, ok := n.datasets[name]; ok {
		return apperrors.Configurationf("dataset", "%s already exists under %s", name, n.Path())
	}
	if _, ok := n.children[name]; ok {
		return apperrors.Configurationf("dataset", "%s is a group under %s", name, n.Path())
	}
	cp := append([]float64{}, data...)
	n.datasets[name] = cp
	n.dsOrder = append(n.dsOrder, name)
	n.file.pending = append(n.file.pending, Change{Kind: ChangeDataset, Path: n.Path(), Name: name, Data: cp})
	return nil
}

func (n *Node) Flush() error {
	return n.file.Flush()
}

// Attrs возвращает копию атрибутов в порядке записи.
func (n *Node) Attrs() []Attr {
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	return append([]Attr(nil), n.attrs...)
}

// Attr возвращает значение атрибута.
func (n *Node) Attr(name string) (interface{}, bool) {
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Dataset возвращает копию набора данных.
func (n *Node) Dataset(name string) ([]float64, bool) {
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	d, ok := n.datasets[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), d...), true
}

// DatasetNames - имена наборов данных в порядке создания.
func (n *Node) DatasetNames() []string {
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	return append([]string(nil), n.dsOrder...)
}

// Children - дочерние группы в порядке создания.
func (n *Node) Children() []*Node {
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	out := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.children[name])
	}
	return out
}

// ChildNames - имена дочерних групп в лексикографическом порядке.
func (n *Node) ChildNames() []string {
	n.file.mu.Lock()
	defer n.file.mu.Unlock()
	names := append([]string(nil), n.order...)
	sort.Strings(names)
	return names
}

func validName(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return apperrors.Configurationf("name", "invalid name %q", name)
	}
	return nil
}

func normalize(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case string, float64, bool:
		return x, nil
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float32:
		return float64(x), nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", v)
	}
}
