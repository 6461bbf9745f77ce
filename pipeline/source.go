package pipeline

import (
	"fmt"
	"sync"

	"github.com/janelia-flyem/voxpipe/batch"
	"github.com/janelia-flyem/voxpipe/vox"
)

// MemorySource is a Provider serving crops of whole arrays and graphs held in memory.
// Payloads must be added before the pipeline is built.
type MemorySource struct {
	mu     sync.RWMutex
	arrays map[batch.Key]*batch.Array
	graphs map[batch.Key]*batch.Graph
	keys   []batch.Key
	spec   *batch.ProviderSpec
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		arrays: make(map[batch.Key]*batch.Array),
		graphs: make(map[batch.Key]*batch.Graph),
		spec:   batch.NewProviderSpec(),
	}
}

// AddArray stores a copy of the array under an array key.
func (m *MemorySource) AddArray(key batch.Key, a *batch.Array) error {
	if key.Kind() != batch.ArrayKind {
		return fmt.Errorf("%w: cannot serve an array as %s", vox.ErrUnsupportedKeyType, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, found := m.arrays[key]; !found {
		m.keys = append(m.keys, key)
	}
	m.arrays[key] = a.Copy()
	return nil
}

// AddGraph stores a copy of the graph under a graph key.
func (m *MemorySource) AddGraph(key batch.Key, g *batch.Graph) error {
	if key.Kind() != batch.GraphKind {
		return fmt.Errorf("%w: cannot serve a graph as %s", vox.ErrUnsupportedKeyType, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, found := m.graphs[key]; !found {
		m.keys = append(m.keys, key)
	}
	m.graphs[key] = g.Copy()
	return nil
}

// Setup declares the specs of all stored payloads.
func (m *MemorySource) Setup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	spec := batch.NewProviderSpec()
	for _, k := range m.keys {
		var err error
		if a, found := m.arrays[k]; found {
			err = spec.Set(k, a.Spec)
		} else {
			err = spec.Set(k, m.graphs[k].Spec)
		}
		if err != nil {
			return err
		}
	}
	m.spec = spec
	return nil
}

func (m *MemorySource) Spec() *batch.ProviderSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.spec.Copy()
}

// Provide returns crops of the stored payloads.  Regions outside a stored payload fail
// with vox.ErrRequestUnsatisfiable.
func (m *MemorySource) Provide(req *batch.Request) (*batch.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b := batch.NewBatch()
	for _, k := range req.Keys() {
		want, _ := req.Get(k)
		roi := want.GetRoi()
		switch k.Kind() {
		case batch.ArrayKind:
			a, found := m.arrays[k]
			if !found {
				return nil, fmt.Errorf("%w: no array %s in memory", vox.ErrRequestUnsatisfiable, k)
			}
			cropped, err := a.Crop(roi)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if err := b.SetArray(k, cropped); err != nil {
				return nil, err
			}
		case batch.GraphKind:
			g, found := m.graphs[k]
			if !found {
				return nil, fmt.Errorf("%w: no graph %s in memory", vox.ErrRequestUnsatisfiable, k)
			}
			cropped, err := g.Crop(roi)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if err := b.SetGraph(k, cropped); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
