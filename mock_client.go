package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
)

// MockFileClient simulates the remote filesystem in memory and records
// every call in order, so tests can assert on exact call sequences.
type MockFileClient struct {
	Calls []MockCall

	nextID   int64
	parents  map[int64]int64
	names    map[int64]string
	dirs     map[int64]bool
	sizes    map[int64]int64
	children map[int64]map[string]int64

	UploadErrs map[string]error
	CreateErrs map[string]error
}

type MockCall struct {
	Op       string
	Name     string
	Path     string
	ParentID int64
	ID       int64
}

func NewMockFileClient() *MockFileClient {
	return &MockFileClient{
		Calls:      make([]MockCall, 0),
		parents:    make(map[int64]int64),
		names:      make(map[int64]string),
		dirs:       make(map[int64]bool),
		sizes:      make(map[int64]int64),
		children:   map[int64]map[string]int64{0: {}},
		UploadErrs: make(map[string]error),
		CreateErrs: make(map[string]error),
	}
}

// AddFolder seeds a remote folder without recording a call.
func (m *MockFileClient) AddFolder(parentID int64, name string) int64 {
	return m.insert(parentID, name, true, 0)
}

// AddFile seeds a remote file without recording a call.
func (m *MockFileClient) AddFile(parentID int64, name string, size int64) int64 {
	return m.insert(parentID, name, false, size)
}

func (m *MockFileClient) insert(parentID int64, name string, dir bool, size int64) int64 {
	m.nextID++
	id := m.nextID
	m.parents[id] = parentID
	m.names[id] = name
	m.dirs[id] = dir
	m.sizes[id] = size
	if m.children[parentID] == nil {
		m.children[parentID] = map[string]int64{}
	}
	m.children[parentID][name] = id
	m.children[id] = map[string]int64{}
	return id
}

func (m *MockFileClient) CreateFolder(_ context.Context, name string, parentID int64) (Entry, error) {
	call := MockCall{Op: "create_folder", Name: name, ParentID: parentID}
	if err, ok := m.CreateErrs[name]; ok {
		m.Calls = append(m.Calls, call)
		return Entry{}, err
	}
	if _, exists := m.children[parentID][name]; exists {
		m.Calls = append(m.Calls, call)
		return Entry{}, &NameClashError{Name: name, ParentID: parentID}
	}
	id := m.insert(parentID, name, true, 0)
	call.ID = id
	m.Calls = append(m.Calls, call)
	return Entry{ID: id, Name: name, Dir: true}, nil
}

func (m *MockFileClient) UploadFile(_ context.Context, path string, parentID int64) (Entry, error) {
	name := filepath.Base(path)
	call := MockCall{Op: "upload_file", Name: name, Path: path, ParentID: parentID}
	if err, ok := m.UploadErrs[path]; ok {
		m.Calls = append(m.Calls, call)
		return Entry{}, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		m.Calls = append(m.Calls, call)
		return Entry{}, &UnknownAPIError{Context: "Uploading file at `" + path + "`", Err: err}
	}
	id := m.insert(parentID, name, false, stat.Size())
	call.ID = id
	m.Calls = append(m.Calls, call)
	return Entry{ID: id, Name: name, Size: stat.Size()}, nil
}

func (m *MockFileClient) ListChildren(_ context.Context, parentID int64) ([]Entry, error) {
	m.Calls = append(m.Calls, MockCall{Op: "list", ParentID: parentID})
	entries := make([]Entry, 0, len(m.children[parentID]))
	for _, id := range m.children[parentID] {
		entries = append(entries, Entry{ID: id, Name: m.names[id], Dir: m.dirs[id], Size: m.sizes[id]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *MockFileClient) Delete(_ context.Context, id int64) error {
	m.Calls = append(m.Calls, MockCall{Op: "delete", ID: id, Name: m.names[id]})
	parentID, ok := m.parents[id]
	if !ok {
		return &UnknownAPIError{Context: "Deleting a missing entry"}
	}
	m.removeSubtree(id)
	delete(m.children[parentID], m.names[id])
	delete(m.parents, id)
	delete(m.names, id)
	delete(m.dirs, id)
	delete(m.sizes, id)
	return nil
}

func (m *MockFileClient) removeSubtree(id int64) {
	for _, childID := range m.children[id] {
		m.removeSubtree(childID)
		delete(m.parents, childID)
		delete(m.names, childID)
		delete(m.dirs, childID)
		delete(m.sizes, childID)
	}
	delete(m.children, id)
}

// CallsOf filters the recorded calls down to one operation.
func (m *MockFileClient) CallsOf(op string) []MockCall {
	filtered := make([]MockCall, 0)
	for _, call := range m.Calls {
		if call.Op == op {
			filtered = append(filtered, call)
		}
	}
	return filtered
}

// Exists reports whether a child with the given name exists under parentID.
func (m *MockFileClient) Exists(parentID int64, name string) bool {
	_, ok := m.children[parentID][name]
	return ok
}
