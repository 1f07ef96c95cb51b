package mocks

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

type mockEntry struct {
	path  string
	attrs vfs.Attributes
}

// MockProvider implements vfs.AttributesProvider over an in-memory tree.
// With FoldCase set it behaves like a case-insensitive, case-preserving
// filesystem.
type MockProvider struct {
	Mu        sync.Mutex
	FoldCase  bool
	entries   map[string]*mockEntry
	Errors    map[string]error // path -> error for Stat and List
	ListErrs  map[string]error // path -> error for List only
	StatCalls map[string]int
	ListCalls map[string]int
	// BeforeStat runs outside the lock before every Stat.
	BeforeStat func(path string)

	clock time.Time
}

// NewMockProvider creates a provider holding only the "/" root.
func NewMockProvider() *MockProvider {
	p := &MockProvider{
		entries:   make(map[string]*mockEntry),
		Errors:    make(map[string]error),
		ListErrs:  make(map[string]error),
		StatCalls: make(map[string]int),
		ListCalls: make(map[string]int),
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	p.put("/", vfs.Attributes{Type: vfs.TypeDirectory})
	return p
}

func (p *MockProvider) key(name string) string {
	if p.FoldCase {
		return strings.ToLower(name)
	}
	return name
}

func (p *MockProvider) tick() time.Time {
	p.clock = p.clock.Add(time.Second)
	return p.clock
}

func (p *MockProvider) put(name string, attrs vfs.Attributes) {
	p.entries[p.key(name)] = &mockEntry{path: name, attrs: attrs}
}

// CreateDir adds a directory and any missing parents.
func (p *MockProvider) CreateDir(name string) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	p.mkdirAll(name)
}

func (p *MockProvider) mkdirAll(name string) {
	if _, ok := p.entries[p.key(name)]; ok {
		return
	}
	if !isRoot(name) {
		p.mkdirAll(parentOf(name))
	}
	p.put(name, vfs.Attributes{Type: vfs.TypeDirectory, ModTime: p.tick()})
}

func isRoot(name string) bool {
	return name == "/" || strings.HasSuffix(name, ":/") || (strings.HasPrefix(name, "//") && !strings.Contains(name[2:], "/"))
}

// parentOf keeps the trailing slash of drive roots, unlike path.Dir.
func parentOf(name string) string {
	i := strings.LastIndex(name, "/")
	if i <= 0 {
		return "/"
	}
	parent := name[:i]
	if strings.HasSuffix(parent, ":") {
		return parent + "/"
	}
	return parent
}

// CreateFile adds a file with the given length.
func (p *MockProvider) CreateFile(name string, length int64) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	p.mkdirAll(parentOf(name))
	p.put(name, vfs.Attributes{Type: vfs.TypeFile, Length: length, ModTime: p.tick()})
}

// CreateSymlink adds a link whose target type is resolved from the current
// tree. Call RetargetSymlinks after changing the target.
func (p *MockProvider) CreateSymlink(name, target string) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	p.mkdirAll(parentOf(name))
	p.put(name, vfs.Attributes{Type: vfs.TypeSymlink, SymlinkTarget: target, TargetType: p.targetType(target), ModTime: p.tick()})
}

// RetargetSymlinks re-resolves the target type of every link.
func (p *MockProvider) RetargetSymlinks() {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	for _, e := range p.entries {
		if e.attrs.Type == vfs.TypeSymlink {
			e.attrs.TargetType = p.targetType(e.attrs.SymlinkTarget)
		}
	}
}

func (p *MockProvider) targetType(target string) vfs.FileType {
	if e, ok := p.entries[p.key(target)]; ok {
		return e.attrs.Type
	}
	return vfs.TypeUnknown
}

// Touch changes a file's length and timestamp.
func (p *MockProvider) Touch(name string, length int64) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	if e, ok := p.entries[p.key(name)]; ok {
		e.attrs.Length = length
		e.attrs.ModTime = p.tick()
	}
}

// Remove deletes an entry and everything below it.
func (p *MockProvider) Remove(name string) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	prefix := p.key(name) + "/"
	for k := range p.entries {
		if k == p.key(name) || strings.HasPrefix(k, prefix) {
			delete(p.entries, k)
		}
	}
}

// Rename moves a single entry. Renaming between spellings of the same name
// on a folding provider changes only the stored case.
func (p *MockProvider) Rename(oldName, newName string) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	e, ok := p.entries[p.key(oldName)]
	if !ok {
		return
	}
	delete(p.entries, p.key(oldName))
	p.put(newName, e.attrs)
}

// SetError makes Stat and List fail for path.
func (p *MockProvider) SetError(name string, err error) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	p.Errors[name] = err
}

// ClearErrors removes all injected errors.
func (p *MockProvider) ClearErrors() {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	p.Errors = make(map[string]error)
	p.ListErrs = make(map[string]error)
}

// ResetCalls zeroes the call counters.
func (p *MockProvider) ResetCalls() {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	p.StatCalls = make(map[string]int)
	p.ListCalls = make(map[string]int)
}

// Calls returns the total number of Stat and List calls.
func (p *MockProvider) Calls() int {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	total := 0
	for _, n := range p.StatCalls {
		total += n
	}
	for _, n := range p.ListCalls {
		total += n
	}
	return total
}

func (p *MockProvider) Stat(name string) (*vfs.Attributes, error) {
	if p.BeforeStat != nil {
		p.BeforeStat(name)
	}

	p.Mu.Lock()
	defer p.Mu.Unlock()
	p.StatCalls[name]++

	if err, ok := p.Errors[name]; ok {
		return nil, err
	}
	e, ok := p.entries[p.key(name)]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	attrs := e.attrs
	return &attrs, nil
}

func (p *MockProvider) List(name string) ([]vfs.Entry, error) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	p.ListCalls[name]++

	if err, ok := p.Errors[name]; ok {
		return nil, err
	}
	if err, ok := p.ListErrs[name]; ok {
		return nil, err
	}
	dir, ok := p.entries[p.key(name)]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	if !dir.attrs.IsDir() {
		return nil, fmt.Errorf("%s: %w", name, vfs.ErrNotDirectory)
	}

	var out []vfs.Entry
	for _, e := range p.entries {
		if isRoot(e.path) || p.key(parentOf(e.path)) != p.key(name) {
			continue
		}
		out = append(out, vfs.Entry{Name: path.Base(e.path), Attributes: e.attrs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
