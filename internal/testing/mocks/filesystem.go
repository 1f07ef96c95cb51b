package mocks

import (
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockFileInfo implements os.FileInfo
type MockFileInfo struct {
	NameVal    string
	SizeVal    int64
	ModeVal    os.FileMode
	ModTimeVal time.Time
}

func (f *MockFileInfo) Name() string       { return f.NameVal }
func (f *MockFileInfo) Size() int64        { return f.SizeVal }
func (f *MockFileInfo) Mode() os.FileMode  { return f.ModeVal }
func (f *MockFileInfo) ModTime() time.Time { return f.ModTimeVal }
func (f *MockFileInfo) IsDir() bool        { return f.ModeVal.IsDir() }
func (f *MockFileInfo) Sys() any           { return nil }

// MockFileSystem is an in-memory filesystem with symlink support, for
// exercising code that sits on top of the fs service.
type MockFileSystem struct {
	Mu        sync.RWMutex
	FileInfos map[string]*MockFileInfo // path -> metadata
	Symlinks  map[string]string        // symlink path -> target path
	Errors    map[string]error         // path -> error to return
	HomeDir   string
	Contents  map[string][]byte
}

// NewMockFileSystem creates an empty mock filesystem containing "/".
func NewMockFileSystem() *MockFileSystem {
	f := &MockFileSystem{
		FileInfos: make(map[string]*MockFileInfo),
		Symlinks:  make(map[string]string),
		Errors:    make(map[string]error),
		Contents:  make(map[string][]byte),
		HomeDir:   "/home/user",
	}
	f.FileInfos["/"] = &MockFileInfo{NameVal: "/", ModeVal: os.ModeDir | 0o755}
	return f
}

// SetError sets an error to return for a specific path
func (f *MockFileSystem) SetError(p string, err error) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	f.Errors[p] = err
}

// CreateFile creates a file with content
func (f *MockFileSystem) CreateFile(p string, content []byte) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	f.mkdirAll(path.Dir(p))
	f.Contents[p] = content
	f.FileInfos[p] = &MockFileInfo{
		NameVal:    path.Base(p),
		SizeVal:    int64(len(content)),
		ModeVal:    0o644,
		ModTimeVal: time.Unix(1700000000, 0),
	}
}

// CreateDir creates a directory and its parents
func (f *MockFileSystem) CreateDir(p string) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	f.mkdirAll(p)
}

func (f *MockFileSystem) mkdirAll(p string) {
	if _, ok := f.FileInfos[p]; ok {
		return
	}
	f.mkdirAll(path.Dir(p))
	f.FileInfos[p] = &MockFileInfo{NameVal: path.Base(p), ModeVal: os.ModeDir | 0o755}
}

// CreateSymlink creates a symlink
func (f *MockFileSystem) CreateSymlink(symlinkPath, targetPath string) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	f.mkdirAll(path.Dir(symlinkPath))
	f.Symlinks[symlinkPath] = targetPath
	f.FileInfos[symlinkPath] = &MockFileInfo{
		NameVal: path.Base(symlinkPath),
		ModeVal: os.ModeSymlink | 0o777,
	}
}

// Remove deletes a path and everything below it.
func (f *MockFileSystem) Remove(p string) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	for k := range f.FileInfos {
		if k == p || strings.HasPrefix(k, p+"/") {
			delete(f.FileInfos, k)
			delete(f.Symlinks, k)
			delete(f.Contents, k)
		}
	}
}

func notExist(op, p string) error {
	return &os.PathError{Op: op, Path: p, Err: os.ErrNotExist}
}

func (f *MockFileSystem) Lstat(p string) (os.FileInfo, error) {
	f.Mu.RLock()
	defer f.Mu.RUnlock()

	if err, ok := f.Errors[p]; ok {
		return nil, err
	}
	if info, ok := f.FileInfos[p]; ok {
		return info, nil
	}
	return nil, notExist("lstat", p)
}

// Stat follows symlink chains up to a fixed depth.
func (f *MockFileSystem) Stat(p string) (os.FileInfo, error) {
	f.Mu.RLock()
	defer f.Mu.RUnlock()

	if err, ok := f.Errors[p]; ok {
		return nil, err
	}
	cur := p
	for range 8 {
		target, isLink := f.Symlinks[cur]
		if !isLink {
			break
		}
		if !path.IsAbs(target) {
			target = path.Join(path.Dir(cur), target)
		}
		cur = target
	}
	if info, ok := f.FileInfos[cur]; ok && f.Symlinks[cur] == "" {
		return info, nil
	}
	return nil, notExist("stat", p)
}

func (f *MockFileSystem) Readlink(p string) (string, error) {
	f.Mu.RLock()
	defer f.Mu.RUnlock()

	if target, ok := f.Symlinks[p]; ok {
		return target, nil
	}
	return "", &os.PathError{Op: "readlink", Path: p, Err: os.ErrInvalid}
}

func (f *MockFileSystem) ListDir(p string) ([]os.FileInfo, error) {
	f.Mu.RLock()
	defer f.Mu.RUnlock()

	if err, ok := f.Errors[p]; ok {
		return nil, err
	}
	dir, ok := f.FileInfos[p]
	if !ok {
		return nil, notExist("readdir", p)
	}
	if !dir.IsDir() {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: os.ErrInvalid}
	}

	var out []os.FileInfo
	for k, info := range f.FileInfos {
		if k != "/" && path.Dir(k) == p {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (f *MockFileSystem) ReadFile(p string) ([]byte, error) {
	f.Mu.RLock()
	defer f.Mu.RUnlock()

	if err, ok := f.Errors[p]; ok {
		return nil, err
	}
	if content, ok := f.Contents[p]; ok {
		return content, nil
	}
	return nil, notExist("open", p)
}

func (f *MockFileSystem) UserHomeDir() (string, error) {
	return f.HomeDir, nil
}
