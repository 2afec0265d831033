package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/fsnotify.v1"
	"gopkg.in/yaml.v3"
)

// Registry manages the rule libraries, keyed by document kind.
type Registry struct {
	mu        sync.RWMutex
	libraries map[string]*Library
	dir       string
	watcher   *fsnotify.Watcher
	stopChan  chan struct{}
	onChange  func(event string, lib *Library)
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{
		libraries: make(map[string]*Library),
	}
}

// Register validates, compiles, and adds a library. Re-registering the same
// kind replaces the existing library when the version differs; registering
// the same kind and version twice is an error. Libraries loaded from rule
// files replace unconditionally, see LoadFile.
func (r *Registry) Register(lib *Library) error {
	return r.register(lib, false)
}

func (r *Registry) register(lib *Library, replace bool) error {
	if lib == nil {
		return fmt.Errorf("library cannot be nil")
	}
	if err := lib.Validate(); err != nil {
		return fmt.Errorf("invalid library: %w", err)
	}
	lib.Kind = strings.ToLower(lib.Kind)
	if !lib.IsCompiled() {
		if err := lib.Compile(); err != nil {
			return fmt.Errorf("compiling library %q: %w", lib.Kind, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.libraries[lib.Kind]; ok && !replace {
		if existing.Version == lib.Version {
			return fmt.Errorf("library for kind %q version %s already registered", lib.Kind, lib.Version)
		}
	}
	r.libraries[lib.Kind] = lib
	return nil
}

// Get returns the library for a document kind.
func (r *Registry) Get(kind string) (*Library, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lib, ok := r.libraries[strings.ToLower(kind)]
	return lib, ok
}

// List returns all registered libraries ordered by kind.
func (r *Registry) List() []*Library {
	r.mu.RLock()
	defer r.mu.RUnlock()

	libs := make([]*Library, 0, len(r.libraries))
	for _, l := range r.libraries {
		libs = append(libs, l)
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].Kind < libs[j].Kind })
	return libs
}

// Count returns the number of registered libraries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.libraries)
}

// LoadDirectory loads all YAML rule files from a directory. A missing
// directory is not an error: there is simply nothing to load.
func (r *Registry) LoadDirectory(dir string) error {
	r.dir = dir

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var loadErrors []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, name)); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("errors loading rule libraries: %s", strings.Join(loadErrors, "; "))
	}
	return nil
}

// LoadFile loads a single YAML rule file. An explicitly loaded file always
// wins: its library replaces any registered one of the same kind, whatever
// the versions say, so overriding a built-in never requires a version bump.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	return r.registerYAML(data)
}

func (r *Registry) registerYAML(data []byte) error {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}
	if err := r.register(&lib, true); err != nil {
		return fmt.Errorf("registering library: %w", err)
	}
	return nil
}

// Reload reloads all libraries from the configured directory.
func (r *Registry) Reload() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for reload")
	}

	r.mu.Lock()
	r.libraries = make(map[string]*Library)
	r.mu.Unlock()

	return r.LoadDirectory(r.dir)
}

// SetOnChange sets a callback invoked when a watched rule file changes.
func (r *Registry) SetOnChange(fn func(event string, lib *Library)) {
	r.onChange = fn
}

// Watch starts watching the rule directory for changes so edited rule files
// take effect without a restart.
func (r *Registry) Watch() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	r.watcher = watcher
	r.stopChan = make(chan struct{})

	go r.watchLoop()

	if err := watcher.Add(r.dir); err != nil {
		r.watcher.Close()
		return fmt.Errorf("watching directory %s: %w", r.dir, err)
	}
	return nil
}

func (r *Registry) watchLoop() {
	for {
		select {
		case <-r.stopChan:
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".yaml") && !strings.HasSuffix(event.Name, ".yml") {
				continue
			}
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				r.handleFileChange(event.Name, "create")
			case event.Op&fsnotify.Write == fsnotify.Write:
				r.handleFileChange(event.Name, "modify")
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				r.handleFileRemove()
			}

		case _, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (r *Registry) handleFileChange(path string, eventType string) {
	if err := r.LoadFile(path); err != nil {
		return
	}
	if r.onChange != nil {
		base := filepath.Base(path)
		kind := strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")
		if lib, ok := r.Get(kind); ok {
			r.onChange(eventType, lib)
		}
	}
}

func (r *Registry) handleFileRemove() {
	// No file-to-kind mapping is tracked, so rebuild from the directory.
	if err := r.Reload(); err != nil {
		return
	}
	if r.onChange != nil {
		r.onChange("remove", nil)
	}
}

// StopWatch stops watching the rule directory.
func (r *Registry) StopWatch() {
	if r.stopChan != nil {
		close(r.stopChan)
	}
	if r.watcher != nil {
		r.watcher.Close()
	}
}

// Clear removes all libraries from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.libraries = make(map[string]*Library)
}
