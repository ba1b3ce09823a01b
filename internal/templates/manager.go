package templates

import (
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a merged template set is reused before the
// config file is discovered and read again.
const DefaultCacheTTL = 60 * time.Second

// DiscoverFunc locates a config file starting from startDir.
type DiscoverFunc func(startDir string) (string, bool)

// LoadFunc reads custom templates from a config file.
type LoadFunc func(path string) (*LoadResult, error)

// ManagerOptions configures a Manager. Zero values select defaults.
type ManagerOptions struct {
	Logger *zap.Logger

	// CacheTTL defaults to DefaultCacheTTL.
	CacheTTL time.Duration

	// StartDir is where config discovery begins. Defaults to the working
	// directory at construction time.
	StartDir string

	// ConfigFile is the project-relative config path. Defaults to DefaultConfigFile.
	ConfigFile string

	// Discover and Load replace config discovery and loading, mainly for tests.
	Discover DiscoverFunc
	Load     LoadFunc

	// Now replaces the clock, mainly for tests.
	Now func() time.Time
}

type cachedSet struct {
	templates  Set
	configPath string
	loadedAt   time.Time
}

// Manager serves the merged built-in and custom template set, caching it
// for a bounded time. It is safe for concurrent use: the cached set is
// replaced as a whole, and concurrent refreshes only duplicate work.
type Manager struct {
	logger     *zap.Logger
	ttl        time.Duration
	startDir   string
	configFile string
	discover   DiscoverFunc
	load       LoadFunc
	now        func() time.Time

	cache atomic.Pointer[cachedSet]
}

// NewManager creates a Manager.
func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{
		logger:     opts.Logger,
		ttl:        opts.CacheTTL,
		startDir:   opts.StartDir,
		configFile: opts.ConfigFile,
		discover:   opts.Discover,
		load:       opts.Load,
		now:        opts.Now,
	}

	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.ttl <= 0 {
		m.ttl = DefaultCacheTTL
	}
	if m.startDir == "" {
		if wd, err := os.Getwd(); err == nil {
			m.startDir = wd
		} else {
			m.logger.Warn("cannot determine working directory, using built-in templates only", zap.Error(err))
		}
	}
	if m.configFile == "" {
		m.configFile = DefaultConfigFile
	}
	if m.discover == nil {
		m.discover = func(startDir string) (string, bool) {
			if startDir == "" {
				return "", false
			}
			return FindConfigFile(startDir, "", m.configFile)
		}
	}
	if m.load == nil {
		m.load = NewLoader(m.logger).LoadFromFile
	}
	if m.now == nil {
		m.now = time.Now
	}

	return m
}

// GetAvailableTemplates returns the merged template set. The returned set is
// a copy and may be modified by the caller.
func (m *Manager) GetAvailableTemplates() Set {
	return m.current().templates.Clone()
}

// GetTemplate looks up a template by name in the merged set.
func (m *Manager) GetTemplate(name string) (Template, bool) {
	tmpl, ok := m.current().templates[name]
	return tmpl, ok
}

// Names returns the sorted names of the merged set.
func (m *Manager) Names() []string {
	return m.current().templates.Names()
}

// ConfigPath returns the config file used for the current set, or "" when
// only built-in templates are in use.
func (m *Manager) ConfigPath() string {
	return m.current().configPath
}

// Reload drops the cached set so the next access loads it again.
func (m *Manager) Reload() {
	m.cache.Store(nil)
	m.logger.Debug("template cache invalidated")
}

func (m *Manager) current() *cachedSet {
	if cached := m.cache.Load(); cached != nil && m.now().Sub(cached.loadedAt) < m.ttl {
		return cached
	}

	fresh := m.refresh()
	m.cache.Store(fresh)
	return fresh
}

// refresh builds a new merged set. It never fails: any problem with the
// config file leaves the built-in templates in effect.
func (m *Manager) refresh() *cachedSet {
	fresh := &cachedSet{
		templates: Builtins(),
	}

	path, found := m.discover(m.startDir)
	if !found {
		m.logger.Debug("no template config found, using built-in templates", zap.String("startDir", m.startDir))
		fresh.loadedAt = m.now()
		return fresh
	}

	result, err := m.load(path)
	if err != nil {
		m.logger.Warn("failed to load template config, using built-in templates", zap.String("path", path), zap.Error(err))
		fresh.loadedAt = m.now()
		return fresh
	}

	merged, overrides := Merge(fresh.templates, result.Templates)
	fresh.templates = merged
	fresh.configPath = path
	fresh.loadedAt = m.now()

	m.logger.Info("loaded custom templates",
		zap.String("path", path),
		zap.Int("merged", len(result.Templates)),
		zap.Int("overrides", overrides),
		zap.Int("skipped", len(result.Errors)),
	)

	return fresh
}
