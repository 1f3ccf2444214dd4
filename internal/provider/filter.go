package provider

import (
	"path"
	"strings"
)

// DefaultMaxFileSize is the content size ceiling; larger files never reach
// the pattern matcher.
const DefaultMaxFileSize int64 = 1 << 20 // 1 MiB

// FileFilter decides which files are eligible for scanning. Both provider
// implementations apply the same filter, so mode choice never changes what
// is scanned from a given tree.
type FileFilter struct {
	MaxFileSize int64

	allowExts  map[string]struct{}
	allowNames map[string]struct{}
	denyExts   map[string]struct{}
	denyDirs   map[string]struct{}
}

// NewFileFilter returns the default policy: text/config extensions and
// well-known secret-bearing filenames are allowed, binary extensions and
// dependency directories are denied, and files over the size ceiling are
// excluded.
func NewFileFilter() *FileFilter {
	return &FileFilter{
		MaxFileSize: DefaultMaxFileSize,
		allowExts: toSet(
			".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".go", ".rb", ".php",
			".env", ".yaml", ".yml", ".json", ".xml", ".conf", ".config", ".ini",
			".sh", ".bash", ".zsh", ".properties", ".toml", ".tf", ".tfvars",
			".dockerfile", ".sql", ".md", ".txt", ".cfg", ".settings",
		),
		allowNames: toSet(
			"dockerfile", "makefile", ".env", ".env.local", ".env.development",
			".env.production", ".env.staging", "secrets", "credentials", "config",
		),
		denyExts: toSet(
			".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".svg",
			".pdf", ".zip", ".tar", ".gz", ".7z", ".rar",
			".exe", ".dll", ".so", ".dylib", ".bin", ".o", ".a",
			".jar", ".war", ".class", ".pyc",
			".woff", ".woff2", ".ttf", ".eot",
			".mp3", ".mp4", ".avi", ".mov",
		),
		denyDirs: toSet(
			".git", "node_modules", "vendor", "dist", "build", "target",
			"venv", ".venv", "__pycache__", ".idea", ".vscode", "bower_components",
		),
	}
}

// Allow reports whether a file at the given path and size may be scanned.
func (f *FileFilter) Allow(filePath string, size int64) bool {
	return f.AllowPath(filePath) && f.AllowSize(size)
}

// AllowPath applies the directory deny-list, the extension deny-list, and
// then the extension/name allow-lists.
func (f *FileFilter) AllowPath(filePath string) bool {
	clean := strings.ReplaceAll(filePath, "\\", "/")
	for _, dir := range strings.Split(path.Dir(clean), "/") {
		if _, denied := f.denyDirs[strings.ToLower(dir)]; denied {
			return false
		}
	}

	name := strings.ToLower(path.Base(clean))
	ext := strings.ToLower(path.Ext(name))
	if _, denied := f.denyExts[ext]; denied {
		return false
	}
	if _, ok := f.allowNames[name]; ok {
		return true
	}
	if _, ok := f.allowExts[ext]; ok {
		return true
	}
	return false
}

// AllowSize enforces the size ceiling. Providers that do not know a file's
// size up front pass 0 and rely on the read path instead.
func (f *FileFilter) AllowSize(size int64) bool {
	return size <= f.MaxFileSize
}

func toSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
