package job

// Registry is the in-process profile table built at startup
type Registry struct {
	imports map[string]ImportProfile
	exports map[string]ExportProfile
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		imports: make(map[string]ImportProfile),
		exports: make(map[string]ExportProfile),
	}
}

// RegisterImport adds an import profile under its technical name
func (r *Registry) RegisterImport(profile ImportProfile) {
	r.imports[profile.TechnicalName()] = profile
}

// RegisterExport adds an export profile under its technical name
func (r *Registry) RegisterExport(profile ExportProfile) {
	r.exports[profile.TechnicalName()] = profile
}

// ImportProfile resolves an import profile by technical name
func (r *Registry) ImportProfile(technicalName string) (ImportProfile, bool) {
	p, ok := r.imports[technicalName]
	return p, ok
}

// ExportProfile resolves an export profile by technical name
func (r *Registry) ExportProfile(technicalName string) (ExportProfile, bool) {
	p, ok := r.exports[technicalName]
	return p, ok
}

var _ ProfileRegistry = (*Registry)(nil)
