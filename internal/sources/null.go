package sources

// NullBackend does nothing
type NullBackend struct {
	base
}

// NullBackendInfo describes the null backend
func NullBackendInfo() *BackendInfo {
	return &BackendInfo{
		Label:  "Null backend",
		Schema: Schema{},
		New: func(src *Source, env *Env) (Backend, error) {
			return &NullBackend{base: newBase(src, env, Schema{})}, nil
		},
	}
}
