package device

// CreateDevice resolves a configured device's descriptor through the
// registry and constructs its sync instance.
//
// This is the single place an "unknown type" error can originate at
// instantiation time; the orchestrator never touches the registry directly
// for construction.
func CreateDevice(r *Registry, b Binding) (Syncer, error) {
	return r.CreateDevice(b)
}
