package store

// RegisterModule attaches raw at path as a runtime module. Existing handlers
// are kept; the new subtree is added after them. Its state is grafted into
// the parent state unless WithPreserveState is given and a state map already
// exists at path.
//
// A rejected registration is reported, returned and leaves the store
// untouched.
func (s *Store) RegisterModule(path []string, raw *Module, opts ...RegisterOption) error {
	cfg := registerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	namespace, err := s.registerModule(path, raw, cfg)
	if err != nil {
		s.report(Diagnostic{Kind: DiagnosticRegisterModule, Path: clonePath(path), Err: err})
		return err
	}

	s.runWatchers()
	s.emitModule(true, path, namespace)
	return nil
}

func (s *Store) registerModule(path []string, raw *Module, cfg registerConfig) (string, error) {
	if len(path) == 0 {
		return "", ErrRootModule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditStrictLocked()
	if err := s.modules.register(clonePath(path), raw, true); err != nil {
		return "", err
	}
	node, _ := s.modules.get(path)

	mode := installFresh
	if cfg.preserveState {
		mode = installPreserve
	}
	s.installModule(clonePath(path), node, mode)
	s.afterStateChangeLocked()
	return s.modules.getNamespace(path), nil
}

// UnregisterModule removes a runtime module, its handlers and its state.
// Modules declared at construction are rejected with ErrStaticModule.
func (s *Store) UnregisterModule(path []string) error {
	namespace, err := s.unregisterModule(path)
	if err != nil {
		s.report(Diagnostic{Kind: DiagnosticUnregisterModule, Path: clonePath(path), Err: err})
		return err
	}

	s.runWatchers()
	s.emitModule(false, path, namespace)
	return nil
}

func (s *Store) unregisterModule(path []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditStrictLocked()
	namespace := s.modules.getNamespace(path)
	if err := s.modules.unregister(path); err != nil {
		return "", err
	}

	parent := s.nestedState(path[:len(path)-1])
	s.withCommit(func() error {
		delete(parent, path[len(path)-1])
		return nil
	})
	s.resetStoreLocked()
	s.afterStateChangeLocked()
	return namespace, nil
}

// HasModule reports whether a module is registered at path.
func (s *Store) HasModule(path []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modules.isRegistered(path)
}

// HotUpdate swaps handler definitions on the live module tree without
// touching state. raw mirrors the root module: its Modules name existing
// modules to update, and naming one that is not registered rejects the whole
// update. Every cached getter is recomputed on next read.
func (s *Store) HotUpdate(raw *Module) error {
	if err := s.hotUpdate(raw); err != nil {
		s.report(Diagnostic{Kind: DiagnosticHotUpdate, Err: err})
		return err
	}

	s.runWatchers()
	s.emitHotUpdate()
	return nil
}

func (s *Store) hotUpdate(raw *Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.modules.update(raw); err != nil {
		return err
	}
	s.resetStoreLocked()
	s.version++
	return nil
}
