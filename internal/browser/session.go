// internal/browser/session.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// disposeTimeout bounds the whole teardown sequence.
const disposeTimeout = 30 * time.Second

// handles are the resources a Ready session owns. They are either all set or all nil.
type handles struct {
	driver  Driver
	browser Browser
	context BrowsingContext
	page    Page
}

// Session owns one driver, browser, context and page for a single test run.
// It is meant for one logical owner; the locks only make State and a cleanup
// path Dispose safe to call from elsewhere.
type Session struct {
	id       string
	settings Settings
	backend  Backend
	logger   *zap.Logger

	// opMu serializes Initialize and Dispose.
	opMu sync.Mutex

	mu     sync.RWMutex
	state  State
	engine EngineKind
	res    handles
}

// NewSession creates an uninitialized session. Nothing is started until Initialize.
func NewSession(settings Settings, backend Backend, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	return &Session{
		id:       id,
		settings: settings,
		backend:  backend,
		logger:   logger.Named("session").With(zap.String("session_id", id)),
		state:    StateUninitialized,
	}
}

func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Engine returns the resolved engine, or "" before a successful Initialize.
func (s *Session) Engine() EngineKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Settings returns the settings the session was created with.
func (s *Session) Settings() Settings { return s.settings }

// Initialize starts the driver, launches the browser, opens a context and a
// page, and applies the default timeouts to the page.
//
// The engine is validated before anything is started; an invalid engine
// leaves the session Uninitialized. A failure after that closes the session
// and releases whatever was acquired.
func (s *Session) Initialize(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if st := s.State(); st != StateUninitialized {
		return &InvalidSessionStateError{Op: "Initialize", State: st}
	}

	engine, err := s.resolveEngine()
	if err != nil {
		s.logger.Error("Invalid browser configuration.", zap.Error(err))
		return err
	}

	s.setState(StateInitializing)
	s.logger.Debug("Initializing browser session.",
		zap.String("engine", engine.String()),
		zap.String("backend", s.backend.Name()),
		zap.Bool("headless", s.settings.Headless),
	)

	start := time.Now()
	res, err := s.acquire(ctx, engine)
	if err != nil {
		s.release(ctx, res)
		s.setState(StateClosed)
		s.logger.Error("Failed to initialize browser session.",
			zap.String("engine", engine.String()),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	s.engine = engine
	s.res = res
	s.state = StateReady
	s.mu.Unlock()

	s.logger.Info("Browser session initialized.",
		zap.String("engine", engine.String()),
		zap.String("backend", s.backend.Name()),
		zap.String("browser_version", res.browser.Version()),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (s *Session) resolveEngine() (EngineKind, error) {
	if err := s.settings.validate(); err != nil {
		return "", err
	}
	engine, err := ParseEngine(s.settings.Engine)
	if err != nil {
		return "", err
	}
	if s.backend == nil {
		return "", &ConfigurationError{Field: "browser.backend", Value: s.settings.Backend, Reason: "no backend available"}
	}
	if !s.backend.Supports(engine) {
		return "", &ConfigurationError{
			Field:  "browser.engine",
			Value:  s.settings.Engine,
			Reason: "is not supported by the " + s.backend.Name() + " backend",
		}
	}
	return engine, nil
}

// acquire returns whatever it managed to obtain, even on failure, so the
// caller can release it.
func (s *Session) acquire(ctx context.Context, engine EngineKind) (handles, error) {
	var res handles
	var err error

	if res.driver, err = s.backend.Start(ctx); err != nil {
		return res, &SessionInitializationError{Step: "start driver", Err: err}
	}
	if res.browser, err = res.driver.Launch(ctx, engine, s.settings.launchOptions()); err != nil {
		return res, &SessionInitializationError{Step: "launch browser", Err: err}
	}
	if res.context, err = res.browser.NewContext(ctx, s.settings.contextOptions()); err != nil {
		return res, &SessionInitializationError{Step: "create context", Err: err}
	}
	if res.page, err = res.context.NewPage(ctx); err != nil {
		return res, &SessionInitializationError{Step: "create page", Err: err}
	}

	res.page.SetDefaultTimeout(s.settings.ActionTimeout)
	res.page.SetDefaultNavigationTimeout(s.settings.NavigationTimeout)
	return res, nil
}

// Page returns the active page. It fails unless the session is Ready.
func (s *Session) Page() (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		return nil, &InvalidSessionStateError{Op: "Page", State: s.state}
	}
	return s.res.page, nil
}

// Browser returns the browser process handle. It fails unless the session is Ready.
func (s *Session) Browser() (Browser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		return nil, &InvalidSessionStateError{Op: "Browser", State: s.state}
	}
	return s.res.browser, nil
}

// Dispose closes the context, the browser and the driver, in that order, and
// moves the session to Closed. Close failures are logged and the remaining
// steps still run. Calling Dispose on a Closed session does nothing.
func (s *Session) Dispose(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return
	case StateUninitialized:
		s.state = StateClosed
		s.mu.Unlock()
		s.logger.Debug("Session disposed before initialization.")
		return
	}
	res := s.res
	s.res = handles{}
	s.state = StateTearingDown
	s.mu.Unlock()

	start := time.Now()
	s.release(ctx, res)
	s.setState(StateClosed)

	s.logger.Info("Browser session disposed.", zap.Duration("duration", time.Since(start)))
}

// release closes every non-nil handle, context first and driver last.
// The caller's context may already be cancelled in a cleanup path, so the
// close calls run on a detached context with their own deadline.
func (s *Session) release(ctx context.Context, res handles) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disposeTimeout)
	defer cancel()

	if res.context != nil {
		if err := res.context.Close(cleanupCtx); err != nil {
			s.logger.Error("Failed to close browsing context.", zap.Error(err))
		}
	}
	if res.browser != nil {
		if err := res.browser.Close(cleanupCtx); err != nil {
			s.logger.Error("Failed to close browser.", zap.Error(err))
		}
	}
	if res.driver != nil {
		if err := res.driver.Stop(cleanupCtx); err != nil {
			s.logger.Error("Failed to stop browser driver.", zap.Error(err))
		}
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
