// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Application() config.ApplicationConfig {
	args := m.Called()
	return args.Get(0).(config.ApplicationConfig)
}

func (m *MockConfig) Artifacts() config.ArtifactsConfig {
	args := m.Called()
	return args.Get(0).(config.ArtifactsConfig)
}

func (m *MockConfig) Wait() config.WaitConfig {
	args := m.Called()
	return args.Get(0).(config.WaitConfig)
}

func (m *MockConfig) SetBrowserEngine(engine string) { m.Called(engine) }

func (m *MockConfig) SetBrowserHeadless(headless bool) { m.Called(headless) }

func (m *MockConfig) SetBrowserSlowMoMs(ms int) { m.Called(ms) }

// -- Browser Mocks --

// MockBackend mocks browser.Backend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBackend) Supports(engine browser.EngineKind) bool {
	args := m.Called(engine)
	return args.Bool(0)
}

func (m *MockBackend) Start(ctx context.Context) (browser.Driver, error) {
	args := m.Called(ctx)
	if d := args.Get(0); d != nil {
		return d.(browser.Driver), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDriver mocks browser.Driver.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Launch(ctx context.Context, engine browser.EngineKind, opts browser.LaunchOptions) (browser.Browser, error) {
	args := m.Called(ctx, engine, opts)
	if b := args.Get(0); b != nil {
		return b.(browser.Browser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDriver) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockBrowser mocks browser.Browser.
type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) NewContext(ctx context.Context, opts browser.ContextOptions) (browser.BrowsingContext, error) {
	args := m.Called(ctx, opts)
	if c := args.Get(0); c != nil {
		return c.(browser.BrowsingContext), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBrowser) Version() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBrowser) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockBrowsingContext mocks browser.BrowsingContext.
type MockBrowsingContext struct {
	mock.Mock
}

func (m *MockBrowsingContext) NewPage(ctx context.Context) (browser.Page, error) {
	args := m.Called(ctx)
	if p := args.Get(0); p != nil {
		return p.(browser.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBrowsingContext) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPage mocks browser.Page.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) SetDefaultTimeout(d time.Duration) { m.Called(d) }

func (m *MockPage) SetDefaultNavigationTimeout(d time.Duration) { m.Called(d) }

func (m *MockPage) DefaultTimeout() time.Duration {
	args := m.Called()
	if fn, ok := args.Get(0).(func() time.Duration); ok {
		return fn()
	}
	return args.Get(0).(time.Duration)
}

func (m *MockPage) DefaultNavigationTimeout() time.Duration {
	args := m.Called()
	if fn, ok := args.Get(0).(func() time.Duration); ok {
		return fn()
	}
	return args.Get(0).(time.Duration)
}

func (m *MockPage) Goto(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockPage) URL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPage) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPage) WaitForLoadState(ctx context.Context, state browser.LoadState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	args := m.Called(ctx, selector)
	return args.Bool(0), args.Error(1)
}

func (m *MockPage) IsEnabled(ctx context.Context, selector string) (bool, error) {
	args := m.Called(ctx, selector)
	return args.Bool(0), args.Error(1)
}

func (m *MockPage) IsEditable(ctx context.Context, selector string) (bool, error) {
	args := m.Called(ctx, selector)
	return args.Bool(0), args.Error(1)
}

func (m *MockPage) TextContents(ctx context.Context, selector string) ([]string, error) {
	args := m.Called(ctx, selector)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPage) Click(ctx context.Context, selector string) error {
	args := m.Called(ctx, selector)
	return args.Error(0)
}

func (m *MockPage) Fill(ctx context.Context, selector, value string) error {
	args := m.Called(ctx, selector, value)
	return args.Error(0)
}

func (m *MockPage) SelectOption(ctx context.Context, selector, value string) error {
	args := m.Called(ctx, selector, value)
	return args.Error(0)
}

func (m *MockPage) SetChecked(ctx context.Context, selector string, checked bool) error {
	args := m.Called(ctx, selector, checked)
	return args.Error(0)
}

func (m *MockPage) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	args := m.Called(ctx, fullPage)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPage) ElementScreenshot(ctx context.Context, selector string) ([]byte, bool, error) {
	args := m.Called(ctx, selector)
	var png []byte
	if v := args.Get(0); v != nil {
		png = v.([]byte)
	}
	return png, args.Bool(1), args.Error(2)
}

// -- Wiring helpers --

// Stack groups one mock of each layer so tests can wire a session in one call.
type Stack struct {
	Backend *MockBackend
	Driver  *MockDriver
	Browser *MockBrowser
	Context *MockBrowsingContext
	Page    *MockPage
}

// NewStack returns an unwired set of mocks. The backend always reports its name.
func NewStack(name string) *Stack {
	s := &Stack{
		Backend: new(MockBackend),
		Driver:  new(MockDriver),
		Browser: new(MockBrowser),
		Context: new(MockBrowsingContext),
		Page:    new(MockPage),
	}
	s.Backend.On("Name").Return(name).Maybe()
	return s
}

// ExpectInitialize wires the happy acquisition path for engine and records the
// timeouts the session applies, so DefaultTimeout reports them back.
func (s *Stack) ExpectInitialize(engine browser.EngineKind) *Stack {
	s.Backend.On("Supports", engine).Return(true)
	s.Backend.On("Start", mock.Anything).Return(s.Driver, nil).Once()
	s.Driver.On("Launch", mock.Anything, engine, mock.Anything).Return(s.Browser, nil).Once()
	s.Browser.On("NewContext", mock.Anything, mock.Anything).Return(s.Context, nil).Once()
	s.Browser.On("Version").Return("mock/1.0").Maybe()
	s.Context.On("NewPage", mock.Anything).Return(s.Page, nil).Once()

	var action, navigation time.Duration
	s.Page.On("SetDefaultTimeout", mock.Anything).Run(func(args mock.Arguments) {
		action = args.Get(0).(time.Duration)
	}).Return()
	s.Page.On("SetDefaultNavigationTimeout", mock.Anything).Run(func(args mock.Arguments) {
		navigation = args.Get(0).(time.Duration)
	}).Return()
	s.Page.On("DefaultTimeout").Return(func() time.Duration { return action }).Maybe()
	s.Page.On("DefaultNavigationTimeout").Return(func() time.Duration { return navigation }).Maybe()
	return s
}

// ExpectDispose wires a clean teardown.
func (s *Stack) ExpectDispose() *Stack {
	s.Context.On("Close", mock.Anything).Return(nil).Once()
	s.Browser.On("Close", mock.Anything).Return(nil).Once()
	s.Driver.On("Stop", mock.Anything).Return(nil).Once()
	return s
}

// AssertExpectations checks every mock in the stack.
func (s *Stack) AssertExpectations(t mock.TestingT) {
	s.Backend.AssertExpectations(t)
	s.Driver.AssertExpectations(t)
	s.Browser.AssertExpectations(t)
	s.Context.AssertExpectations(t)
	s.Page.AssertExpectations(t)
}
