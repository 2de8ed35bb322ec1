package sessiongate_test

import (
	"context"
	"io"
	"mime/multipart"
	"sync"

	"github.com/goliatone/go-router"
	"github.com/oakline/go-sessiongate"
	"github.com/stretchr/testify/mock"
)

// MockProfileLookup implements sessiongate.ProfileLookup
type MockProfileLookup struct {
	mock.Mock
}

func (m *MockProfileLookup) GetByIdentity(ctx context.Context, id string) (*sessiongate.Profile, error) {
	args := m.Called(ctx, id)
	profile, _ := args.Get(0).(*sessiongate.Profile)
	return profile, args.Error(1)
}

// MockPurger implements sessiongate.IdentityPurger
type MockPurger struct {
	mock.Mock
}

func (m *MockPurger) DeleteIdentityAuth(ctx context.Context, uid string) (*sessiongate.PurgeReceipt, error) {
	args := m.Called(ctx, uid)
	receipt, _ := args.Get(0).(*sessiongate.PurgeReceipt)
	return receipt, args.Error(1)
}

// stubProvider is a hand-driven IdentityProvider: tests push auth-state
// transitions through Emit and inspect what the watcher asked of it.
type stubProvider struct {
	mu          sync.Mutex
	subs        []func(sessiongate.Identity)
	errSubs     []func(error)
	current     sessiongate.Identity
	signOuts    int
	deleted     []string
	deleteErr   error
	signOutHook func()
}

func (p *stubProvider) SignIn(ctx context.Context, email, password string) (sessiongate.Identity, error) {
	return nil, nil
}

func (p *stubProvider) SignUp(ctx context.Context, email, password string) (sessiongate.Identity, error) {
	return nil, nil
}

func (p *stubProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.signOuts++
	hook := p.signOutHook
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (p *stubProvider) SubscribeAuthState(fn func(sessiongate.Identity)) func() {
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	current := p.current
	p.mu.Unlock()

	fn(current)
	return func() {}
}

func (p *stubProvider) SubscribeAuthErrors(fn func(error)) func() {
	p.mu.Lock()
	p.errSubs = append(p.errSubs, fn)
	p.mu.Unlock()
	return func() {}
}

func (p *stubProvider) UpdateDisplayName(ctx context.Context, id, name string) error {
	return nil
}

func (p *stubProvider) UpdatePassword(ctx context.Context, id, newPassword string) error {
	return nil
}

func (p *stubProvider) DeleteIdentity(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deleted = append(p.deleted, id)
	return nil
}

// Emit pushes an auth-state transition to every subscriber, synchronously.
func (p *stubProvider) Emit(identity sessiongate.Identity) {
	p.mu.Lock()
	p.current = identity
	subs := append([]func(sessiongate.Identity){}, p.subs...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

// EmitError pushes a stream failure.
func (p *stubProvider) EmitError(err error) {
	p.mu.Lock()
	subs := append([]func(error){}, p.errSubs...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(err)
	}
}

func (p *stubProvider) SignOutCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOuts
}

// captureLogger records structured log calls for assertions.
type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) QueryValues(name string) []string {
	args := m.Called(name)
	vals, _ := args.Get(0).([]string)
	return vals
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	merged, _ := args.Get(0).(map[string]any)
	return merged
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	fh, _ := args.Get(0).(*multipart.FileHeader)
	return fh, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	params, _ := args.Get(0).(map[string]string)
	return params
}
