package runner_test

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/adapters/memory"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/runner"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScreen struct {
	mu       sync.Mutex
	displays []domain.Display
	notices  []string
}

func (s *recordingScreen) Show(d domain.Display) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displays = append(s.displays, d)
	return nil
}

func (s *recordingScreen) Notice(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, msg)
	return nil
}

func (s *recordingScreen) last() domain.Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.displays) == 0 {
		return domain.Display{}
	}
	return s.displays[len(s.displays)-1]
}

func TestRunner_LineMode(t *testing.T) {
	var out bytes.Buffer
	r := runner.New(abacus.New(),
		runner.WithInput(strings.NewReader("123 + 456 =\nquit\nignored\n")),
		runner.WithOutput(&out),
	)

	require.NoError(t, r.Run(t.Context()))

	assert.Equal(t, "579", r.State().Current())
	assert.Contains(t, out.String(), "\n0\n> ")
	assert.Contains(t, out.String(), "123 + 456 =\n579\n")
}

func TestRunner_EndOfInputStops(t *testing.T) {
	var out bytes.Buffer
	r := runner.New(abacus.New(),
		runner.WithInput(strings.NewReader("7 * 6 Enter")),
		runner.WithOutput(&out),
	)

	require.NoError(t, r.Run(t.Context()))
	assert.Equal(t, "42", r.State().Current())
}

func TestRunner_UnknownKeyStopsTheLine(t *testing.T) {
	screen := &recordingScreen{}
	r := runner.New(abacus.New(),
		runner.WithInput(strings.NewReader("5 % 3\nquit\n")),
		runner.WithOutput(io.Discard),
		runner.WithScreen(screen),
	)

	require.NoError(t, r.Run(t.Context()))

	assert.Equal(t, "5", r.State().Current())
	require.Len(t, screen.notices, 1)
	assert.Contains(t, screen.notices[0], `key "%"`)
}

func TestRunner_Help(t *testing.T) {
	var out bytes.Buffer
	r := runner.New(abacus.New(),
		runner.WithInput(strings.NewReader("help\nquit\n")),
		runner.WithOutput(&out),
	)

	require.NoError(t, r.Run(t.Context()))
	assert.Contains(t, out.String(), "Clear everything")

	screen := &recordingScreen{}
	r = runner.New(abacus.New(),
		runner.WithInput(strings.NewReader("?\nquit\n")),
		runner.WithScreen(screen),
		runner.WithHelp("custom help"),
		runner.WithOutput(io.Discard),
	)
	require.NoError(t, r.Run(t.Context()))
	assert.Equal(t, []string{"custom help"}, screen.notices)
}

func TestRunner_ErrorDisplayClearsItself(t *testing.T) {
	pr, pw := io.Pipe()
	screen := &recordingScreen{}
	r := runner.New(abacus.New(abacus.WithErrorClearDelay(200*time.Millisecond)),
		runner.WithInput(pr),
		runner.WithOutput(io.Discard),
		runner.WithScreen(screen),
	)

	done := make(chan error, 1)
	go func() { done <- r.Run(t.Context()) }()

	_, err := io.WriteString(pw, "9 / 0 =\n")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return screen.last().Current == domain.ErrorDisplay
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, abacus.DivideByZeroMessage, screen.last().History)

	assert.Eventually(t, func() bool {
		d := screen.last()
		return d.Current == "0" && d.History == "" && d.Error == ""
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, pw.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop at end of input")
	}
}

func TestRunner_PersistsSession(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	engine := abacus.New()

	r := runner.New(engine,
		runner.WithInput(strings.NewReader("7*6=\n")),
		runner.WithOutput(io.Discard),
		runner.WithSessions(mgr, "desk"),
	)
	require.NoError(t, r.Run(t.Context()))

	saved, err := store.Load(t.Context(), "desk")
	require.NoError(t, err)
	assert.Equal(t, "42", saved.Current())

	r = runner.New(engine,
		runner.WithInput(strings.NewReader("+1=\n")),
		runner.WithOutput(io.Discard),
		runner.WithSessions(mgr, "desk"),
	)
	require.NoError(t, r.Run(t.Context()))
	assert.Equal(t, "43", r.State().Current())
}

func TestRunner_KeyMode(t *testing.T) {
	var out bytes.Buffer
	r := runner.New(abacus.New(),
		runner.WithInput(strings.NewReader("12+3\rq9")),
		runner.WithOutput(&out),
		runner.WithKeyMode(),
	)

	require.NoError(t, r.Run(t.Context()))

	assert.Equal(t, "15", r.State().Current())
	assert.NotContains(t, out.String(), "> ")
}

func TestRunner_PlayDemo(t *testing.T) {
	screen := &recordingScreen{}
	r := runner.New(abacus.New(), runner.WithScreen(screen))

	require.NoError(t, r.Play(t.Context(), runner.Scale(runner.DemoSteps(), 0)))

	assert.Equal(t, domain.Display{
		Current: "579",
		History: "123 + 456 =",
		Mode:    domain.ModeResultDisplayed,
	}, screen.last())
	assert.Len(t, screen.displays, len(runner.DemoSteps())+1)
}

func TestKeyReader(t *testing.T) {
	k := runner.NewKeyReader(strings.NewReader("1\x1b[A\x1b[3~\x1b[20~\x7f×?q\r%\x1b"))

	var keys []string
	for {
		key, err := k.ReadKey()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		keys = append(keys, key)
	}

	assert.Equal(t, []string{"1", "Delete", "F9", "Backspace", "×", "help", "quit", "Enter", "Escape"}, keys)
}

func TestCRLFWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := runner.NewCRLFWriter(&buf).Write([]byte("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "a\r\nb\r\n", buf.String())
}
