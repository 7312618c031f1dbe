package vacbot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/ozmo-core/internal/commands"
	"github.com/nerrad567/ozmo-core/internal/events"
)

var errTransportDown = errors.New("transport down")

// fakeTransport records sent commands and serves canned responses.
type fakeTransport struct {
	mu            sync.Mutex
	sent          []sentCommand
	cleanLogCalls int
	err           error
	delay         time.Duration

	inFlight    int
	maxInFlight int

	response         map[string]any
	cleanLogResponse map[string]any
}

type sentCommand struct {
	name string
	args any
}

func (f *fakeTransport) SendCommand(ctx context.Context, name string, args any) (map[string]any, error) {
	f.mu.Lock()
	f.sent = append(f.sent, sentCommand{name: name, args: args})
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay, err := f.delay, f.err
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inFlight--
	resp := f.response
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = decode(`{"ret":"ok","resp":{"body":{"code":0,"msg":"ok","data":{}}}}`)
	}
	return resp, nil
}

func (f *fakeTransport) FetchCleanLogs(ctx context.Context) (map[string]any, error) {
	f.mu.Lock()
	f.cleanLogCalls++
	resp := f.cleanLogResponse
	f.mu.Unlock()

	if resp == nil {
		resp = decode(`{"ret":"ok","logs":[]}`)
	}
	return resp, nil
}

func (f *fakeTransport) sentNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.sent))
	for i, s := range f.sent {
		names[i] = s.name
	}
	return names
}

func (f *fakeTransport) logCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleanLogCalls
}

// fakeMap records collaborator calls.
type fakeMap struct {
	mu        sync.Mutex
	handled   []string
	refreshes int
}

func (f *fakeMap) Handle(name string, payload map[string]any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handled = append(f.handled, name)
	return true
}

func (f *fakeMap) RefreshMap()      { f.bump() }
func (f *fakeMap) RefreshPosition() { f.bump() }
func (f *fakeMap) RefreshRooms()    { f.bump() }

func (f *fakeMap) bump() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeMap) handledNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.handled...)
}

func (f *fakeMap) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func decode(raw string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		panic(err)
	}
	return m
}

func newTestBot(t *testing.T, transport *fakeTransport) *Bot {
	t.Helper()
	bot, err := NewBot(Options{DeviceID: "E0001234567890", Transport: transport})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return bot
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewBotValidation(t *testing.T) {
	if _, err := NewBot(Options{Transport: &fakeTransport{}}); err == nil {
		t.Error("expected error for missing device ID")
	}
	if _, err := NewBot(Options{DeviceID: "x"}); err == nil {
		t.Error("expected error for missing transport")
	}
}

func TestExecuteDispatchesResponse(t *testing.T) {
	transport := &fakeTransport{
		response: decode(`{"ret":"ok","resp":{"body":{"code":0,"msg":"ok","data":{"value":73}}}}`),
	}
	bot := newTestBot(t, transport)

	if err := bot.Execute(context.Background(), commands.GetBattery{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	event, ok := bot.Events().Battery.Latest()
	if !ok || event.Value != 73 {
		t.Errorf("battery = %+v ok=%v, want value 73", event, ok)
	}
}

func TestExecuteRoutesCleanLogsToLogEndpoint(t *testing.T) {
	transport := &fakeTransport{}
	bot := newTestBot(t, transport)

	if err := bot.Execute(context.Background(), commands.GetCleanLogs{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if transport.logCalls() != 1 {
		t.Errorf("log endpoint calls = %d, want 1", transport.logCalls())
	}
	if len(transport.sentNames()) != 0 {
		t.Errorf("IoT endpoint used for clean logs: %v", transport.sentNames())
	}
}

func TestExecutePropagatesTransportError(t *testing.T) {
	transport := &fakeTransport{err: errTransportDown}
	bot := newTestBot(t, transport)

	err := bot.Execute(context.Background(), commands.GetBattery{})
	if !errors.Is(err, errTransportDown) {
		t.Errorf("err = %v, want wrapped transport error", err)
	}
	if _, ok := bot.Events().Battery.Latest(); ok {
		t.Error("event published despite transport error")
	}
}

func TestExecuteResolvesCleanVerbs(t *testing.T) {
	tests := []struct {
		name    string
		state   events.VacuumState
		action  commands.CleanAction
		wantAct string
	}{
		{"resume while idle becomes start", events.StateIdle, commands.CleanResume, "start"},
		{"resume while paused stays resume", events.StatePaused, commands.CleanResume, "resume"},
		{"start while paused becomes resume", events.StatePaused, commands.CleanStart, "resume"},
		{"start while cleaning stays start", events.StateCleaning, commands.CleanStart, "start"},
		{"stop never rewritten", events.StatePaused, commands.CleanStop, "stop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{}
			bot := newTestBot(t, transport)
			// Available stays false so the state change does not kick
			// off a refresh broadcast.
			bot.Events().Status.Notify(events.StatusEvent{Available: false, State: tt.state})

			if err := bot.Execute(context.Background(), commands.NewClean(tt.action)); err != nil {
				t.Fatalf("Execute: %v", err)
			}

			transport.mu.Lock()
			defer transport.mu.Unlock()
			if len(transport.sent) != 1 {
				t.Fatalf("sent %d commands, want 1", len(transport.sent))
			}
			args, ok := transport.sent[0].args.(map[string]any)
			if !ok {
				t.Fatalf("args = %T, want map", transport.sent[0].args)
			}
			if args["act"] != tt.wantAct {
				t.Errorf("act = %v, want %q", args["act"], tt.wantAct)
			}
		})
	}
}

func TestExecuteNeverRewritesAreaClean(t *testing.T) {
	transport := &fakeTransport{}
	bot := newTestBot(t, transport)
	bot.Events().Status.Notify(events.StatusEvent{Available: false, State: events.StatePaused})

	cmd := commands.NewCleanArea(commands.ModeCustomArea, "-1200,300,1200,-300", 2)
	if err := bot.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	args := transport.sent[0].args.(map[string]any)
	if args["act"] != "start" || args["count"] != 2 {
		t.Errorf("args = %v, want explicit start with count 2", args)
	}
}

func TestExecuteLimitsConcurrency(t *testing.T) {
	transport := &fakeTransport{delay: 30 * time.Millisecond}
	bot := newTestBot(t, transport)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Execute(context.Background(), commands.GetStats{}); err != nil {
				t.Errorf("Execute: %v", err)
			}
		}()
	}
	wg.Wait()

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if transport.maxInFlight > DefaultMaxInFlight {
		t.Errorf("max concurrent sends = %d, want at most %d", transport.maxInFlight, DefaultMaxInFlight)
	}
	if len(transport.sent) != 10 {
		t.Errorf("sent = %d, want all 10 to complete", len(transport.sent))
	}
}

func TestHandleNormalizesLegacyNames(t *testing.T) {
	bot := newTestBot(t, &fakeTransport{})
	payload := decode(`{"header":{"fwVer":"1.7.2"},"body":{"code":0,"msg":"ok","data":{"value":55}}}`)

	if err := bot.Handle("onBattery_V2", payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	event, ok := bot.Events().Battery.Latest()
	if !ok || event.Value != 55 {
		t.Errorf("battery = %+v ok=%v, want value 55", event, ok)
	}
	if got := bot.FirmwareVersion(); got != "1.7.2" {
		t.Errorf("FirmwareVersion = %q, want 1.7.2", got)
	}
}

func TestHandleObsoleteTopic(t *testing.T) {
	bot := newTestBot(t, &fakeTransport{})
	for _, name := range []string{"Speed", "CleanLogs", "ChargeState"} {
		err := bot.Handle(name, decode(`{"body":{}}`))
		if !errors.Is(err, ErrObsoleteTopic) {
			t.Errorf("Handle(%q) = %v, want ErrObsoleteTopic", name, err)
		}
	}
}

func TestHandleRoutesMapPayloads(t *testing.T) {
	bot := newTestBot(t, &fakeTransport{})
	vm := &fakeMap{}
	bot.SetMapHandler(vm)

	for _, name := range []string{"onMapTrace", "onMinorMap", "onPos"} {
		if err := bot.Handle(name, decode(`{"body":{"data":{}}}`)); err != nil {
			t.Fatalf("Handle(%q): %v", name, err)
		}
	}

	handled := vm.handledNames()
	if len(handled) != 3 {
		t.Fatalf("map handler saw %v, want 3 payloads", handled)
	}
}

func TestHandleIgnoresSetEchoes(t *testing.T) {
	bot := newTestBot(t, &fakeTransport{})
	vm := &fakeMap{}
	bot.SetMapHandler(vm)

	if err := bot.Handle("setVoice", decode(`{"body":{}}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(vm.handledNames()) != 0 {
		t.Error("set echo routed to map handler")
	}
}

func TestReconcilerRefreshesOnReturnToAvailability(t *testing.T) {
	transport := &fakeTransport{}
	bot := newTestBot(t, transport)
	vm := &fakeMap{}
	bot.SetMapHandler(vm)

	bot.SetAvailable(true)

	// Expect one refresh per data emitter plus the status re-derivation
	// pair: eight IoT commands, one log fetch, three map collaborator
	// refreshes.
	waitFor(t, func() bool { return len(transport.sentNames()) >= 8 },
		"IoT refresh commands not issued")
	waitFor(t, func() bool { return transport.logCalls() >= 1 },
		"clean log refresh not issued")
	waitFor(t, func() bool { return vm.refreshCount() >= 3 },
		"map refreshes not issued")

	want := map[string]bool{
		"getBattery": false, "getError": false, "getSpeed": false,
		"getLifeSpan": false, "getStats": false, "getWaterInfo": false,
		"getChargeState": false, "getCleanInfo": false,
	}
	for _, name := range transport.sentNames() {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("refresh did not issue %s", name)
		}
	}
}

func TestReconcilerFetchesLogsOnDocking(t *testing.T) {
	transport := &fakeTransport{}
	bot := newTestBot(t, transport)

	bot.Events().Status.Notify(events.StatusEvent{Available: true, State: events.StateCleaning})
	waitFor(t, func() bool { return transport.logCalls() >= 1 },
		"availability refresh not issued")
	waitFor(t, func() bool { return len(transport.sentNames()) >= 8 },
		"availability refresh commands not issued")
	baseline := transport.logCalls()
	baselineSends := len(transport.sentNames())

	bot.Events().Status.Notify(events.StatusEvent{Available: true, State: events.StateDocked})
	waitFor(t, func() bool { return transport.logCalls() == baseline+1 },
		"docking did not refresh clean logs")

	// Give any spurious refreshes a moment to show up.
	time.Sleep(30 * time.Millisecond)
	if got := len(transport.sentNames()); got != baselineSends {
		t.Errorf("docking issued %d extra IoT commands", got-baselineSends)
	}
}

func TestStatusRefreshQueriesChargeAndCleanState(t *testing.T) {
	transport := &fakeTransport{}
	bot := newTestBot(t, transport)

	bot.Events().Status.RequestRefresh()

	waitFor(t, func() bool { return len(transport.sentNames()) >= 2 },
		"status refresh commands not issued")

	want := map[string]bool{"getChargeState": false, "getCleanInfo": false}
	for _, name := range transport.sentNames() {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("status refresh did not issue %s", name)
		}
	}
}

func TestSetAvailableClearsStateWhenUnreachable(t *testing.T) {
	bot := newTestBot(t, &fakeTransport{})
	bot.Events().Status.Notify(events.StatusEvent{Available: false, State: events.StateCleaning})

	bot.SetAvailable(false)

	status := bot.Status()
	if status.Available || status.State != events.StateUnknown {
		t.Errorf("status = %+v, want unavailable with unknown state", status)
	}
}
