package coordinator

import (
	"time"

	"github.com/markInTheAbyss/tdactor-go/actor"
	"github.com/markInTheAbyss/tdactor-go/promise"
	"github.com/markInTheAbyss/tdactor-go/scheduler"
)

// NetType is the coarse network category StateManager's owner reports
// through OnNetwork. NetTypeNone means "no network", distinct from
// NetTypeUnknown ("network present, kind not yet classified") — the
// distinction that disables up/down debounce below.
type NetType int

const (
	NetTypeNone NetType = iota
	NetTypeUnknown
	NetTypeMobile
	NetTypeWiFi
	NetTypeOther
)

// ConnectionState is StateManager's aggregate output. Ordinal order
// matters: loop compares pendingState > flushState to choose the
// UpDelay/DownDelay debounce, mirroring the teacher's enum-as-ordinal
// trick.
type ConnectionState int

const (
	StateEmpty ConnectionState = iota
	StateWaitingForNetwork
	StateConnectingToProxy
	StateConnecting
	StateUpdating
	StateReady
)

func (s ConnectionState) String() string {
	switch s {
	case StateWaitingForNetwork:
		return "WaitingForNetwork"
	case StateConnectingToProxy:
		return "ConnectingToProxy"
	case StateConnecting:
		return "Connecting"
	case StateUpdating:
		return "Updating"
	case StateReady:
		return "Ready"
	default:
		return "Empty"
	}
}

const (
	upDelay   = 50 * time.Millisecond
	downDelay = 300 * time.Millisecond
)

// StateManagerCallback observes StateManager's flags. Returning false
// from any method removes the callback from the list — the one-shot
// observer idiom. Embed StateManagerCallbackBase to get "stay
// subscribed" defaults and override only what you watch.
type StateManagerCallback interface {
	OnState(state ConnectionState) bool
	OnNetwork(netType NetType, generation uint32) bool
	OnOnline(isOnline bool) bool
	OnLoggingOut(isLoggingOut bool) bool
}

// StateManagerCallbackBase supplies "keep me subscribed" (true)
// defaults for every StateManagerCallback method.
type StateManagerCallbackBase struct{}

func (StateManagerCallbackBase) OnState(ConnectionState) bool   { return true }
func (StateManagerCallbackBase) OnNetwork(NetType, uint32) bool { return true }
func (StateManagerCallbackBase) OnOnline(bool) bool             { return true }
func (StateManagerCallbackBase) OnLoggingOut(bool) bool         { return true }

type stateFlag int

const (
	flagOnline stateFlag = iota
	flagState
	flagNetwork
	flagLoggingOut
)

// StateManager aggregates {network, sync, proxy, logging_out,
// connect_cnt, connect_proxy_cnt} into a single debounced
// ConnectionState and fans out changes to registered callbacks.
// Grounded on original_source's StateManager.h/.cpp: loop/notify_flag/
// get_real_state map directly onto loop/notifyFlag/realState below.
// The two connection counters are distinguished by LinkToken (1 for a
// direct connection, any other value for a proxied one), mirroring
// get_link_token() == 1 in the original.
type StateManager struct {
	actor.Base

	ctx actor.Ctx

	syncFlag    bool
	networkFlag bool
	networkType NetType
	networkGen  uint32
	onlineFlag  bool
	useProxy    bool
	loggingOut  bool

	connectCnt      int
	connectProxyCnt int

	pendingState     ConnectionState
	hasTimestamp     bool
	pendingTimestamp time.Time
	flushState       ConnectionState

	callbacks []StateManagerCallback

	wasSync       bool
	waitFirstSync []promise.Promise[struct{}]
}

// NewStateManager constructs a StateManager actor body, matching the
// teacher's defaults: sync and network both assumed healthy until
// told otherwise.
func NewStateManager() *StateManager {
	return &StateManager{syncFlag: true, networkFlag: true, networkGen: 1}
}

// CreateStateManager creates a StateManager actor on src's scheduler.
func CreateStateManager(rt *scheduler.Runtime, src scheduler.SchedulerSource, name string) actor.Own[*StateManager] {
	return scheduler.CreateActor[*StateManager](rt, src, name, func() *StateManager {
		return NewStateManager()
	})
}

func (m *StateManager) OnStart(ctx actor.Ctx) {
	m.ctx = ctx
	m.loop()
}

func (m *StateManager) OnTimeout(actor.Ctx) {
	m.loop()
}

// IncConnect registers one more live connection; linkToken 1 counts as
// a direct connection, any other value as a proxied one.
func (m *StateManager) IncConnect(linkToken int64) {
	cnt := m.connectCounter(linkToken)
	*cnt++
	if *cnt == 1 {
		m.loop()
	}
}

// DecConnect releases one previously-incremented connection.
func (m *StateManager) DecConnect(linkToken int64) {
	cnt := m.connectCounter(linkToken)
	*cnt--
	if *cnt == 0 {
		m.loop()
	}
}

func (m *StateManager) connectCounter(linkToken int64) *int {
	if linkToken == 1 {
		return &m.connectCnt
	}
	return &m.connectProxyCnt
}

// OnSynchronized reports whether local state is in sync with the
// server; resolves every pending WaitFirstSync promise the first time
// it is seen true.
func (m *StateManager) OnSynchronized(isSynchronized bool) {
	if m.syncFlag != isSynchronized {
		m.syncFlag = isSynchronized
		m.loop()
	}
	if m.syncFlag && !m.wasSync {
		m.wasSync = true
		promises := m.waitFirstSync
		m.waitFirstSync = nil
		for _, p := range promises {
			p.SetValue(struct{}{})
		}
	}
}

// OnNetwork reports the current network classification; NetTypeNone
// means absent, NetTypeUnknown means present but unclassified (which
// disables debounce for the next transition).
func (m *StateManager) OnNetwork(newType NetType) {
	newFlag := newType != NetTypeNone
	if m.networkFlag != newFlag {
		m.networkFlag = newFlag
		m.loop()
	}
	m.networkType = newType
	m.networkGen++
	m.notifyFlag(flagNetwork)
}

// OnOnline reports presence-style online/offline state, independent of
// ConnectionState.
func (m *StateManager) OnOnline(isOnline bool) {
	m.onlineFlag = isOnline
	m.notifyFlag(flagOnline)
}

// OnProxy reports whether outbound connections are proxied.
func (m *StateManager) OnProxy(useProxy bool) {
	m.useProxy = useProxy
	m.OnNetwork(m.networkType)
	m.loop()
}

// OnLoggingOut reports the account logging-out flag.
func (m *StateManager) OnLoggingOut(isLoggingOut bool) {
	m.loggingOut = isLoggingOut
	m.notifyFlag(flagLoggingOut)
}

// AddCallback registers cb, delivering its current view of network,
// online and state immediately; cb is dropped right away if any of
// those initial calls return false.
func (m *StateManager) AddCallback(cb StateManagerCallback) {
	if cb.OnNetwork(m.networkType, m.networkGen) && cb.OnOnline(m.onlineFlag) && cb.OnState(m.realState()) {
		m.callbacks = append(m.callbacks, cb)
	}
}

// WaitFirstSync resolves p as soon as sync has been observed true at
// least once; resolves immediately if that has already happened.
func (m *StateManager) WaitFirstSync(p promise.Promise[struct{}]) {
	if m.wasSync {
		p.SetValue(struct{}{})
		return
	}
	m.waitFirstSync = append(m.waitFirstSync, p)
}

func (m *StateManager) realState() ConnectionState {
	if !m.networkFlag {
		return StateWaitingForNetwork
	}
	if m.connectCnt == 0 {
		if m.useProxy && m.connectProxyCnt == 0 {
			return StateConnectingToProxy
		}
		return StateConnecting
	}
	if !m.syncFlag {
		return StateUpdating
	}
	return StateReady
}

func (m *StateManager) notifyFlag(flag stateFlag) {
	kept := m.callbacks[:0]
	for _, cb := range m.callbacks {
		var ok bool
		switch flag {
		case flagOnline:
			ok = cb.OnOnline(m.onlineFlag)
		case flagState:
			ok = cb.OnState(m.flushState)
		case flagNetwork:
			ok = cb.OnNetwork(m.networkType, m.networkGen)
		case flagLoggingOut:
			ok = cb.OnLoggingOut(m.loggingOut)
		}
		if ok {
			kept = append(kept, cb)
		}
	}
	m.callbacks = kept
}

// loop recomputes the real state, starts or extends the debounce
// window when it changes, and either flushes flushState to callbacks
// or re-arms this actor's single timeout slot for when the window
// closes.
func (m *StateManager) loop() {
	now := time.Now()
	state := m.realState()
	if state != m.pendingState {
		m.pendingState = state
		if !m.hasTimestamp {
			m.pendingTimestamp = now
			m.hasTimestamp = true
		}
	}

	if m.pendingState == m.flushState {
		m.hasTimestamp = false
		return
	}

	delay := time.Duration(0)
	if m.flushState != StateEmpty {
		if m.pendingState > m.flushState {
			delay = upDelay
		} else {
			delay = downDelay
		}
		if m.networkType == NetTypeUnknown {
			delay = 0
		}
	}

	deadline := m.pendingTimestamp.Add(delay)
	if !now.Before(deadline) {
		m.hasTimestamp = false
		m.flushState = m.pendingState
		m.notifyFlag(flagState)
	} else if m.ctx != nil {
		m.ctx.SetTimeoutAt(deadline)
	}
}
