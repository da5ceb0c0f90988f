/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zarfld/IEEE-1588-2019-sub011/clock"
	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/bmc"
	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/quality"
	portstats "github.com/zarfld/IEEE-1588-2019-sub011/ptp/stats"
	"github.com/zarfld/IEEE-1588-2019-sub011/servo"
)

//go:generate mockgen -source=port.go -destination=mock_port.go -package=engine

// Transmitter is the wire side of a port. Implementations own egress
// timestamping: SendSync and SendDelayReq hand the egress timestamp
// back so the port can echo it in the Follow_Up and pair it as T3.
type Transmitter interface {
	SendAnnounce(ds ptp.ClockDataset, tp ptp.TimePropertiesDataset, seq uint16) error
	SendSync(seq uint16) (time.Time, error)
	SendFollowUp(seq uint16, t1 time.Time) error
	SendDelayReq(seq uint16) (time.Time, error)
}

// FaultCallback is how the caller learns the port went FAULTY
type FaultCallback func(err error)

// how often the port publishes status and re-evaluates its quality
const heartbeatInterval = time.Second

// pending events within one evaluation cycle never exceed a handful,
// the queue just has to absorb a burst of timers plus one BMCA outcome
const maxPendingEvents = 16

// errFaultDetected backs fault notifications that carry no richer
// cause, typically an operator-dispatched FAULT_DETECTED
var errFaultDetected = errors.New("port fault detected")

// Port drives one PTP port: it feeds decoded messages into the foreign
// master table and the timestamp assembler, runs the state machine with
// its same-cycle tie-break, paces master and slave duties, and turns
// accepted offset samples into clock corrections.
//
// All methods must be called from a single goroutine, the daemon's
// event loop. The port itself never blocks, spawns nothing and holds no
// wall-clock timers: time only advances through the now arguments.
type Port struct {
	cfg     *Config
	clk     *clock.Retrying
	tr      Transmitter
	stats   StatsServer
	onFault FaultCallback

	bmca *bmc.Engine
	pi   *servo.PiServo
	m    *measurements

	identity ptp.PortIdentity
	state    ptp.PortState

	current   ptp.CurrentDataset
	parent    ptp.ParentDataset
	timeProps ptp.TimePropertiesDataset

	// localDS is what we would advertise as a master candidate, nil on
	// slave-only ports. The table engine compares through this same
	// pointer, so quality re-evaluations reach the BMCA in place.
	localDS    *ptp.ClockDataset
	advertised ptp.ClockQuality

	qualityRing *quality.RingBuffer

	pending  []Event
	draining bool

	// now is the time of the current evaluation cycle, set on entry
	now time.Time

	announceDeadline time.Time
	qualDeadline     time.Time
	qualifying       bool
	nextAnnounceTx   time.Time
	nextSyncTx       time.Time
	nextDelayReqTx   time.Time
	nextHeartbeat    time.Time

	seqAnnounce uint16
	seqSync     uint16

	calibrationStreak  int
	invalidTransitions int64
	degraded           bool

	servoState   servo.State
	gmPresent    bool
	lastSample   Sample
	haveSample   bool
	lastSampleAt time.Time
	faultErr     error
	lastErr      string

	rxKeys map[ptp.MessageType]string
	txKeys map[ptp.MessageType]string
}

// NewPort prepares a port in INITIALIZING with everything preallocated.
// The clock identity is derived from the configured interface unless the
// config carries one already. cfg must survive the port: the advertised
// dataset and the measurement gates read through it.
func NewPort(cfg *Config, clk clock.Clock, tr Transmitter, stats StatsServer) (*Port, error) {
	if cfg.ClockIdentity == 0 {
		if err := cfg.DeriveClockIdentity(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dst := clk
	if cfg.FreeRunning {
		dst = &clock.FreeRunningClock{}
	}
	freq, err := dst.FrequencyPPB()
	if err != nil {
		return nil, fmt.Errorf("reading clock frequency: %w", err)
	}
	log.Debugf("starting clock frequency: %v", freq)

	servoCfg := servo.DefaultServoConfig()
	if cfg.StepThreshold != 0 {
		servoCfg.StepThreshold = cfg.StepThreshold.Nanoseconds()
	}
	if cfg.FirstStepThreshold != 0 {
		// allow stepping clock on first update
		servoCfg.FirstUpdate = true
		servoCfg.FirstStepThreshold = cfg.FirstStepThreshold.Nanoseconds()
	}
	pi := servo.NewPiServo(servoCfg, servo.DefaultPiServoCfg(), -freq)
	maxFreq, err := dst.MaxFreqPPB()
	if err != nil || maxFreq <= 0 {
		log.Warningf("max clock frequency unknown, assuming %v: %v", clock.DefaultMaxFreqPPB, err)
		maxFreq = clock.DefaultMaxFreqPPB
	}
	pi.SetMaxFreq(maxFreq)
	servo.NewPiServoFilter(pi, servo.DefaultPiServoFilterCfg())
	pi.SyncInterval(cfg.SyncInterval.Seconds())

	advertised := ptp.ClockQuality{
		ClockClass:              ptp.ClockClassDefault,
		ClockAccuracy:           ptp.ClockAccuracyUnknown,
		OffsetScaledLogVariance: 0xffff,
	}
	localDS := cfg.localDataset(&advertised)
	p := &Port{
		cfg:         cfg,
		clk:         clock.NewRetrying(dst),
		tr:          tr,
		stats:       stats,
		bmca:        bmc.NewEngine(cfg.bmcConfig(localDS)),
		pi:          pi,
		m:           newMeasurements(&cfg.Measurement, stats),
		identity:    cfg.portIdentity(),
		state:       ptp.PortStateInitializing,
		timeProps:   ptp.DefaultTimePropertiesDataset(),
		localDS:     localDS,
		advertised:  advertised,
		qualityRing: quality.NewRingBuffer(cfg.QualitySample),
		pending:     make([]Event, 0, maxPendingEvents),
		rxKeys:      messageKeys(portstats.PortStatsRxPrefix),
		txKeys:      messageKeys(portstats.PortStatsTxPrefix),
	}
	p.parent = p.selfParent()
	return p, nil
}

func messageKeys(prefix string) map[ptp.MessageType]string {
	keys := make(map[ptp.MessageType]string, len(ptp.MessageTypeToString))
	for t := range ptp.MessageTypeToString {
		keys[t] = fmt.Sprintf("%s%s", prefix, strings.ToLower(t.String()))
	}
	return keys
}

// OnFault registers the callback invoked whenever the port surfaces a
// fault, from the transition table or forced
func (p *Port) OnFault(cb FaultCallback) {
	p.onFault = cb
}

// State returns the current port state
func (p *Port) State() ptp.PortState {
	return p.state
}

// Identity returns the port identity
func (p *Port) Identity() ptp.PortIdentity {
	return p.identity
}

// PortSnapshot is a point-in-time view of everything the port knows
type PortSnapshot struct {
	Identity           ptp.PortIdentity          `json:"identity"`
	State              ptp.PortState             `json:"state"`
	ServoState         servo.State               `json:"servo_state"`
	Parent             ptp.ParentDataset         `json:"parent"`
	Current            ptp.CurrentDataset        `json:"current"`
	TimeProperties     ptp.TimePropertiesDataset `json:"time_properties"`
	AdvertisedQuality  ptp.ClockQuality          `json:"advertised_quality"`
	GMPresent          bool                      `json:"gm_present"`
	CalibrationStreak  int                       `json:"calibration_streak"`
	InvalidTransitions int64                     `json:"invalid_transitions"`
	Degraded           bool                      `json:"degraded"`
	LastError          string                    `json:"last_error"`
}

// Snapshot returns the current snapshot of the port
func (p *Port) Snapshot() PortSnapshot {
	return PortSnapshot{
		Identity:           p.identity,
		State:              p.state,
		ServoState:         p.servoState,
		Parent:             p.parent,
		Current:            p.current,
		TimeProperties:     p.timeProps,
		AdvertisedQuality:  p.advertised,
		GMPresent:          p.gmPresent,
		CalibrationStreak:  p.calibrationStreak,
		InvalidTransitions: p.invalidTransitions,
		Degraded:           p.degraded,
		LastError:          p.lastErr,
	}
}

// Dispatch delivers one event to the state machine and drains whatever
// else is pending in fixed priority order. Effects that restart timers
// measure from the last observed now. Returns the resulting state.
func (p *Port) Dispatch(ev Event) ptp.PortState {
	p.enqueue(ev)
	return p.drain()
}

// ClearFault is the operator acknowledgement that the fault condition
// is gone. The foreign master table survives unless wipe is set, so
// recovery can resume with the candidates known before the fault.
func (p *Port) ClearFault(wipe bool) ptp.PortState {
	if wipe {
		p.bmca.ClearForeignMasters()
	}
	return p.Dispatch(EventFaultCleared)
}

func (p *Port) enqueue(ev Event) {
	p.pending = append(p.pending, ev)
}

func (p *Port) drain() ptp.PortState {
	if p.draining {
		return p.state
	}
	p.draining = true
	defer func() { p.draining = false }()
	for len(p.pending) > 0 {
		// lowest priority value first, stable among equals
		i := 0
		for j := 1; j < len(p.pending); j++ {
			if p.pending[j].priority() < p.pending[i].priority() {
				i = j
			}
		}
		ev := p.pending[i]
		copy(p.pending[i:], p.pending[i+1:])
		p.pending = p.pending[:len(p.pending)-1]
		p.apply(ev)
	}
	return p.state
}

func (p *Port) apply(ev Event) {
	next, effects, ok := transition(p.state, ev)
	if !ok {
		p.invalidTransitions++
		p.stats.UpdateCounterBy("ptp.engine.port.invalid_transitions", 1)
		log.Debugf("port %s: no transition from %s on %s", p.identity, p.state, ev)
		if !p.degraded && p.cfg.InvalidTransitionThreshold > 0 &&
			p.invalidTransitions >= int64(p.cfg.InvalidTransitionThreshold) {
			p.degraded = true
			p.stats.SetCounter("ptp.engine.port.degraded", 1)
			log.Warningf("port %s: %d invalid transition attempts, flagging degraded health", p.identity, p.invalidTransitions)
		}
		return
	}
	prev := p.state
	p.state = next
	log.Infof("port %s: %s -> %s on %s", p.identity, prev, next, ev)
	for _, eff := range effects {
		p.runEffect(eff, ev)
	}
	p.afterTransition(prev, next)
}

func (p *Port) runEffect(eff Effect, ev Event) {
	switch eff {
	case EffectResetServo:
		p.pi.Reset()
		p.servoState = servo.StateInit
		p.calibrationStreak = 0
	case EffectClearQuadruple:
		p.m.clear()
	case EffectMarkTracking:
		p.stats.UpdateCounterBy("ptp.engine.port.calibrations", 1)
		if err := p.clk.SetSync(); err != nil {
			log.Errorf("port %s: failed to mark clock synchronized: %v", p.identity, err)
		}
		log.Infof("port %s: calibrated, tracking %s", p.identity, p.parent.GrandmasterIdentity)
	case EffectHoldFrequency:
		p.holdFrequency()
		p.servoState = servo.StateHoldover
	case EffectNotifyFault:
		err := p.faultErr
		p.faultErr = nil
		if err == nil {
			err = errFaultDetected
		}
		p.lastErr = err.Error()
		p.stats.UpdateCounterBy("ptp.engine.port.faults", 1)
		if p.onFault != nil {
			p.onFault(err)
		}
	case EffectStartQualification:
		p.qualifying = true
		window := p.cfg.qualificationWindow()
		if ev == EventRsGrandMaster {
			// nobody to qualify against, the field is ours
			window = 0
		}
		p.qualDeadline = p.now.Add(window)
	case EffectStopQualification:
		p.qualifying = false
	case EffectRestartAnnounceTimer:
		p.announceDeadline = p.now.Add(p.cfg.announceReceiptTimeout())
	}
}

func (p *Port) afterTransition(prev, next ptp.PortState) {
	switch next {
	case ptp.PortStateMaster:
		p.becomeMaster()
	case ptp.PortStateListening:
		p.gmPresent = false
	case ptp.PortStateInitializing:
		if prev == ptp.PortStateFaulty {
			p.lastErr = ""
		}
	}
	if prev == ptp.PortStateMaster && next != ptp.PortStateMaster {
		p.nextAnnounceTx = time.Time{}
		p.nextSyncTx = time.Time{}
	}
	p.stats.SetCounter("ptp.engine.port.state", int64(next))
}

// forceFault drives the port to FAULTY even from states the transition
// table gives no FAULT_DETECTED row: persistent huge offsets and
// exhausted clock adjustments park the port however it got there.
// Counted separately from invalid transitions.
func (p *Port) forceFault() {
	switch p.state {
	case ptp.PortStateFaulty, ptp.PortStateDisabled:
		p.faultErr = nil
		return
	}
	if _, _, ok := transition(p.state, EventFaultDetected); ok {
		p.enqueue(EventFaultDetected)
		p.drain()
		return
	}
	prev := p.state
	p.state = ptp.PortStateFaulty
	p.stats.UpdateCounterBy("ptp.engine.port.forced_faults", 1)
	log.Errorf("port %s: %s -> %s forced", p.identity, prev, p.state)
	for _, eff := range faultyEntryEffects {
		p.runEffect(eff, EventFaultDetected)
	}
	p.afterTransition(prev, p.state)
}

func (p *Port) tracking() bool {
	return p.state == ptp.PortStateUncalibrated || p.state == ptp.PortStateSlave
}

// ProcessAnnounce feeds a decoded Announce into the foreign master
// table and refreshes the receipt timer. Rejections are returned for
// the caller's diagnostics and never mutate the table.
func (p *Port) ProcessAnnounce(src ptp.PortIdentity, ds ptp.ClockDataset, now time.Time) error {
	p.now = now
	p.stats.UpdateCounterBy(p.rxKeys[ptp.MessageAnnounce], 1)
	switch p.state {
	case ptp.PortStateInitializing, ptp.PortStateFaulty, ptp.PortStateDisabled:
		return nil
	}
	if err := p.bmca.AdmitAnnounce(src, ds, now); err != nil {
		log.Debugf("port %s: announce from %s rejected: %v", p.identity, src, err)
		return err
	}
	p.announceDeadline = now.Add(p.cfg.announceReceiptTimeout())
	return nil
}

// ProcessSync records T2, the sync ingress timestamp
func (p *Port) ProcessSync(seq uint16, t2 time.Time, now time.Time) {
	p.now = now
	p.stats.UpdateCounterBy(p.rxKeys[ptp.MessageSync], 1)
	if !p.tracking() {
		return
	}
	p.m.addSync(seq, t2)
}

// ProcessFollowUp records T1, the precise origin timestamp
func (p *Port) ProcessFollowUp(seq uint16, t1 time.Time, now time.Time) {
	p.now = now
	p.stats.UpdateCounterBy(p.rxKeys[ptp.MessageFollowUp], 1)
	if !p.tracking() {
		return
	}
	p.m.addFollowUp(seq, t1)
}

// DelayReqSent records T3, our delay request egress timestamp. The
// port calls it itself right after a send; transports that resolve
// hardware timestamps late report through here too.
func (p *Port) DelayReqSent(seq uint16, t3 time.Time, now time.Time) {
	p.now = now
	if !p.tracking() {
		return
	}
	p.m.addDelayReq(seq, t3)
}

// ProcessDelayResp records T4 and, when it completes the exchange,
// turns the quadruple into a clock correction. Gate rejections are
// returned; persistent huge offsets force the port FAULTY.
func (p *Port) ProcessDelayResp(seq uint16, t4 time.Time, now time.Time) error {
	p.now = now
	p.stats.UpdateCounterBy(p.rxKeys[ptp.MessageDelayResp], 1)
	if !p.tracking() {
		return nil
	}
	sample, err := p.m.addDelayResp(seq, t4)
	if err != nil {
		return p.handleMeasurementError(err)
	}
	p.handleSample(sample, now)
	return nil
}

func (p *Port) handleMeasurementError(err error) error {
	switch {
	case errors.Is(err, errNotEnoughData):
		return nil
	case errors.Is(err, ErrHugeOffset):
		p.calibrationStreak = 0
		log.Warningf("port %s: %v", p.identity, err)
		if p.m.hugeOffsetStreak >= p.cfg.HugeOffsetEscalation {
			p.faultErr = fmt.Errorf("%d consecutive offsets above %v: %w",
				p.m.hugeOffsetStreak, p.cfg.Measurement.MaxOffset, ErrHugeOffset)
			p.forceFault()
		}
		return err
	case errors.Is(err, ErrTimestampOrdering):
		p.calibrationStreak = 0
		log.Warningf("port %s: %v", p.identity, err)
		return err
	}
	return err
}

// handleSample runs one accepted offset sample through the servo and
// applies the verdict to the clock
func (p *Port) handleSample(s Sample, now time.Time) {
	p.lastSample = s
	p.haveSample = true
	p.lastSampleAt = now
	p.current.OffsetFromMaster = s.Offset
	p.current.MeanPathDelay = s.MeanPathDelay

	offset := s.Offset.Nanoseconds()
	isSpike := p.pi.IsSpike(offset)
	var state servo.State
	var freqAdj float64
	if isSpike {
		p.stats.UpdateCounterBy("ptp.engine.port.filtered", 1)
		freqAdj = p.holdFrequency()
		if p.pi.GetState() == servo.StateLocked {
			state = servo.StateFilter
		} else {
			state = servo.StateInit
		}
	} else {
		freqAdj, state = p.pi.Sample(offset, uint64(s.Timestamp.UnixNano()))
	}
	p.servoState = state
	log.Infof("offset %10d servo %s freq %+7.0f path delay %10d",
		offset, state, -freqAdj, s.MeanPathDelay.Nanoseconds())

	switch state {
	case servo.StateJump:
		log.Infof("port %s: stepping clock by %v", p.identity, -s.Offset)
		if err := p.clk.Step(-s.Offset); err != nil {
			p.adjustmentFailed(err)
			return
		}
		p.stats.UpdateCounterBy("ptp.engine.port.steps", 1)
	case servo.StateLocked:
		if err := p.clk.AdjFreqPPB(-freqAdj); err != nil {
			p.adjustmentFailed(err)
			return
		}
		if err := p.clk.SetSync(); err != nil {
			log.Errorf("port %s: failed to set clock sync state: %v", p.identity, err)
		}
		// make sure we don't step after we get into the locked state
		p.pi.UnsetFirstUpdate()
	}

	p.qualityRing.Write(&quality.DataPoint{Offset: s.Offset, Class: p.observedClass()})

	if p.state == ptp.PortStateUncalibrated {
		if isSpike {
			p.calibrationStreak = 0
			return
		}
		p.calibrationStreak++
		if p.calibrationStreak >= p.cfg.CalibrationSamples {
			p.enqueue(EventMasterClockSelected)
			p.drain()
		}
	}
}

// adjustmentFailed handles an exhausted clock adjustment: the retry
// wrapper already did its tries, all that is left is to fault the port
func (p *Port) adjustmentFailed(err error) {
	p.stats.UpdateCounterBy("ptp.engine.port.adjustment_failures", 1)
	log.Errorf("port %s: %v", p.identity, err)
	p.faultErr = err
	p.forceFault()
}

// holdFrequency parks the clock at the servo's mean frequency. Best
// effort: a failure here must not start another fault round.
func (p *Port) holdFrequency() float64 {
	freqAdj := p.pi.MeanFreq()
	p.pi.SetLastFreq(freqAdj)
	if err := p.clk.AdjFreqPPB(-1 * freqAdj); err != nil {
		log.Errorf("port %s: failed to hold frequency at %v: %v", p.identity, -freqAdj, err)
	}
	return freqAdj
}

// Tick is the periodic evaluation cycle: age the table, collect due
// timer events and the BMCA outcome, drain them in priority order,
// then run whatever duties the resulting state carries.
func (p *Port) Tick(now time.Time) {
	p.now = now
	p.bmca.AgeTable(now)
	p.checkAnnounceTimeout(now)
	p.checkQualification(now)
	p.evaluateBMCA()
	p.drain()
	// qualification may have been armed with a zero window this cycle
	p.checkQualification(now)
	p.drain()
	p.masterDuties(now)
	p.slaveDuties(now)
	p.heartbeat(now)
}

func (p *Port) checkAnnounceTimeout(now time.Time) {
	if !p.tracking() {
		return
	}
	if p.announceDeadline.IsZero() || now.Before(p.announceDeadline) {
		return
	}
	p.stats.UpdateCounterBy("ptp.engine.port.announce_timeouts", 1)
	log.Warningf("port %s: no announce for %v, master lost", p.identity, p.cfg.announceReceiptTimeout())
	p.gmPresent = false
	p.announceDeadline = now.Add(p.cfg.announceReceiptTimeout())
	p.enqueue(EventAnnounceReceiptTimeout)
}

func (p *Port) checkQualification(now time.Time) {
	if p.state != ptp.PortStatePreMaster || !p.qualifying {
		return
	}
	if now.Before(p.qualDeadline) {
		return
	}
	p.enqueue(EventQualificationTimeout)
}

// evaluateBMCA maps the selection outcome onto recommended-state
// events. Only states with a matching table row get an event, so a
// recommendation never produces an invalid dispatch.
func (p *Port) evaluateBMCA() {
	switch p.state {
	case ptp.PortStateInitializing, ptp.PortStateFaulty, ptp.PortStateDisabled:
		return
	}
	best := p.bmca.SelectBest()
	rec := p.bmca.RecommendState(p.state, best)
	if rec.MasterChanged {
		p.stats.UpdateCounterBy("ptp.engine.port.master_changes", 1)
		log.Warningf("port %s: grandmaster changed to %s", p.identity, rec.Dataset.GrandmasterIdentity)
	}
	switch rec.State {
	case ptp.PortStateMaster:
		switch p.state {
		case ptp.PortStatePreMaster, ptp.PortStateMaster:
			// already there or on the way
		case ptp.PortStateListening, ptp.PortStatePassive:
			if p.bmca.Qualified() == 0 {
				p.enqueue(EventRsGrandMaster)
			} else {
				p.enqueue(EventRsMaster)
			}
		default:
			p.enqueue(EventRsMaster)
		}
	case ptp.PortStateSlave:
		if src, ok := p.bmca.SourceOf(rec.Dataset); ok {
			p.trackForeign(src, rec.Dataset)
		}
		switch p.state {
		case ptp.PortStateSlave:
			if rec.MasterChanged {
				// the old time transfer is void, recalibrate against
				// the new grandmaster
				p.enqueue(EventSynchronizationFault)
			}
		case ptp.PortStateUncalibrated:
			if rec.MasterChanged {
				p.pi.Reset()
				p.servoState = servo.StateInit
				p.m.clear()
				p.calibrationStreak = 0
			}
		default:
			p.enqueue(EventRsSlave)
		}
	case ptp.PortStatePassive:
		if p.state != ptp.PortStatePassive {
			p.enqueue(EventRsPassive)
		}
	case ptp.PortStateListening:
		// nothing to follow; the receipt timer brings tracking states home
	}
}

func (p *Port) trackForeign(src ptp.PortIdentity, ds *ptp.ClockDataset) {
	p.parent = ptp.ParentDataset{
		ParentPortIdentity:      src,
		GrandmasterIdentity:     ds.GrandmasterIdentity,
		GrandmasterClockQuality: ds.ClockQuality,
		GrandmasterPriority1:    ds.Priority1,
		GrandmasterPriority2:    ds.Priority2,
	}
	p.current.StepsRemoved = ds.StepsRemoved + 1
	p.timeProps.TimeSource = ptp.TimeSourcePTP
	p.gmPresent = true
}

func (p *Port) selfParent() ptp.ParentDataset {
	return ptp.ParentDataset{
		ParentPortIdentity:      p.identity,
		GrandmasterIdentity:     p.cfg.ClockIdentity,
		GrandmasterClockQuality: p.advertised,
		GrandmasterPriority1:    p.cfg.Priority1,
		GrandmasterPriority2:    p.cfg.Priority2,
	}
}

func (p *Port) becomeMaster() {
	p.parent = p.selfParent()
	p.current = ptp.CurrentDataset{}
	p.timeProps = ptp.DefaultTimePropertiesDataset()
	p.gmPresent = false
	p.nextAnnounceTx = time.Time{}
	p.nextSyncTx = time.Time{}
}

func (p *Port) masterDuties(now time.Time) {
	if p.state != ptp.PortStateMaster || p.localDS == nil {
		return
	}
	if p.nextAnnounceTx.IsZero() || !now.Before(p.nextAnnounceTx) {
		if err := p.tr.SendAnnounce(*p.localDS, p.timeProps, p.seqAnnounce); err != nil {
			p.stats.UpdateCounterBy("ptp.engine.port.tx_errors", 1)
			log.Errorf("port %s: sending announce: %v", p.identity, err)
		} else {
			p.stats.UpdateCounterBy(p.txKeys[ptp.MessageAnnounce], 1)
			p.seqAnnounce++
		}
		p.nextAnnounceTx = now.Add(p.cfg.AnnounceInterval)
	}
	if p.nextSyncTx.IsZero() || !now.Before(p.nextSyncTx) {
		t1, err := p.tr.SendSync(p.seqSync)
		if err != nil {
			p.stats.UpdateCounterBy("ptp.engine.port.tx_errors", 1)
			log.Errorf("port %s: sending sync: %v", p.identity, err)
		} else {
			p.stats.UpdateCounterBy(p.txKeys[ptp.MessageSync], 1)
			if err := p.tr.SendFollowUp(p.seqSync, t1); err != nil {
				p.stats.UpdateCounterBy("ptp.engine.port.tx_errors", 1)
				log.Errorf("port %s: sending follow-up: %v", p.identity, err)
			} else {
				p.stats.UpdateCounterBy(p.txKeys[ptp.MessageFollowUp], 1)
			}
			p.seqSync++
		}
		p.nextSyncTx = now.Add(p.cfg.SyncInterval)
	}
}

func (p *Port) slaveDuties(now time.Time) {
	if !p.tracking() {
		return
	}
	seq, ok := p.m.awaitingDelayReq()
	if !ok {
		return
	}
	if !p.nextDelayReqTx.IsZero() && now.Before(p.nextDelayReqTx) {
		return
	}
	t3, err := p.tr.SendDelayReq(seq)
	if err != nil {
		p.stats.UpdateCounterBy("ptp.engine.port.tx_errors", 1)
		log.Errorf("port %s: sending delay request: %v", p.identity, err)
		return
	}
	p.stats.UpdateCounterBy(p.txKeys[ptp.MessageDelayReq], 1)
	p.DelayReqSent(seq, t3, now)
	p.nextDelayReqTx = now.Add(p.cfg.MinDelayReqInterval)
}

func (p *Port) heartbeat(now time.Time) {
	if !p.nextHeartbeat.IsZero() && now.Before(p.nextHeartbeat) {
		return
	}
	p.nextHeartbeat = now.Add(heartbeatInterval)
	if p.tracking() && p.haveSample && now.Sub(p.lastSampleAt) >= heartbeatInterval {
		// no fresh exchange this interval, record the coasting view
		p.qualityRing.Write(&quality.DataPoint{Offset: p.current.OffsetFromMaster, Class: p.observedClass()})
	}
	p.reassessQuality()
	p.publishCounters()
	p.publishStatus()
	log.Debugf("port %s: state %s servo %s offset %v delay %v gm %s",
		p.identity, p.state, p.servoState, p.current.OffsetFromMaster, p.current.MeanPathDelay, p.parent.GrandmasterIdentity)
}

// observedClass is the clockClass our own clock earns right now
func (p *Port) observedClass() ptp.ClockClass {
	switch p.state {
	case ptp.PortStateSlave:
		if p.pi.GetState() == servo.StateLocked {
			return quality.ClockClassLock
		}
		return quality.ClockClassHoldover
	case ptp.PortStateUncalibrated:
		return quality.ClockClassCalibrating
	}
	return quality.ClockClassUncalibrated
}

// reassessQuality folds the recent offset window into the quality
// vector the port advertises. The table engine sees the update through
// the shared local dataset.
func (p *Port) reassessQuality() {
	q, err := quality.Worst(p.qualityRing.Data(), p.cfg.AccuracyExpr, p.cfg.ClassExpr)
	if err != nil {
		log.Errorf("port %s: evaluating clock quality: %v", p.identity, err)
		return
	}
	if q == nil || *q == p.advertised {
		return
	}
	log.Infof("port %s: advertised clock quality %+v -> %+v", p.identity, p.advertised, *q)
	p.advertised = *q
	p.stats.UpdateCounterBy("ptp.engine.port.quality_changes", 1)
	if p.localDS != nil {
		p.localDS.ClockQuality = *q
	}
	if p.state == ptp.PortStateMaster {
		p.parent.GrandmasterClockQuality = *q
	}
}

func (p *Port) publishCounters() {
	c := p.bmca.Stats()
	p.stats.SetCounter("ptp.engine.bmc.admitted", int64(c.Admitted))
	p.stats.SetCounter("ptp.engine.bmc.refreshed", int64(c.Refreshed))
	p.stats.SetCounter("ptp.engine.bmc.invalid", int64(c.Invalid))
	p.stats.SetCounter("ptp.engine.bmc.overflows", int64(c.Overflows))
	p.stats.SetCounter("ptp.engine.bmc.evictions", int64(c.Evictions))
	p.stats.SetCounter("ptp.engine.bmc.expired", int64(c.Expired))
	p.stats.SetCounter("ptp.engine.bmc.qualified", int64(p.bmca.Qualified()))
	gmPresent := int64(0)
	if p.gmPresent {
		gmPresent = 1
	}
	p.stats.SetCounter("ptp.engine.port.gm_present", gmPresent)
	p.stats.SetCounter("ptp.engine.port.servo_state", int64(p.servoState))
	p.stats.SetCounter("ptp.engine.port.offset_ns", p.current.OffsetFromMaster.Nanoseconds())
	p.stats.SetCounter("ptp.engine.port.mean_path_delay_ns", p.current.MeanPathDelay.Nanoseconds())
	p.stats.SetCounter("ptp.engine.port.steps_removed", int64(p.current.StepsRemoved))
	p.stats.SetForeignMasters(p.bmca.Records())
}

func (p *Port) publishStatus() {
	gmPresent := 0
	if p.gmPresent {
		gmPresent = 1
	}
	var ingress int64
	if p.haveSample {
		ingress = p.lastSample.Timestamp.UnixNano()
	}
	p.stats.SetPortStatus(&portstats.PortStatus{
		PortIdentity:  p.identity.String(),
		PortState:     p.state.String(),
		ServoState:    p.servoState.String(),
		GMIdentity:    p.parent.GrandmasterIdentity.String(),
		GMPresent:     gmPresent,
		ClockQuality:  p.parent.GrandmasterClockQuality,
		Priority1:     p.parent.GrandmasterPriority1,
		Priority2:     p.parent.GrandmasterPriority2,
		StepsRemoved:  int(p.current.StepsRemoved),
		Offset:        float64(p.current.OffsetFromMaster.Nanoseconds()),
		MeanPathDelay: float64(p.current.MeanPathDelay.Nanoseconds()),
		FreqAdjPPB:    -p.pi.LastFreqPPB(),
		DriftPPB:      p.pi.DriftPPB(),
		IngressTime:   ingress,
		Error:         p.lastErr,
	})
}
