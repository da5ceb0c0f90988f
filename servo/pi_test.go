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

package servo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

/*
pi servo: sample 0, offset 1191, local_ts 1674148530671467104, last_freq -111288.406372
pi servo: sample 1, offset 225, local_ts 1674148531671518924, last_freq -111288.406372
pi servo: sample 2, offset 1170, local_ts 1674148532671555647, last_freq -112254.463816
pi servo: sample 2, offset 919, local_ts 1674148533671484215, last_freq -111084.463816
pi servo: sample 2, offset 654, local_ts 1674148534671526263, last_freq -110984.463816
pi servo: sample 2, offset 303, local_ts 1674148535671478938, last_freq -110973.763816

*/

func TestPiServoSample(t *testing.T) {
	pi := NewPiServo(DefaultServoConfig(), DefaultPiServoCfg(), -111288.406372)
	pi.SyncInterval(1)
	require.InEpsilon(t, -111288.406372, pi.lastFreq, 0.00001)
	require.InEpsilon(t, -111288.406372, pi.drift, 0.00001)

	freq, state := pi.Sample(1191, 1674148530671467104)
	require.InEpsilon(t, -111288.406372, freq, 0.00001)
	require.Equal(t, StateInit, state)
	require.False(t, pi.Locked())

	freq, state = pi.Sample(225, 1674148531671518924)
	require.InEpsilon(t, -112254.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)
	require.True(t, pi.Locked())

	freq, state = pi.Sample(1170, 1674148532671555647)
	require.InEpsilon(t, -111084.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)

	freq, state = pi.Sample(919, 1674148533671484215)
	require.InEpsilon(t, -110984.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)
	require.Equal(t, StateLocked, pi.GetState())

	freq = pi.MeanFreq()
	require.InEpsilon(t, -110984.463816, freq, 0.00001)
}

func TestPiServoStepSample(t *testing.T) {
	cfg := DefaultServoConfig()
	cfg.FirstStepThreshold = 200000
	cfg.FirstUpdate = true
	pi := NewPiServo(cfg, DefaultPiServoCfg(), -111288.406372)
	pi.SyncInterval(1)
	require.InEpsilon(t, -111288.406372, pi.lastFreq, 0.00001)
	require.InEpsilon(t, -111288.406372, pi.drift, 0.00001)

	freq, state := pi.Sample(235000, 1674148528671467104)
	require.InEpsilon(t, -111288.406372, freq, 0.00001)
	require.Equal(t, StateInit, state)

	freq, state = pi.Sample(225000, 1674148529671518924)
	require.InEpsilon(t, -121289.001025, freq, 0.00001)
	require.Equal(t, StateJump, state)

	freq, state = pi.Sample(1191, 1674148530671467104)
	require.InEpsilon(t, -120098.001025, freq, 0.00001)
	require.Equal(t, StateLocked, state)

	freq, state = pi.Sample(225, 1674148531671518924)
	require.InEpsilon(t, -120706.701025, freq, 0.00001)
	require.Equal(t, StateLocked, state)
}

func TestPiServoStepThresholdReset(t *testing.T) {
	pi := NewPiServo(DefaultServoConfig(), DefaultPiServoCfg(), 0)
	pi.SyncInterval(1)

	_, state := pi.Sample(100, 1674148530671467104)
	require.Equal(t, StateInit, state)
	_, state = pi.Sample(100, 1674148531671467104)
	require.Equal(t, StateLocked, state)

	// offset above the step threshold drops the servo back to acquisition,
	// the jump itself is requested once the drift is re-estimated
	_, state = pi.Sample(2000000, 1674148532671467104)
	require.Equal(t, StateInit, state)
	require.False(t, pi.Locked())

	_, state = pi.Sample(2000000, 1674148533671467104)
	require.Equal(t, StateInit, state)
	freq, state := pi.Sample(2000100, 1674148534671467104)
	require.Equal(t, StateJump, state)
	require.InEpsilon(t, pi.drift, freq, 0.00001)
}

func TestPiServoIntegralClamp(t *testing.T) {
	cfg := DefaultPiServoCfg()
	cfg.PiIntegralMax = 1000
	pi := NewPiServo(DefaultServoConfig(), cfg, 0)
	pi.SyncInterval(1)

	_, state := pi.Sample(0, 1674148530671467104)
	require.Equal(t, StateInit, state)
	_, state = pi.Sample(0, 1674148531671467104)
	require.Equal(t, StateLocked, state)
	require.InDelta(t, 0.0, pi.DriftPPB(), 0.00001)

	// ki*offset alone would accumulate 3000 ppb per sample
	freq, state := pi.Sample(10000, 1674148532671467104)
	require.Equal(t, StateLocked, state)
	require.InEpsilon(t, 10000.0, freq, 0.00001)
	require.InEpsilon(t, 1000.0, pi.DriftPPB(), 0.00001)

	freq, state = pi.Sample(10000, 1674148533671467104)
	require.Equal(t, StateLocked, state)
	require.InEpsilon(t, 11000.0, freq, 0.00001)
	require.InEpsilon(t, 1000.0, pi.DriftPPB(), 0.00001)
}

func TestPiServoReset(t *testing.T) {
	pi := NewPiServo(DefaultServoConfig(), DefaultPiServoCfg(), -42000)
	pi.SyncInterval(1)

	_, state := pi.Sample(100, 1674148530671467104)
	require.Equal(t, StateInit, state)
	_, state = pi.Sample(90, 1674148531671467104)
	require.Equal(t, StateLocked, state)
	_, state = pi.Sample(80, 1674148532671467104)
	require.Equal(t, StateLocked, state)
	require.True(t, pi.Locked())

	pi.Reset()
	require.False(t, pi.Locked())
	require.Equal(t, StateInit, pi.GetState())
	require.InDelta(t, 0.0, pi.DriftPPB(), 0.00001)
	require.InDelta(t, 0.0, pi.LastFreqPPB(), 0.00001)

	// the servo re-acquires from scratch
	_, state = pi.Sample(100, 1674148533671467104)
	require.Equal(t, StateInit, state)
	_, state = pi.Sample(100, 1674148534671467104)
	require.Equal(t, StateLocked, state)
}

func TestPiServoConverged(t *testing.T) {
	cfg := DefaultServoConfig()
	cfg.OffsetThreshold = 100
	pi := NewPiServo(cfg, DefaultPiServoCfg(), 0)
	pi.SyncInterval(1)

	ts := uint64(1674148530671467104)
	_, state := pi.Sample(50, ts)
	require.Equal(t, StateInit, state)
	require.False(t, pi.Converged())

	for i := 1; i <= 9; i++ {
		ts += 1000000000
		_, state = pi.Sample(50, ts)
		require.Equal(t, StateLocked, state)
		require.False(t, pi.Converged())
	}

	ts += 1000000000
	_, state = pi.Sample(50, ts)
	require.Equal(t, StateLocked, state)
	require.True(t, pi.Converged())

	// one outlier starts the count over
	ts += 1000000000
	_, _ = pi.Sample(500, ts)
	require.False(t, pi.Converged())
}

func TestPiServoFilterSample(t *testing.T) {
	pi := NewPiServo(DefaultServoConfig(), DefaultPiServoCfg(), -111288.406372)
	pi.SyncInterval(1)
	piFilterCfg := DefaultPiServoFilterCfg()
	piFilterCfg.ringSize = 3
	piFilterCfg.maxSkipCount = 2
	piFilterCfg.offsetRange = 100000
	f := NewPiServoFilter(pi, piFilterCfg)

	require.InEpsilon(t, -111288.406372, pi.lastFreq, 0.00001)
	require.InEpsilon(t, -111288.406372, pi.drift, 0.00001)

	freq, state := pi.Sample(1191, 1674148530671467104)
	require.InEpsilon(t, -111288.406372, freq, 0.00001)
	require.Equal(t, StateInit, state)

	freq, state = pi.Sample(225, 1674148531671518924)
	require.InEpsilon(t, -112254.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)

	freq, state = pi.Sample(1170, 1674148532671555647)
	require.InEpsilon(t, -111084.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)

	freq, state = pi.Sample(919, 1674148533671484215)
	require.InEpsilon(t, -110984.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)
	require.Equal(t, 0, pi.filter.skippedCount)

	spike := pi.IsSpike(919000)
	require.Equal(t, true, spike)
	freq = pi.MeanFreq()
	require.InEpsilon(t, -111441.130482, freq, 0.00001)
	require.InEpsilon(t, f.freqMean, freq, 0.00001)
	require.Equal(t, 1, f.skippedCount)

	require.True(t, pi.IsSpike(919000))
	freq = pi.MeanFreq()
	require.InEpsilon(t, -111441.130482, freq, 0.00001)
	require.InEpsilon(t, f.freqMean, freq, 0.00001)
	require.Equal(t, 2, f.skippedCount)

	// too many skips: the servo starts over, holdover frequency survives
	require.True(t, pi.IsSpike(921000))
	freq = pi.MeanFreq()
	require.InEpsilon(t, -111441.130482, freq, 0.00001)
	require.Equal(t, 0, pi.count)
}

func TestPiServoNoFilterSample(t *testing.T) {
	pi := NewPiServo(DefaultServoConfig(), DefaultPiServoCfg(), -111288.406372)
	pi.SyncInterval(1)
	piFilterCfg := DefaultPiServoFilterCfg()
	piFilterCfg.ringSize = 8
	piFilterCfg.maxSkipCount = 2
	f := NewPiServoFilter(pi, piFilterCfg)

	require.InEpsilon(t, -111288.406372, pi.lastFreq, 0.00001)
	require.InEpsilon(t, -111288.406372, pi.drift, 0.00001)

	require.False(t, pi.IsSpike(1191))

	freq, state := pi.Sample(1191, 1674148530671467104)
	require.InEpsilon(t, -111288.406372, freq, 0.00001)
	require.Equal(t, StateInit, state)

	require.False(t, pi.IsSpike(225))
	freq, state = pi.Sample(225, 1674148531671518924)
	require.InEpsilon(t, -112254.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)

	require.False(t, pi.IsSpike(1170))
	freq, state = pi.Sample(1170, 1674148532671555647)
	require.InEpsilon(t, -111084.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)

	require.False(t, pi.IsSpike(919))
	freq, state = pi.Sample(919, 1674148533671484215)
	require.InEpsilon(t, -110984.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)
	require.Equal(t, 0, pi.filter.skippedCount)

	// the ring is not full yet, so even wild offsets pass unfiltered
	require.False(t, pi.IsSpike(919000))
	_, state = pi.Sample(919000, 1674148534671684215)
	require.Equal(t, StateLocked, state)

	require.False(t, pi.IsSpike(909000))
	_, state = pi.Sample(909000, 1674148535671684215)
	require.Equal(t, StateLocked, state)
	require.Equal(t, 0, f.skippedCount)
}

func TestPiServoSetFreq(t *testing.T) {
	pi := NewPiServo(DefaultServoConfig(), DefaultPiServoCfg(), -111288.406372)
	pi.InitLastFreq(11111.0025)

	require.InEpsilon(t, 11111.0025, pi.lastFreq, 0.00001)
	require.InEpsilon(t, 11111.0025, pi.drift, 0.00001)
}

func TestPiServoFilterMeanFreq(t *testing.T) {
	pi := NewPiServo(DefaultServoConfig(), DefaultPiServoCfg(), -111288.406372)
	pi.SyncInterval(1)
	piFilterCfg := DefaultPiServoFilterCfg()
	piFilterCfg.ringSize = 3
	piFilterCfg.maxSkipCount = 2
	piFilterCfg.offsetRange = 1000
	f := NewPiServoFilter(pi, piFilterCfg)

	require.InEpsilon(t, -111288.406372, pi.lastFreq, 0.00001)
	require.InEpsilon(t, -111288.406372, pi.drift, 0.00001)
	require.InEpsilon(t, -111288.406372, pi.filter.freqMean, 0.00001)

	freq, state := pi.Sample(1191, 1674148530671467104)
	require.InEpsilon(t, -111288.406372, freq, 0.00001)
	require.Equal(t, StateInit, state)

	freq, state = pi.Sample(225, 1674148531671518924)
	require.InEpsilon(t, -112254.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)

	freq, state = pi.Sample(-170, 1674148532671555647)
	require.InEpsilon(t, -112424.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)

	freq, state = pi.Sample(68, 1674148533671484215)
	require.InEpsilon(t, -112237.463816, freq, 0.00001)
	require.Equal(t, StateLocked, state)
	require.Equal(t, 0, pi.filter.skippedCount)

	require.True(t, pi.IsSpike(919000))
	freq = pi.MeanFreq()
	require.InEpsilon(t, -112305.463816, freq, 0.00001)
	require.Equal(t, 1, f.skippedCount)

	require.True(t, pi.IsSpike(-1921000))
	freq = pi.MeanFreq()
	require.InEpsilon(t, -112305.463816, freq, 0.00001)
	require.Equal(t, 2, f.skippedCount)

	require.True(t, pi.IsSpike(1921000))
	freq = pi.MeanFreq()
	require.InEpsilon(t, -112305.463816, freq, 0.00001)
	require.Equal(t, f.freqMean, freq)
}

/*
1705509028.124002 161053 sptp.go:395] offset         -1 s2 freq  -23186 path delay       4493
1705509029.124866 161053 sptp.go:395] offset        -13 s2 freq  -23198 path delay       4493
1705509030.124943 161053 sptp.go:395] offset          2 s2 freq  -23187 path delay       4493
1705509031.126138 161053 sptp.go:395] offset        -28 s2 freq  -23216 path delay       4493
1705509032.126981 161053 sptp.go:395] offset         -7 s2 freq  -23204 path delay       4493
1705509033.128078 161053 sptp.go:395] offset         14 s2 freq  -23185 path delay       4493
1705509034.128960 161053 sptp.go:395] offset          5 s2 freq  -23190 path delay       4493
1705509035.129991 161053 sptp.go:395] offset        -14 s2 freq  -23207 path delay       4494
1705509036.130273 161053 sptp.go:395] offset         -1 s2 freq  -23198 path delay       4494
1705509037.131229 161053 sptp.go:395] offset         23 s2 freq  -23175 path delay       4495
1705509038.132353 161053 sptp.go:395] offset        -17 s2 freq  -23208 path delay       4495
1705509039.133252 161053 sptp.go:395] offset          1 s2 freq  -23195 path delay       4495
1705509040.134036 161053 sptp.go:395] offset        -24 s2 freq  -23220 path delay       4495
1705509041.134984 161053 sptp.go:395] offset          3 s2 freq  -23200 path delay       4495
1705509042.136087 161053 sptp.go:395] offset         34 s2 freq  -23168 path delay       4495
1705509043.137061 161053 sptp.go:395] offset          1 s2 freq  -23191 path delay       4495
1705509044.137951 161053 sptp.go:395] offset         16 s2 freq  -23175 path delay       4495
1705509045.138549 161053 sptp.go:395] offset         -9 s2 freq  -23196 path delay       4495
1705509046.138969 161053 sptp.go:395] offset        -10 s2 freq  -23199 path delay       4495
1705509047.140065 161053 sptp.go:395] offset         15 s2 freq  -23177 path delay       4495
1705509048.141196 161053 sptp.go:395] offset          1 s2 freq  -23187 path delay       4495
1705509049.141153 161053 sptp.go:395] offset        -24 s2 freq  -23212 path delay       4496
1705509050.142218 161053 sptp.go:395] offset         -6 s2 freq  -23201 path delay       4496
1705509051.143105 161053 sptp.go:395] offset         -3 s2 freq  -23200 path delay       4496
1705509052.144188 161053 sptp.go:395] offset         21 s2 freq  -23176 path delay       4496
1705509053.145134 161053 sptp.go:395] offset         11 s2 freq  -23180 path delay       4496
1705509054.145250 161053 sptp.go:395] offset        -15 s2 freq  -23203 path delay       4496
1705509055.146215 161053 sptp.go:395] offset         -6 s2 freq  -23198 path delay       4496
1705509056.147176 161053 sptp.go:395] offset         -3 s2 freq  -23197 path delay       4496
1705509057.147938 161053 sptp.go:395] offset         18 s2 freq  -23177 path delay       4496
1705509058.148857 161053 sptp.go:395] offset         14 s2 freq  -23176 path delay       4496
1705509059.149155 161053 sptp.go:395] offset         -3 s2 freq  -23188 path delay       4496
1705509060.150073 161053 sptp.go:395] offset        -27 s2 freq  -23213 path delay       4496
1705509061.151095 161053 sptp.go:395] offset        -11 s2 freq  -23205 path delay       4496
1705509062.152144 161053 sptp.go:395] offset        -13 s2 freq  -23211 path delay       4496
1705509063.152956 161053 sptp.go:395] offset         37 s2 freq  -23165 path delay       4496
1705509064.153914 161053 sptp.go:395] offset         25 s2 freq  -23166 path delay       4496
1705509065.155252 161053 sptp.go:395] offset        -10 s2 freq  -23193 path delay       4496
1705509066.156531 161053 sptp.go:395] offset        -18 s2 freq  -23204 path delay       4496
1705509067.157337 161053 sptp.go:395] offset        -22 s2 freq  -23213 path delay       4496
1705509068.157934 161053 sptp.go:395] offset         17 s2 freq  -23181 path delay       4496
1705509069.158955 161053 sptp.go:395] offset          3 s2 freq  -23190 path delay       4496
1705509070.160033 161053 sptp.go:395] offset        -26 s2 freq  -23218 path delay       4496
1705509071.161056 161053 sptp.go:395] offset         11 s2 freq  -23189 path delay       4496
1705509072.161972 161053 sptp.go:395] offset        -20 s2 freq  -23217 path delay       4496
1705509073.163181 161053 sptp.go:395] offset         22 s2 freq  -23181 path delay       4496
1705509074.163961 161053 sptp.go:395] offset         -8 s2 freq  -23204 path delay       4496
1705509075.165209 161053 sptp.go:395] offset          0 s2 freq  -23198 path delay       4496
1705509076.166091 161053 sptp.go:395] offset        -27 s2 freq  -23225 path delay       4495
1705509077.167153 161053 sptp.go:395] offset         -3 s2 freq  -23209 path delay       4495
1705509078.168353 161053 sptp.go:395] offset         23 s2 freq  -23184 path delay       4495
1705509079.169090 161053 sptp.go:395] offset         -5 s2 freq  -23205 path delay       4495
1705509080.170178 161053 sptp.go:395] offset         -5 s2 freq  -23207 path delay       4495
1705509081.170962 161053 sptp.go:395] offset        -23 s2 freq  -23226 path delay       4494
1705509082.172252 161053 sptp.go:395] offset     175101 s3 freq  -23197 path delay       4495
*/
func TestPiServoFilterSample2(t *testing.T) {
	pi := NewPiServo(DefaultServoConfig(), DefaultPiServoCfg(), -23186)
	pi.SyncInterval(1)
	piFilterCfg := DefaultPiServoFilterCfg()
	piFilterCfg.ringSize = 30
	piFilterCfg.maxSkipCount = 15
	_ = NewPiServoFilter(pi, piFilterCfg)

	samples := []struct {
		offset  int64
		localTs uint64
		freq    float64
		state   State
	}{
		{-1, 1705509028124002000, -23186.0, StateInit},
		{-13, 1705509029124866000, -23198.000, StateLocked},
		{2, 1705509030124943000, -23187.000, StateLocked},
		{-28, 1705509031126138000, -23216.000, StateLocked},
		{-7, 1705509032126981000, -23204.000, StateLocked},
		{14, 1705509033128078000, -23185.000, StateLocked},
		{5, 1705509034128960000, -23190.000, StateLocked},
		{-14, 1705509035129991000, -23207.000, StateLocked},
		{-1, 1705509036130273000, -23198.000, StateLocked},
		{23, 1705509037131229000, -23175.000, StateLocked},
		{-17, 1705509038132353000, -23208.000, StateLocked},
		{1, 1705509039133252000, -23195.000, StateLocked},
		{-24, 1705509040134036000, -23220.000, StateLocked},
		{3, 1705509041134984000, -23200.000, StateLocked},
		{34, 1705509042136087000, -23168.000, StateLocked},
		{1, 1705509043137061000, -23191.000, StateLocked},
		{16, 1705509044137951000, -23175.000, StateLocked},
		{-9, 1705509045138549000, -23196.000, StateLocked},
		{-10, 1705509046138969000, -23199.000, StateLocked},
		{15, 1705509047140065000, -23177.000, StateLocked},
		{1, 1705509048141196000, -23187.000, StateLocked},
		{-24, 1705509049141153000, -23212.000, StateLocked},
		{-6, 1705509050142218000, -23201.000, StateLocked},
		{-3, 1705509051143105000, -23200.000, StateLocked},
		{21, 1705509052144188000, -23176.000, StateLocked},
		{11, 1705509053145134000, -23180.000, StateLocked},
		{-15, 1705509054145250000, -23203.000, StateLocked},
		{-6, 1705509055146215000, -23198.000, StateLocked},
		{-3, 1705509056147176000, -23197.000, StateLocked},
		{18, 1705509057147938000, -23177.000, StateLocked},
		{14, 1705509058148857000, -23176.000, StateLocked},
		{-3, 1705509059149155000, -23188.000, StateLocked},
		{-27, 1705509060150073000, -23213.000, StateLocked},
		{-11, 1705509061151095000, -23205.000, StateLocked},
		{-13, 1705509062152144000, -23211.000, StateLocked},
		{37, 1705509063152956000, -23165.000, StateLocked},
		{25, 1705509064153914000, -23166.000, StateLocked},
		{-10, 1705509065155252000, -23193.000, StateLocked},
		{-18, 1705509066156531000, -23204.000, StateLocked},
		{-22, 1705509067157337000, -23213.000, StateLocked},
		{17, 1705509068157934000, -23181.000, StateLocked},
		{3, 1705509069158955000, -23190.000, StateLocked},
		{-26, 1705509070160033000, -23218.000, StateLocked},
		{11, 1705509071161056000, -23189.000, StateLocked},
		{-20, 1705509072161972000, -23217.000, StateLocked},
		{22, 1705509073163181000, -23181.000, StateLocked},
		{-8, 1705509074163961000, -23204.000, StateLocked},
		{0, 1705509075165209000, -23198.000, StateLocked},
		{-27, 1705509076166091000, -23225.000, StateLocked},
		{-3, 1705509077167153000, -23209.000, StateLocked},
		{23, 1705509078168353000, -23184.000, StateLocked},
		{-5, 1705509079169090000, -23205.000, StateLocked},
		{-5, 1705509080170178000, -23207.000, StateLocked},
		{-23, 1705509081170962000, -23226.000, StateLocked},
	}
	for _, s := range samples {
		require.False(t, pi.IsSpike(s.offset), "offset %d misdetected as a spike", s.offset)
		freq, state := pi.Sample(s.offset, s.localTs)
		require.InEpsilon(t, s.freq, freq, 0.001, "offset %d", s.offset)
		require.Equal(t, s.state, state, "offset %d", s.offset)
	}

	require.True(t, pi.IsSpike(175101))
	/* pi.Sample should not be called after IsSpike is true */
	freq := pi.MeanFreq()
	require.InEpsilon(t, -23197.000, freq, 0.001)

	/*
		I0117 08:31:23.173349 161053 sptp.go:395] offset      96571 s2 freq  +73361 path delay       4495
	*/
	require.True(t, pi.IsSpike(96571))
	freq = pi.MeanFreq()
	require.InEpsilon(t, -23197.000, freq, 0.001)
}

func TestServoStateString(t *testing.T) {
	require.Equal(t, "INIT", StateInit.String())
	require.Equal(t, "JUMP", StateJump.String())
	require.Equal(t, "LOCKED", StateLocked.String())
	require.Equal(t, "FILTER", StateFilter.String())
	require.Equal(t, "HOLDOVER", StateHoldover.String())
	require.Equal(t, "UNSUPPORTED", State(42).String())
}

func TestDefaultServoConfig(t *testing.T) {
	cfg := DefaultServoConfig()
	require.Equal(t, int64(DefaultStepThreshold), cfg.StepThreshold)
	require.False(t, cfg.FirstUpdate)
	require.Equal(t, float64(900000000), cfg.maxFreq)
}
