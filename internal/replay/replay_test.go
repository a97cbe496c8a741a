package replay

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdems/evse-plc/internal/hpav"
	"github.com/devdems/evse-plc/internal/metrics"
)

func load(t *testing.T, name string) *Script {
	t.Helper()
	s, err := Load("testdata/" + name)
	require.NoError(t, err)
	return s
}

func fixedID() string { return "replay-1" }

func TestLoad_Defaults(t *testing.T) {
	s, err := Parse([]byte("steps:\n  - after: 50ms\n"))
	require.NoError(t, err)
	assert.Equal(t, "02:00:00:00:00:01", s.LocalMAC)
	assert.Equal(t, hpav.LocalModemMAC.String(), s.ModemMAC)
	assert.Equal(t, 20*time.Millisecond, s.Tick)
	assert.Equal(t, 2*time.Second, s.Settle)
	assert.Equal(t, 50*time.Millisecond, s.Steps[0].After)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	assert.ErrorContains(t, err, "read replay script")

	_, err = Parse([]byte("steps: [oops"))
	assert.ErrorContains(t, err, "unmarshal replay script")

	_, err = Parse([]byte("steps:\n  - note: nothing\n"))
	assert.ErrorContains(t, err, "empty step")

	_, err = Parse([]byte("steps:\n  - frame: \"00\"\n    msg: {type: get_sw_cnf}\n"))
	assert.ErrorContains(t, err, "exclusive")
}

func TestStepPayload(t *testing.T) {
	st := Step{Frame: "ffffffffffff 04656500aabb 88e1 01 6460"}
	b, err := st.Payload()
	require.NoError(t, err)
	assert.Len(t, b, 17)
	assert.Equal(t, hpav.CMSlacParam|hpav.Req, hpav.TypeOf(b))

	_, err = Step{Frame: "zz"}.Payload()
	assert.ErrorContains(t, err, "decode frame hex")

	_, err = Step{Msg: &Msg{Type: "bogus"}}.Payload()
	assert.ErrorContains(t, err, "unknown msg type")

	_, err = Step{Msg: &Msg{Type: "slac_param_req", RunID: "0102"}}.Payload()
	assert.ErrorContains(t, err, "16 hex digits")

	b, err = Step{Msg: &Msg{Type: "slac_match_req", Src: "04:65:65:00:aa:bb", RunID: "0102030405060708"}}.Payload()
	require.NoError(t, err)
	msg, err := hpav.Decode(b)
	require.NoError(t, err)
	req := msg.(*hpav.SlacMatchReq)
	assert.Equal(t, uint16(hpav.MatchReqMVFLength), req.MVFLength)
	assert.Equal(t, "04:65:65:00:aa:bb", req.Vehicle.String())
}

func TestRun_FullSession(t *testing.T) {
	m := metrics.NewAppMetrics(prometheus.NewRegistry())
	out, err := Run(load(t, "full_session.yaml"), Options{Metrics: m, NewID: fixedID}, nil)
	require.NoError(t, err)

	want := []hpav.MMType{
		hpav.CMSetKey | hpav.Req,
		hpav.CMSlacParam | hpav.Cnf,
		hpav.CMAttenChar | hpav.Ind,
		hpav.CMSlacMatch | hpav.Cnf,
		hpav.VSGetSw | hpav.Req,
	}
	if diff := cmp.Diff(want, out.Types()); diff != "" {
		t.Fatalf("sent mmtypes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 780*time.Millisecond, out.Sent[2].At)
	assert.Equal(t, "atten_ind_sent", out.Sent[2].State)

	msg, err := hpav.Decode(out.Sent[2].Frame)
	require.NoError(t, err)
	ind := msg.(*hpav.AttenCharInd)
	assert.Equal(t, byte(10), ind.Sounds)
	for _, v := range ind.Atten {
		require.Equal(t, byte(30), v)
	}

	require.Len(t, out.Reports, 1)
	r := out.Reports[0]
	assert.Equal(t, "replay-1", r.SessionID)
	assert.Equal(t, "04656500aabb", r.EVCCID)
	assert.Equal(t, "00:b0:52:11:22:33", r.VehicleModemMAC)
	assert.Equal(t, 2, r.ModemsFound)

	assert.Equal(t, "session_handed_off", out.Status.State)
	assert.Zero(t, out.Resets)
	assert.Zero(t, out.Dropped)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsCompleted))
}

func TestRun_DiscoveryRetries(t *testing.T) {
	out, err := Run(load(t, "lonely_modem.yaml"), Options{NewID: fixedID}, nil)
	require.NoError(t, err)

	getSw := 0
	for _, x := range out.Sent {
		if x.Type == hpav.VSGetSw|hpav.Req {
			getSw++
		}
	}
	assert.Equal(t, 3, getSw)
	assert.Equal(t, 2, out.Status.DiscoveryRetries)
	assert.Empty(t, out.Reports)
}

func TestRun_GarbageResetsModem(t *testing.T) {
	out, err := Run(load(t, "garbage.yaml"), Options{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Resets)
	assert.Equal(t, 1, out.Status.FramingErrors)
	assert.Equal(t, []hpav.MMType{hpav.CMSetKey | hpav.Req, hpav.CMSetKey | hpav.Req}, out.Types())
}

func TestRun_OverfullBurstDropsFrames(t *testing.T) {
	s, err := Parse([]byte(`
settle: 100ms
steps:
  - after: 500ms
    repeat: 60
    msg: {type: get_sw_cnf, src: "00:b0:52:00:00:01"}
`))
	require.NoError(t, err)
	out, err := Run(s, Options{}, nil)
	require.NoError(t, err)
	// 密钥配置早已完成，接收缓冲区为空；3163 / 74 = 42 帧放得下
	assert.Equal(t, 18, out.Dropped)
	assert.Zero(t, out.Status.FramingErrors)
	assert.Zero(t, out.Resets)
}

func TestRun_BadScript(t *testing.T) {
	_, err := Run(&Script{LocalMAC: "nope", ModemMAC: "00:b0:52:00:00:01", Tick: time.Millisecond}, Options{}, nil)
	assert.ErrorContains(t, err, "localMac")
}
