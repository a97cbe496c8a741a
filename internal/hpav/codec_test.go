package hpav

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	evseMAC    = MAC{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}
	vehicleMAC = MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	runID      = RunID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	testNID    = NID{1, 2, 3, 4, 5, 6, 7}
	testNMK    = NMK{0xF1, 0xF2, 0xF3, 0xF4, 0xF5, 0xF6, 0xF7, 0xF8, 0xF9, 0xFA, 0xFB, 0xFC, 0xFD, 0xFE, 0xFF, 0xEE}
)

func attenPattern() [NumGroups]byte {
	var a [NumGroups]byte
	for i := range a {
		a[i] = byte(i + 1)
	}
	return a
}

func TestSlacParamCnf_WireLayout(t *testing.T) {
	// 车辆 AA:BB:CC:DD:EE:FF，RunID 0102030405060708
	b := (&SlacParamCnf{Src: evseMAC, Vehicle: vehicleMAC, RunID: runID}).Encode()

	require.Len(t, b, SlacParamCnfLen)
	assert.Equal(t, vehicleMAC[:], b[28:34])
	assert.Equal(t, runID[:], b[36:44])
	assert.Equal(t, byte(0x0A), b[25])
	assert.Equal(t, byte(0x65), b[15])
	assert.Equal(t, 0x6065, int(b[16])*256+int(b[15]))
	assert.Equal(t, CMSlacParam|Cnf, TypeOf(b))
	assert.Equal(t, vehicleMAC[:], b[0:6])
	assert.Equal(t, evseMAC[:], b[6:12])
	assert.Equal(t, []byte{0x88, 0xE1}, b[12:14])
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 6), b[19:25])
}

func TestSetKeyReq_WireLayout(t *testing.T) {
	b := (&SetKeyReq{Src: evseMAC, NID: testNID, NMK: testNMK}).Encode()
	require.Len(t, b, SetKeyReqLen)
	assert.Equal(t, LocalModemMAC[:], b[0:6])
	assert.Equal(t, []byte{0x08, 0x60}, b[15:17])
	assert.Equal(t, byte(0x01), b[19])
	assert.Equal(t, byte(0x04), b[28])
	assert.Equal(t, testNID[:], b[33:40])
	assert.Equal(t, byte(0x01), b[40])
	assert.Equal(t, testNMK[:], b[41:57])
}

func TestGetSwReq_WireLayout(t *testing.T) {
	b := (&GetSwReq{Src: evseMAC}).Encode()
	require.Len(t, b, GetSwReqLen)
	assert.Equal(t, Broadcast[:], b[0:6])
	assert.Equal(t, byte(0x00), b[14])
	assert.Equal(t, []byte{0x00, 0xA0}, b[15:17])
	assert.Equal(t, []byte{0x00, 0xB0, 0x52}, b[17:20])

	padded := Pad(b)
	require.Len(t, padded, MinFrameLen)
	assert.Equal(t, b, padded[:GetSwReqLen])
}

func TestSlacMatchCnf_WireLayout(t *testing.T) {
	b := (&SlacMatchCnf{Src: evseMAC, Vehicle: vehicleMAC, EVSE: evseMAC, RunID: runID, NID: testNID, NMK: testNMK}).Encode()
	require.Len(t, b, SlacMatchCnfLen)
	assert.Equal(t, []byte{0x56, 0x00}, b[21:23])
	assert.Equal(t, vehicleMAC[:], b[40:46])
	assert.Equal(t, evseMAC[:], b[63:69])
	assert.Equal(t, runID[:], b[69:77])
	assert.Equal(t, testNID[:], b[85:92])
	assert.Equal(t, testNMK[:], b[93:109])
}

func TestRoundTrip(t *testing.T) {
	cases := []Message{
		&SetKeyReq{Src: evseMAC, NID: testNID, NMK: testNMK},
		&GetSwReq{Src: evseMAC},
		&SlacParamCnf{Src: evseMAC, Vehicle: vehicleMAC, RunID: runID},
		&AttenCharInd{Src: evseMAC, Vehicle: vehicleMAC, RunID: runID, Sounds: 10, Atten: attenPattern()},
		&SlacMatchCnf{Src: evseMAC, Vehicle: vehicleMAC, EVSE: evseMAC, RunID: runID, NID: testNID, NMK: testNMK},
		&FactoryDefaults{Src: evseMAC},
		&SetKeyCnf{Src: MAC{0, 0xB0, 0x52, 1, 2, 3}, Dst: evseMAC, Result: SetKeyResultOK},
		&GetSwCnf{Src: MAC{0, 0xB0, 0x52, 9, 9, 9}, Dst: evseMAC},
		&SlacParamReq{Src: vehicleMAC, RunID: runID},
		&StartAttenCharInd{Src: vehicleMAC, NumSounds: 10, Timeout: 6, RunID: runID},
		&MnbcSoundInd{Src: vehicleMAC, Count: 9, RunID: runID},
		&AttenProfileInd{Src: MAC{0, 0xB0, 0x52, 1, 2, 3}, Vehicle: vehicleMAC, Groups: attenPattern()},
		&AttenCharRsp{Src: vehicleMAC, Vehicle: vehicleMAC, RunID: runID, Result: AttenResultOK},
		&SlacMatchReq{Src: vehicleMAC, Dst: evseMAC, MVFLength: MatchReqMVFLength, Vehicle: vehicleMAC, EVSE: evseMAC, RunID: runID},
	}
	for _, want := range cases {
		t.Run(want.Type().String(), func(t *testing.T) {
			got, err := Decode(want.Encode())
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type span struct{ from, to int } // [from, to)

func TestEncode_ZeroFill(t *testing.T) {
	header := span{0, 17}
	cases := []struct {
		msg     Message
		defined []span
	}{
		{&SetKeyReq{Src: evseMAC, NID: testNID, NMK: testNMK}, []span{header, {19, 20}, {28, 29}, {33, 57}}},
		{&GetSwReq{Src: evseMAC}, []span{header, {17, 20}}},
		{&SlacParamCnf{Src: evseMAC, Vehicle: vehicleMAC, RunID: runID}, []span{header, {19, 34}, {36, 44}}},
		{&AttenCharInd{Src: evseMAC, Vehicle: vehicleMAC, RunID: runID, Sounds: 10, Atten: attenPattern()}, []span{header, {21, 35}, {69, 129}}},
		{&SlacMatchCnf{Src: evseMAC, Vehicle: vehicleMAC, EVSE: evseMAC, RunID: runID, NID: testNID, NMK: testNMK}, []span{header, {21, 22}, {40, 46}, {63, 77}, {85, 92}, {93, 109}}},
		{&FactoryDefaults{Src: evseMAC}, []span{header, {17, 20}}},
	}
	for _, tc := range cases {
		t.Run(tc.msg.Type().String(), func(t *testing.T) {
			b := tc.msg.Encode()
			for i, v := range b {
				inside := false
				for _, s := range tc.defined {
					if i >= s.from && i < s.to {
						inside = true
						break
					}
				}
				if !inside && v != 0 {
					t.Errorf("byte %d = 0x%02X outside defined fields", i, v)
				}
			}
		})
	}
}

func TestDecode_ShortAndForeign(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrShortFrame)

	ipv6 := make([]byte, 60)
	ipv6[12], ipv6[13] = 0x86, 0xDD
	_, err = Decode(ipv6)
	assert.ErrorIs(t, err, ErrNotHPAV)

	// ATTEN_CHAR.RSP 截断
	full := (&AttenCharRsp{Src: vehicleMAC, Vehicle: vehicleMAC, RunID: runID}).Encode()
	_, err = Decode(full[:40])
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestDecode_Unknown(t *testing.T) {
	b := make([]byte, 60)
	Header{Dst: Broadcast, Src: vehicleMAC, Version: 1, MMType: 0x6078}.put(b)
	m, err := Decode(b)
	require.NoError(t, err)
	u, ok := m.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, MMType(0x6078), u.Type())
	assert.Equal(t, vehicleMAC, u.Src)
}

func TestMMType_String(t *testing.T) {
	assert.Equal(t, "CM_SLAC_PARAM.REQ", (CMSlacParam | Req).String())
	assert.Equal(t, "CM_ATTEN_CHAR.RSP", (CMAttenChar | Rsp).String())
	assert.Equal(t, "VS_GET_SW.CNF", (VSGetSw | Cnf).String())
	assert.Equal(t, "0x1234", MMType(0x1234).String())
	assert.Equal(t, CMAttenChar, (CMAttenChar | Rsp).Base())
}

func TestMAC_ParseAndFormat(t *testing.T) {
	m, err := ParseMAC("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, vehicleMAC, m)
	assert.Equal(t, "aabbccddeeff", m.Hex())
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", m.String())

	m, err = ParseMAC("021122334455")
	require.NoError(t, err)
	assert.Equal(t, evseMAC, m)

	_, err = ParseMAC("zz")
	assert.Error(t, err)
}

func TestParseNID(t *testing.T) {
	n, err := ParseNID("01020304050607")
	require.NoError(t, err)
	assert.Equal(t, testNID, n)

	_, err = ParseNID("010203040506C0")
	assert.Error(t, err, "upper two bits set")
	_, err = ParseNID("0102")
	assert.Error(t, err)
}

func TestDeriveNID(t *testing.T) {
	for level := byte(0); level < 4; level++ {
		nid := DeriveNID(testNMK, level)
		assert.True(t, nid.Valid())
		assert.Equal(t, level, (nid[6]>>4)&0x03)
	}
	assert.Equal(t, DeriveNID(testNMK, 0), DeriveNID(testNMK, 0))
	assert.NotEqual(t, DeriveNID(testNMK, 0), DeriveNID(NMK{}, 0))
}
