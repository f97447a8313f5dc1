package translator

import (
	"math"
	"net"
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/stretchr/testify/require"

	"github.com/flightpath-dev/mspmav-bridge/internal/msp"
)

// fakeFC is an in-memory MSP responder good enough to drive a single
// request/response exchange per test.
func fakeFC(t *testing.T, functionID uint16, v any) *msp.Conn {
	t.Helper()
	client, server := net.Pipe()

	go func() {
		p := msp.NewParser()
		for {
			buf := make([]byte, 1)
			if _, err := server.Read(buf); err != nil {
				return
			}
			frame, err := p.Feed(buf[0])
			if err != nil {
				continue
			}
			if frame == nil {
				continue
			}
			payload, err := msp.EncodePayload(functionID, v)
			if err != nil {
				return
			}
			resp := msp.NewV2(msp.Response, 0, functionID, payload)
			out, err := resp.Encode()
			if err != nil {
				return
			}
			if _, err := server.Write(out); err != nil {
				return
			}
		}
	}()

	t.Cleanup(func() { client.Close(); server.Close() })
	return msp.NewConn(client)
}

func TestGenerateHeartbeat(t *testing.T) {
	msg, err := GenerateHeartbeat(Config{}, nil, nil)
	if err != nil {
		t.Fatalf("GenerateHeartbeat: %v", err)
	}
	hb, ok := msg.(*common.MessageHeartbeat)
	if !ok {
		t.Fatalf("got %T, want *common.MessageHeartbeat", msg)
	}
	if hb.MavlinkVersion != 3 {
		t.Fatalf("MavlinkVersion = %d, want 3", hb.MavlinkVersion)
	}
	if hb.SystemStatus != common.MAV_STATE_STANDBY {
		t.Fatalf("SystemStatus = %v, want MAV_STATE_STANDBY", hb.SystemStatus)
	}
}

func TestGenerateRawIMU(t *testing.T) {
	want := msp.RawImu{AccX: 1, AccY: 2, AccZ: 3, GyrX: 4, GyrY: 5, GyrZ: 6, MagX: 7, MagY: 8, MagZ: 9}
	conn := fakeFC(t, msp.RawImuID, want)

	msg, err := GenerateRawIMU(Config{T0: time.Now()}, conn, nil)
	if err != nil {
		t.Fatalf("GenerateRawIMU: %v", err)
	}
	imu, ok := msg.(*common.MessageRawImu)
	if !ok {
		t.Fatalf("got %T, want *common.MessageRawImu", msg)
	}
	if imu.Xacc != want.AccX || imu.Yacc != want.AccY || imu.Zacc != want.AccZ {
		t.Fatalf("accel mismatch: got %+v, want %+v", imu, want)
	}
	if imu.Xgyro != want.GyrX || imu.Ygyro != want.GyrY || imu.Zgyro != want.GyrZ {
		t.Fatalf("gyro mismatch: got %+v, want %+v", imu, want)
	}
	if imu.Xmag != want.MagX || imu.Ymag != want.MagY || imu.Zmag != want.MagZ {
		t.Fatalf("mag mismatch: got %+v, want %+v", imu, want)
	}
}

func TestGenerateAttitudePitchSignInversion(t *testing.T) {
	// angx=100 (10.0 deg roll), angy=50 (5.0 deg pitch nose-up), heading=90.
	conn := fakeFC(t, msp.AttitudeID, msp.Attitude{AngX: 100, AngY: 50, Heading: 90})

	msg, err := GenerateAttitude(Config{T0: time.Now()}, conn, nil)
	require.NoError(t, err)
	att, ok := msg.(*common.MessageAttitude)
	require.True(t, ok, "got %T, want *common.MessageAttitude", msg)

	wantRoll := 10.0 * math.Pi / 180
	wantPitch := -5.0 * math.Pi / 180
	wantYaw := 90.0 * math.Pi / 180

	const eps = 1e-5
	require.InDelta(t, wantRoll, float64(att.Roll), eps)
	require.InDelta(t, wantPitch, float64(att.Pitch), eps, "sign must invert MSP's nose-up convention")
	require.InDelta(t, wantYaw, float64(att.Yaw), eps)
}
