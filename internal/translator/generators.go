package translator

import (
	"fmt"
	"math"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/flightpath-dev/mspmav-bridge/internal/msp"
)

// GenerateHeartbeat synthesizes a HEARTBEAT from fixed constants: a
// generic vehicle in the standby state, advertising mavlink v3 framing
// (spec.md §4.D table, id 0).
func GenerateHeartbeat(cfg Config, conn *msp.Conn, ctx message.Message) (message.Message, error) {
	return &common.MessageHeartbeat{
		Type:           common.MAV_TYPE_GENERIC,
		Autopilot:      common.MAV_AUTOPILOT_GENERIC,
		BaseMode:       0,
		CustomMode:     0,
		SystemStatus:   common.MAV_STATE_STANDBY,
		MavlinkVersion: 3,
	}, nil
}

// GenerateParamValue synthesizes a placeholder PARAM_VALUE: a blank
// parameter id and zero value, since this bridge does not expose flight
// controller parameters over MSP (spec.md §4.D table, id 22).
func GenerateParamValue(cfg Config, conn *msp.Conn, ctx message.Message) (message.Message, error) {
	return &common.MessageParamValue{
		ParamId:    [16]byte{},
		ParamValue: 0,
		ParamType:  common.MAV_PARAM_TYPE_REAL32,
		ParamCount: 0,
		ParamIndex: 0,
	}, nil
}

// GenerateRawIMU requests MSP's RAW_IMU (102) and maps its fields
// directly onto MAVLink's RAW_IMU, with time_usec derived from the
// bridge's startup epoch (spec.md §4.D table, id 27).
func GenerateRawIMU(cfg Config, conn *msp.Conn, ctx message.Message) (message.Message, error) {
	resp, err := conn.Request(msp.NewV2(msp.Request, 0, msp.RawImuID, nil))
	if err != nil {
		return nil, fmt.Errorf("translator: RAW_IMU request: %w", err)
	}
	v, err := msp.DecodePayload(msp.RawImuID, resp.Payload)
	if err != nil {
		return nil, fmt.Errorf("translator: RAW_IMU decode: %w", err)
	}
	imu := v.(msp.RawImu)

	return &common.MessageRawImu{
		TimeUsec: uint64(time.Since(cfg.T0).Microseconds()),
		Xacc:     imu.AccX,
		Yacc:     imu.AccY,
		Zacc:     imu.AccZ,
		Xgyro:    imu.GyrX,
		Ygyro:    imu.GyrY,
		Zgyro:    imu.GyrZ,
		Xmag:     imu.MagX,
		Ymag:     imu.MagY,
		Zmag:     imu.MagZ,
	}, nil
}

// GenerateAttitude requests MSP's ATTITUDE (108) and converts it to
// MAVLink's ATTITUDE, applying the nose-up/nose-down pitch sign
// correction between the two protocols' frame conventions (spec.md
// §4.D table, id 30: "MSP reports nose-up-positive, MAVLink expects
// nose-down-positive").
func GenerateAttitude(cfg Config, conn *msp.Conn, ctx message.Message) (message.Message, error) {
	resp, err := conn.Request(msp.NewV2(msp.Request, 0, msp.AttitudeID, nil))
	if err != nil {
		return nil, fmt.Errorf("translator: ATTITUDE request: %w", err)
	}
	v, err := msp.DecodePayload(msp.AttitudeID, resp.Payload)
	if err != nil {
		return nil, fmt.Errorf("translator: ATTITUDE decode: %w", err)
	}
	a := v.(msp.Attitude)

	const degToRad = math.Pi / 180

	roll := (float64(a.AngX) / 10) * degToRad
	pitch := -(float64(a.AngY) / 10) * degToRad
	yaw := float64(a.Heading) * degToRad

	return &common.MessageAttitude{
		TimeBootMs: uint32(time.Since(cfg.T0).Milliseconds()),
		Roll:       float32(roll),
		Pitch:      float32(pitch),
		Yaw:        float32(yaw),
		Rollspeed:  0,
		Pitchspeed: 0,
		Yawspeed:   0,
	}, nil
}
