package translator

// Message ids for the minimum viable generator set (spec.md §4.D table).
const (
	IDHeartbeat  uint32 = 0
	IDParamValue uint32 = 22
	IDRawIMU     uint32 = 27
	IDAttitude   uint32 = 30
)

// NameToID maps the human-readable names used in logs and configuration
// (e.g. a rates-file entry referencing "ATTITUDE" by name) back to their
// numeric ids. MESSAGE_INTERVAL requests carry numeric ids and do not use
// this table.
var NameToID = map[string]uint32{
	"HEARTBEAT":   IDHeartbeat,
	"PARAM_VALUE": IDParamValue,
	"RAW_IMU":     IDRawIMU,
	"ATTITUDE":    IDAttitude,
}
