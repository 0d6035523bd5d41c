package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrVersionMismatch = "E_VERSION_MISMATCH"

	// Tool layer.
	ErrBadTool     = "E_BAD_TOOL"
	ErrBadMaterial = "E_BAD_MATERIAL"
	ErrOutOfBounds = "E_OUT_OF_BOUNDS"
	ErrBadAmount   = "E_BAD_AMOUNT"
	ErrRateLimit   = "E_RATE_LIMIT"
	ErrInternal    = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrVersionMismatch: {},
	ErrBadTool:         {},
	ErrBadMaterial:     {},
	ErrOutOfBounds:     {},
	ErrBadAmount:       {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
