package server

// Config holds the process-wide defaults for buffer and body limits.
// Per-connection overrides remain live API calls
// (SetReceiveBufferSize/SetSendBufferSize); Config only seeds the
// defaults new Connections start with.
type Config struct {
	// InitialReadBufferSize is carried with the other limits but is not
	// applied: every Connection's ReadBuffer starts at iobuf.InitialBufSize.
	InitialReadBufferSize int
	ReadBufferMax         int
	WriteBufferMax        int
	MaxBodyBytes          int
}

// DefaultConfig returns this server's hard-coded limits.
func DefaultConfig() Config {
	return Config{
		InitialReadBufferSize: 4 << 10,
		ReadBufferMax:         1 << 20,
		WriteBufferMax:        1 << 20,
		MaxBodyBytes:          100 << 20,
	}
}
