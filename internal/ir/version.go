package ir

// Version constants for the encoding and the tool.
const (
	// EncodingVersion is the signature encoding schema version.
	EncodingVersion = "1"

	// ToolVersion is the seasign version.
	ToolVersion = "0.1.0"
)
